// Command directoryctl runs maintenance tasks against the directory
// database and serves live reload for template work.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dalemusser/directory/internal/app/system/tasks"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type globalFlags struct {
	mongoURI string
	database string
	verbose  bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(tasks.Default()).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(reg *tasks.Registry) *cobra.Command {
	g := &globalFlags{}
	var logger *zap.Logger

	root := &cobra.Command{
		Use:           "directoryctl",
		Short:         "Maintenance tasks for the people and groups directory",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := zap.NewDevelopmentConfig()
			cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
			if g.verbose {
				cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			l, err := cfg.Build()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			logger = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.mongoURI, "mongo-uri", envOr("DIRECTORY_MONGO_URI", "mongodb://localhost:27017"), "MongoDB connection URI")
	pf.StringVar(&g.database, "db", envOr("DIRECTORY_MONGO_DATABASE", "directory"), "MongoDB database name")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "debug logging")

	log := func() *zap.Logger {
		if logger == nil {
			return zap.NewNop()
		}
		return logger
	}
	for _, t := range reg.All() {
		root.AddCommand(taskCmd(reg, t, g, log))
	}
	root.AddCommand(watchCmd(log))
	return root
}

// taskCmd wraps one registered task as a subcommand.
func taskCmd(reg *tasks.Registry, t tasks.Task, g *globalFlags, log func() *zap.Logger) *cobra.Command {
	use := t.Name
	if t.Usage != "" {
		use += " " + t.Usage
	}
	cmd := &cobra.Command{
		Use:   use,
		Short: t.Short,
		Args:  cobra.MinimumNArgs(t.MinArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := connect(ctx, g.mongoURI)
			if err != nil {
				return err
			}
			defer func() {
				dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = client.Disconnect(dctx)
			}()

			env := tasks.Env{
				DB:    client.Database(g.database),
				Log:   log().With(zap.String("task", t.Name)),
				Out:   cmd.OutOrStdout(),
				Flags: cmd.Flags(),
			}
			return reg.Run(ctx, t.Name, env, args)
		},
	}
	if t.Flags != nil {
		t.Flags(cmd.Flags())
	}
	return cmd
}

func connect(ctx context.Context, uri string) (*mongo.Client, error) {
	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(cctx, options.Client().ApplyURI(uri).SetAppName("directoryctl"))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(cctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
