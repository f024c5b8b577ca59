// Package tasks holds the maintenance commands directoryctl exposes. Tasks
// are registered explicitly on a Registry at startup.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/pflag"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ErrUnknownTask is returned by Run for a name nobody registered.
var ErrUnknownTask = errors.New("unknown task")

// Env is what a task runs against.
type Env struct {
	DB  *mongo.Database
	Log *zap.Logger
	Out io.Writer

	// Flags holds the parsed task flags. Run parses them from args when nil.
	Flags *pflag.FlagSet
}

// Task is one named command.
type Task struct {
	Name    string
	Short   string
	Usage   string // argument synopsis, e.g. "<title> [permission...]"
	MinArgs int
	// Flags registers the task's flags, if it has any.
	Flags func(fs *pflag.FlagSet)
	Run   func(ctx context.Context, env Env, args []string) error
}

// Registry maps task names to tasks.
type Registry struct {
	tasks map[string]Task
}

func NewRegistry() *Registry {
	return &Registry{tasks: map[string]Task{}}
}

// Register adds t. Names must be unique.
func (r *Registry) Register(t Task) error {
	if t.Name == "" || t.Run == nil {
		return errors.New("task needs a name and a run function")
	}
	if _, dup := r.tasks[t.Name]; dup {
		return fmt.Errorf("task %q already registered", t.Name)
	}
	r.tasks[t.Name] = t
	return nil
}

func (r *Registry) Lookup(name string) (Task, bool) {
	t, ok := r.tasks[name]
	return t, ok
}

// All returns the tasks sorted by name.
func (r *Registry) All() []Task {
	out := make([]Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Run runs the named task after parsing its flags and checking its
// argument count.
func (r *Registry) Run(ctx context.Context, name string, env Env, args []string) error {
	t, ok := r.tasks[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}
	if env.Flags == nil {
		fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
		fs.SetOutput(io.Discard)
		if t.Flags != nil {
			t.Flags(fs)
		}
		if err := fs.Parse(args); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		env.Flags, args = fs, fs.Args()
	}
	if len(args) < t.MinArgs {
		return fmt.Errorf("%s: want at least %d argument(s): %s", name, t.MinArgs, t.Usage)
	}
	if env.Log == nil {
		env.Log = zap.NewNop()
	}
	if env.Out == nil {
		env.Out = io.Discard
	}
	return t.Run(ctx, env, args)
}

// Default returns the registry with every built-in task.
func Default() *Registry {
	r := NewRegistry()
	for _, t := range []Task{generateTask(), ensureGroupTask(), ensurePageTask()} {
		if err := r.Register(t); err != nil {
			panic(err)
		}
	}
	return r
}
