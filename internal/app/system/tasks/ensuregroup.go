package tasks

import (
	"context"
	"fmt"
	"strings"

	groupstore "github.com/dalemusser/directory/internal/app/store/groups"
	peoplestore "github.com/dalemusser/directory/internal/app/store/people"
	"go.uber.org/zap"
)

func ensureGroupTask() Task {
	return Task{
		Name:    "ensure-group",
		Short:   "Create a group if no group has this title",
		Usage:   "<title> [permission...]",
		MinArgs: 1,
		Run: func(ctx context.Context, env Env, args []string) error {
			title := strings.TrimSpace(args[0])
			if title == "" {
				return fmt.Errorf("ensure-group: title is blank")
			}
			groups := groupstore.New(env.DB, peoplestore.New(env.DB), false)
			g, created, err := groups.EnsureExists(ctx, title, args[1:])
			if err != nil {
				return fmt.Errorf("ensure-group: %w", err)
			}
			env.Log.Info("ensure-group",
				zap.String("group_id", g.ID.Hex()),
				zap.String("slug", g.Slug),
				zap.Bool("created", created))
			if created {
				fmt.Fprintf(env.Out, "created group %q (%s) with permissions %v\n", g.Title, g.Slug, g.Permissions)
			} else {
				fmt.Fprintf(env.Out, "group %q already exists (%s); permissions unchanged\n", g.Title, g.Slug)
			}
			return nil
		},
	}
}
