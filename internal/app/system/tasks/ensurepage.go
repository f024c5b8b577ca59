package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	groupstore "github.com/dalemusser/directory/internal/app/store/groups"
	pagestore "github.com/dalemusser/directory/internal/app/store/pages"
	snippetstore "github.com/dalemusser/directory/internal/app/store/snippets"
	"github.com/dalemusser/directory/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/spf13/pflag"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func ensurePageTask() Task {
	return Task{
		Name:    "ensure-page",
		Short:   "Create or update the directory page at a path",
		Usage:   "<slug>",
		MinArgs: 1,
		Flags: func(fs *pflag.FlagSet) {
			fs.String("title", "", "page title (default: keep the current one, or \"Directory\")")
			fs.String("default-view", models.ViewGroups, "view at the page's own URL: groups or people")
			fs.StringSlice("group", nil, "lock the page to this group (title or slug, repeatable)")
			fs.StringSlice("not-group", nil, "hide members of this group (title or slug, repeatable)")
			fs.Bool("show-thumbnail", false, "show person thumbnails")
			fs.Bool("unpublished", false, "save the page unpublished")
		},
		Run: func(ctx context.Context, env Env, args []string) error {
			slug := pagestore.NormalizePath(args[0])
			title, _ := env.Flags.GetString("title")
			view, _ := env.Flags.GetString("default-view")
			in, _ := env.Flags.GetStringSlice("group")
			out, _ := env.Flags.GetStringSlice("not-group")
			thumbs, _ := env.Flags.GetBool("show-thumbnail")
			unpublished, _ := env.Flags.GetBool("unpublished")

			if view != models.ViewGroups && view != models.ViewPeople {
				return fmt.Errorf("ensure-page: default view %q is not groups or people", view)
			}

			groups := groupstore.New(env.DB, nil, false)
			groupIDs, err := resolveGroups(ctx, groups, in)
			if err != nil {
				return fmt.Errorf("ensure-page: %w", err)
			}
			notGroupIDs, err := resolveGroups(ctx, groups, out)
			if err != nil {
				return fmt.Errorf("ensure-page: %w", err)
			}

			pages := pagestore.New(env.DB)
			if title == "" {
				title = "Directory"
				if existing, err := pages.GetBySlug(ctx, slug); err == nil && existing.Title != "" {
					title = existing.Title
				} else if err != nil && !errors.Is(err, pagestore.ErrNotFound) {
					return fmt.Errorf("ensure-page: %w", err)
				}
			}

			page := models.DirectoryPage{
				Slug:          slug,
				Title:         title,
				DefaultView:   view,
				GroupIDs:      groupIDs,
				NotGroupIDs:   notGroupIDs,
				ShowThumbnail: thumbs,
				Published:     !unpublished,
			}
			if err := pages.Upsert(ctx, page); err != nil {
				return fmt.Errorf("ensure-page: %w", err)
			}
			env.Log.Info("ensure-page",
				zap.String("slug", slug),
				zap.String("default_view", view),
				zap.Int("groups", len(groupIDs)),
				zap.Int("not_groups", len(notGroupIDs)),
				zap.Bool("published", page.Published))
			fmt.Fprintf(env.Out, "directory page %s (%q) saved, default view %s\n", slug, title, view)
			return nil
		},
	}
}

// resolveGroups looks each name up by slug, then by case-folded title.
func resolveGroups(ctx context.Context, groups *groupstore.Store, names []string) ([]primitive.ObjectID, error) {
	var ids []primitive.ObjectID
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		g, err := groups.GetOne(ctx, bson.M{"$or": []bson.M{
			{"slug": name},
			{"title_ci": text.Fold(name)},
		}}, groupstore.Options{
			GetOptions: snippetstore.GetOptions{Editor: true},
			SkipPeople: true,
		})
		if errors.Is(err, groupstore.ErrNotFound) {
			return nil, fmt.Errorf("no group %q", name)
		}
		if err != nil {
			return nil, err
		}
		ids = append(ids, g.ID)
	}
	return ids, nil
}
