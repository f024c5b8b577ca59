// internal/app/features/directory/permalink.go
package directory

import (
	"strings"

	"github.com/dalemusser/directory/internal/domain/models"
)

// PersonURL is the person's permalink under page.
func PersonURL(page models.DirectoryPage, p models.Person) string {
	return join(page.Slug, p.Slug)
}

// GroupURL is the group's permalink under page. A page locked to just
// this group is the group's page, so the group links to the page itself.
func GroupURL(page models.DirectoryPage, g models.Group) string {
	if len(page.GroupIDs) == 1 && page.GroupIDs[0] == g.ID {
		return page.Slug
	}
	return join(page.Slug, g.Slug)
}

func join(pageSlug, slug string) string {
	return strings.TrimSuffix(pageSlug, "/") + "/" + slug
}
