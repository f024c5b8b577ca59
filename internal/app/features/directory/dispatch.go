// internal/app/features/directory/dispatch.go
package directory

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	groupstore "github.com/dalemusser/directory/internal/app/store/groups"
	peoplestore "github.com/dalemusser/directory/internal/app/store/people"
	snippetstore "github.com/dalemusser/directory/internal/app/store/snippets"
	"github.com/dalemusser/directory/internal/app/system/paging"
	"github.com/dalemusser/directory/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson"
)

// Template names rendered by the directory.
const (
	TemplatePeople     = "directory_people"
	TemplatePeopleAjax = "directory_people_ajax"
	TemplateGroups     = "directory_groups"
	TemplatePerson     = "directory_person"
	TemplateGroup      = "directory_group"
)

// PeopleGetter is the people side of the directory.
type PeopleGetter interface {
	Get(ctx context.Context, criteria bson.M, opts peoplestore.Options) (snippetstore.Results[models.Person], error)
	GetOne(ctx context.Context, criteria bson.M, opts peoplestore.Options) (models.Person, error)
}

// GroupGetter is the group side of the directory.
type GroupGetter interface {
	Get(ctx context.Context, criteria bson.M, opts groupstore.Options) (snippetstore.Results[models.Group], error)
	GetOne(ctx context.Context, criteria bson.M, opts groupstore.Options) (models.Group, error)
}

// TypeLookup resolves a slug to its snippet type.
type TypeLookup func(ctx context.Context, slug string) (string, error)

// Service answers directory requests for one matched page.
type Service struct {
	People     PeopleGetter
	Groups     GroupGetter
	LookupType TypeLookup
	Sortable   bool
	PerPage    int
}

// Request is one directory request after page matching.
type Request struct {
	HTTP      *http.Request
	Page      models.DirectoryPage
	Remainder string // "" or starts with "/"
	Editor    bool   // may see unpublished entries
}

// Outcome is what the handler should do. Exactly one of Redirect,
// NotFound or Template is set.
type Outcome struct {
	Template string
	Ajax     bool
	Data     ViewData
	Redirect string
	NotFound bool
}

// ViewData is the template input for every directory view.
type ViewData struct {
	Page        models.DirectoryPage
	DefaultView string

	People []models.Person
	Groups []models.Group
	Person *models.Person
	Group  *models.Group

	// Body is the sanitized body of Person or Group.
	Body template.HTML

	OneGroup  bool
	Letters   []string
	Letter    string
	Search    string
	Pager     paging.Pager
	PeopleURL string
	GroupsURL string
}

// Letters is the A-Z index shown above the people list.
var Letters = strings.Split("abcdefghijklmnopqrstuvwxyz", "")

// DefaultView returns "people" or "groups" for page. A page locked to
// exactly one group always shows people; there is no group index to pick
// from.
func DefaultView(page models.DirectoryPage) string {
	if len(page.GroupIDs) == 1 {
		return models.ViewPeople
	}
	if page.DefaultView == models.ViewPeople {
		return models.ViewPeople
	}
	return models.ViewGroups
}

// Dispatch routes a request to the matching view.
//
//	""         default view
//	"/people"  people index (redirects to the page when that is the default)
//	"/groups"  group index (likewise)
//	"/<slug>"  a person or a group
func (s *Service) Dispatch(ctx context.Context, req Request) (Outcome, error) {
	view := DefaultView(req.Page)
	rem := strings.TrimSuffix(req.Remainder, "/")

	switch rem {
	case "":
		if view == models.ViewPeople {
			return s.indexPeople(ctx, req)
		}
		return s.indexGroups(ctx, req)
	case "/people":
		if view == models.ViewPeople {
			return Outcome{Redirect: canonical(req)}, nil
		}
		return s.indexPeople(ctx, req)
	case "/groups":
		if view == models.ViewGroups {
			return Outcome{Redirect: canonical(req)}, nil
		}
		return s.indexGroups(ctx, req)
	}

	slug := strings.TrimPrefix(rem, "/")
	if slug == "" || strings.Contains(slug, "/") {
		return Outcome{NotFound: true}, nil
	}
	typ, err := s.LookupType(ctx, slug)
	if errors.Is(err, snippetstore.ErrNotFound) {
		return Outcome{NotFound: true}, nil
	}
	if err != nil {
		return Outcome{}, err
	}
	switch typ {
	case models.TypePerson:
		return s.showPerson(ctx, req, slug)
	case models.TypeGroup:
		return s.showGroup(ctx, req, slug)
	}
	// Some other kind of snippet; not ours to show.
	return Outcome{NotFound: true}, nil
}

// canonical is the page URL with the request's query string kept.
func canonical(req Request) string {
	u := req.Page.Slug
	if req.HTTP != nil && req.HTTP.URL.RawQuery != "" {
		u += "?" + req.HTTP.URL.RawQuery
	}
	return u
}

// IsXHR reports whether the request came from the infinite-scroll loader.
// A refresh or page-information request wants the full page.
func IsXHR(r *http.Request) bool {
	if r == nil {
		return false
	}
	xhr := r.Header.Get("X-Requested-With") == "XMLHttpRequest" || query.Get(r, "xhr") != ""
	if !xhr {
		return false
	}
	return query.Get(r, "refresh") == "" && query.Get(r, "pageInformation") == ""
}

func (s *Service) baseData(req Request) ViewData {
	return ViewData{
		Page:        req.Page,
		DefaultView: DefaultView(req.Page),
		PeopleURL:   join(req.Page.Slug, "people"),
		GroupsURL:   join(req.Page.Slug, "groups"),
	}
}

func (s *Service) indexPeople(ctx context.Context, req Request) (Outcome, error) {
	page := req.Page
	data := s.baseData(req)
	data.OneGroup = len(page.GroupIDs) == 1

	r := req.HTTP
	if r == nil {
		r = &http.Request{URL: &url.URL{}}
	}
	pager := paging.NewPager(r, s.PerPage)

	opts := peoplestore.Options{
		GetOptions: snippetstore.GetOptions{
			Editor:       req.Editor,
			Letter:       query.Get(r, "letter"),
			Search:       firstNonEmpty(query.Get(r, "search"), query.Get(r, "q")),
			Autocomplete: query.Get(r, "autocomplete"),
			Skip:         pager.Skip(),
			Limit:        pager.Limit(),
		},
		GroupIDs:    page.GroupIDs,
		NotGroupIDs: page.NotGroupIDs,
	}
	ranked := s.Sortable && data.OneGroup
	if ranked {
		opts.Sort = groupstore.RankSort(page.GroupIDs[0])
	}
	data.Letters = Letters
	data.Letter = opts.Letter
	data.Search = opts.Search

	res, err := s.People.Get(ctx, nil, opts)
	if err != nil {
		return Outcome{}, err
	}
	for i := range res.Items {
		res.Items[i].URL = PersonURL(page, res.Items[i])
	}
	pager.Total = res.Total
	data.Pager = pager
	data.People = res.Items

	if IsXHR(req.HTTP) {
		if len(res.Items) == 0 {
			// Tells the infinite-scroll loader there are no more pages.
			return Outcome{NotFound: true}, nil
		}
		return Outcome{Template: TemplatePeopleAjax, Ajax: true, Data: data}, nil
	}
	return Outcome{Template: TemplatePeople, Data: data}, nil
}

func (s *Service) indexGroups(ctx context.Context, req Request) (Outcome, error) {
	page := req.Page
	data := s.baseData(req)

	res, err := s.Groups.Get(ctx, nil, groupstore.Options{
		GetOptions:   snippetstore.GetOptions{Editor: req.Editor},
		GroupIDs:     page.GroupIDs,
		NotGroupIDs:  page.NotGroupIDs,
		PeopleEditor: req.Editor,
	})
	if err != nil {
		return Outcome{}, err
	}
	for i := range res.Items {
		s.linkGroup(page, &res.Items[i])
	}
	data.Groups = res.Items
	return Outcome{Template: TemplateGroups, Data: data}, nil
}

func (s *Service) showPerson(ctx context.Context, req Request, slug string) (Outcome, error) {
	p, err := s.People.GetOne(ctx, bson.M{"slug": slug}, peoplestore.Options{
		GetOptions: snippetstore.GetOptions{Editor: req.Editor},
		GetGroups:  true,
	})
	if errors.Is(err, snippetstore.ErrNotFound) {
		return Outcome{NotFound: true}, nil
	}
	if err != nil {
		return Outcome{}, err
	}
	p.URL = PersonURL(req.Page, p)
	for i := range p.Groups {
		p.Groups[i].URL = GroupURL(req.Page, p.Groups[i])
	}

	data := s.baseData(req)
	data.Person = &p
	data.Body = template.HTML(p.Body)
	return Outcome{Template: TemplatePerson, Data: data}, nil
}

func (s *Service) showGroup(ctx context.Context, req Request, slug string) (Outcome, error) {
	g, err := s.Groups.GetOne(ctx, bson.M{"slug": slug}, groupstore.Options{
		GetOptions:   snippetstore.GetOptions{Editor: req.Editor},
		PeopleEditor: req.Editor,
	})
	if errors.Is(err, snippetstore.ErrNotFound) {
		return Outcome{NotFound: true}, nil
	}
	if err != nil {
		return Outcome{}, err
	}
	s.linkGroup(req.Page, &g)

	data := s.baseData(req)
	data.Group = &g
	data.Body = template.HTML(g.Body)
	return Outcome{Template: TemplateGroup, Data: data}, nil
}

func (s *Service) linkGroup(page models.DirectoryPage, g *models.Group) {
	g.URL = GroupURL(page, *g)
	for i := range g.People {
		g.People[i].URL = PersonURL(page, g.People[i])
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
