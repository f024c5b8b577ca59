package snippetstore_test

import (
	"testing"

	snippetstore "github.com/dalemusser/directory/internal/app/store/snippets"
	"github.com/dalemusser/directory/internal/domain/models"
	"github.com/dalemusser/directory/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
)

func newPeople(t *testing.T) (*snippetstore.Store[models.Person, *models.Person], *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return snippetstore.New[models.Person](db, models.TypePerson), testutil.NewFixtures(t, db)
}

func titles(people []models.Person) []string {
	out := make([]string, len(people))
	for i, p := range people {
		out[i] = p.Title
	}
	return out
}

func TestStore_Insert_GeneratesUniqueSlugs(t *testing.T) {
	store, _ := newPeople(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	first := &models.Person{}
	first.Title = "Bob Smith"
	if err := store.Insert(ctx, first); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	second := &models.Person{}
	second.Title = "Bob  Smith!"
	if err := store.Insert(ctx, second); err != nil {
		t.Fatalf("second Insert failed: %v", err)
	}

	if first.Slug != "bob-smith" {
		t.Errorf("first slug: got %q, want bob-smith", first.Slug)
	}
	if second.Slug != "bob-smith-2" {
		t.Errorf("second slug: got %q, want bob-smith-2", second.Slug)
	}
	if first.Type != models.TypePerson || first.TitleCI == "" || first.CreatedAt.IsZero() {
		t.Errorf("expected type, title_ci and timestamps to be set: %+v", first.Snippet)
	}
}

func TestStore_Insert_ExplicitSlugCollision(t *testing.T) {
	store, fixtures := newPeople(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// A group holding the slug blocks a person from taking it.
	fixtures.CreateGroup(ctx, "Board", true)

	p := &models.Person{}
	p.Title = "Someone"
	p.Slug = "board"
	if err := store.Insert(ctx, p); err != snippetstore.ErrDuplicateSlug {
		t.Errorf("expected ErrDuplicateSlug, got %v", err)
	}
}

func TestStore_Get_PublishedOnlyUnlessEditor(t *testing.T) {
	store, fixtures := newPeople(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreatePerson(ctx, "Alice Able", true)
	fixtures.CreatePerson(ctx, "Carl Cobb", false)
	fixtures.CreateGroup(ctx, "Alpha Group", true)

	res, err := store.Get(ctx, nil, snippetstore.GetOptions{})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].Title != "Alice Able" {
		t.Errorf("public Get: got %v", titles(res.Items))
	}

	res, err = store.Get(ctx, nil, snippetstore.GetOptions{Editor: true})
	if err != nil {
		t.Fatalf("editor Get failed: %v", err)
	}
	if len(res.Items) != 2 {
		t.Errorf("editor Get: got %v, want both people", titles(res.Items))
	}
}

func TestStore_Get_LetterSearchAndPaging(t *testing.T) {
	store, fixtures := newPeople(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for _, name := range []string{"Bob Smith", "Barb Jones", "Ann Smith", "Zed Zimmer", "Béla Kovács"} {
		fixtures.CreatePerson(ctx, name, true)
	}

	res, err := store.Get(ctx, nil, snippetstore.GetOptions{Letter: "b"})
	if err != nil {
		t.Fatalf("letter Get failed: %v", err)
	}
	if len(res.Items) != 3 {
		t.Errorf("letter b: got %v", titles(res.Items))
	}

	res, err = store.Get(ctx, nil, snippetstore.GetOptions{Search: "SMITH"})
	if err != nil {
		t.Fatalf("search Get failed: %v", err)
	}
	if len(res.Items) != 2 {
		t.Errorf("search smith: got %v", titles(res.Items))
	}

	res, err = store.Get(ctx, nil, snippetstore.GetOptions{Skip: 2, Limit: 2})
	if err != nil {
		t.Fatalf("paged Get failed: %v", err)
	}
	if len(res.Items) != 2 || res.Total != 5 {
		t.Errorf("paged: got %d items total %d, want 2 of 5", len(res.Items), res.Total)
	}
}

func TestStore_Get_AutocompleteIsCapped(t *testing.T) {
	store, fixtures := newPeople(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for i := 0; i < snippetstore.AutocompleteLimit+5; i++ {
		fixtures.CreatePerson(ctx, "Sam "+string(rune('A'+i)), true)
	}

	res, err := store.Get(ctx, nil, snippetstore.GetOptions{Autocomplete: "sa", Limit: 100})
	if err != nil {
		t.Fatalf("autocomplete Get failed: %v", err)
	}
	if len(res.Items) != snippetstore.AutocompleteLimit {
		t.Errorf("autocomplete: got %d rows, want %d", len(res.Items), snippetstore.AutocompleteLimit)
	}
}

func TestStore_GetOne_NotFound(t *testing.T) {
	store, fixtures := newPeople(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g := fixtures.CreateGroup(ctx, "Only A Group", true)
	// The slug exists but belongs to another type.
	if _, err := store.GetOne(ctx, bson.M{"slug": g.Slug}, snippetstore.GetOptions{}); err != snippetstore.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_Update_KeepsCreatedAtAndChecksSlug(t *testing.T) {
	store, fixtures := newPeople(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	other := fixtures.CreatePerson(ctx, "Taken Name", true)
	p := fixtures.CreatePerson(ctx, "Dana Doe", false)

	p.Title = "Dana Q. Doe"
	p.Published = true
	if err := store.Update(ctx, &p); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	got, err := store.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Title != "Dana Q. Doe" || !got.Published || got.Slug != "dana-doe" {
		t.Errorf("unexpected stored person: %+v", got.Snippet)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.Before(got.CreatedAt) {
		t.Error("expected CreatedAt to survive the update")
	}

	p.Slug = other.Slug
	if err := store.Update(ctx, &p); err != snippetstore.ErrDuplicateSlug {
		t.Errorf("expected ErrDuplicateSlug, got %v", err)
	}
}

func TestLookupType(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g := fixtures.CreateGroup(ctx, "Lookup Group", false)
	p := fixtures.CreatePerson(ctx, "Lookup Person", true)

	for slug, want := range map[string]string{g.Slug: models.TypeGroup, p.Slug: models.TypePerson} {
		got, err := snippetstore.LookupType(ctx, db, slug)
		if err != nil {
			t.Fatalf("LookupType(%q) failed: %v", slug, err)
		}
		if got != want {
			t.Errorf("LookupType(%q) = %q, want %q", slug, got, want)
		}
	}
	if _, err := snippetstore.LookupType(ctx, db, "missing"); err != snippetstore.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
