package groupstore_test

import (
	"testing"

	groupstore "github.com/dalemusser/directory/internal/app/store/groups"
	membershipstore "github.com/dalemusser/directory/internal/app/store/memberships"
	peoplestore "github.com/dalemusser/directory/internal/app/store/people"
	snippetstore "github.com/dalemusser/directory/internal/app/store/snippets"
	"github.com/dalemusser/directory/internal/domain/models"
	"github.com/dalemusser/directory/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newStores(t *testing.T, sortable bool) (*mongo.Database, *groupstore.Store, *membershipstore.Store, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	groups := groupstore.New(db, peoplestore.New(db), sortable)
	return db, groups, membershipstore.New(db, zap.NewNop(), sortable), testutil.NewFixtures(t, db)
}

func personTitles(people []models.Person) []string {
	out := make([]string, len(people))
	for i, p := range people {
		out[i] = p.Title
	}
	return out
}

func TestStore_Save_Create(t *testing.T) {
	_, store, _, _ := newStores(t, false)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g := &models.Group{}
	g.Title = "Test Group"
	if err := store.Save(ctx, g); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if g.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if g.TitleCI == "" || g.Slug != "test-group" {
		t.Errorf("expected folded title and slug, got %q / %q", g.TitleCI, g.Slug)
	}
	if g.Type != models.TypeGroup {
		t.Errorf("expected type group, got %q", g.Type)
	}
	if g.Permissions == nil {
		t.Error("expected Permissions to be an empty list, not nil")
	}
}

func TestStore_Get_JoinsPeople(t *testing.T) {
	_, store, _, fixtures := newStores(t, false)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := fixtures.CreateGroup(ctx, "Group A", true)
	b := fixtures.CreateGroup(ctx, "Group B", true)
	fixtures.CreatePerson(ctx, "Zoe", true, a.ID)
	fixtures.CreatePerson(ctx, "Amy", true, a.ID, b.ID)
	fixtures.CreatePerson(ctx, "Hidden", false, a.ID)

	res, err := store.Get(ctx, nil, groupstore.Options{})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(res.Items) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(res.Items))
	}
	got := map[string][]string{}
	for _, g := range res.Items {
		got[g.Title] = personTitles(g.People)
	}
	if len(got["Group A"]) != 2 || got["Group A"][0] != "Amy" || got["Group A"][1] != "Zoe" {
		t.Errorf("Group A people: got %v, want [Amy Zoe]", got["Group A"])
	}
	if len(got["Group B"]) != 1 {
		t.Errorf("Group B people: got %v, want [Amy]", got["Group B"])
	}
}

func TestStore_Get_SkipPeople(t *testing.T) {
	_, store, _, fixtures := newStores(t, false)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g := fixtures.CreateGroup(ctx, "Group", true)
	fixtures.CreatePerson(ctx, "Member", true, g.ID)

	res, err := store.Get(ctx, nil, groupstore.Options{SkipPeople: true})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].People != nil {
		t.Errorf("expected no join, got %+v", res.Items)
	}
}

func TestStore_Get_PageRestrictions(t *testing.T) {
	_, store, _, fixtures := newStores(t, false)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := fixtures.CreateGroup(ctx, "A", true)
	b := fixtures.CreateGroup(ctx, "B", true)
	fixtures.CreateGroup(ctx, "C", true)

	res, err := store.Get(ctx, nil, groupstore.Options{
		GroupIDs:    []primitive.ObjectID{a.ID, b.ID},
		NotGroupIDs: []primitive.ObjectID{b.ID},
		SkipPeople:  true,
	})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].ID != a.ID {
		t.Errorf("expected only A, got %+v", res.Items)
	}
}

func TestStore_GetOne_SortsByRankWhenSortable(t *testing.T) {
	_, store, members, fixtures := newStores(t, true)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g := fixtures.CreateGroup(ctx, "Ranked", true)
	p1 := fixtures.CreatePerson(ctx, "Aaron", true)
	p2 := fixtures.CreatePerson(ctx, "Betty", true)
	p3 := fixtures.CreatePerson(ctx, "Cyril", true)

	err := members.Sync(ctx, g.ID, []models.PersonInfo{
		{Value: p3.ID.Hex()}, {Value: p1.ID.Hex()}, {Value: p2.ID.Hex()},
	})
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	got, err := store.GetOne(ctx, map[string]interface{}{"_id": g.ID}, groupstore.Options{})
	if err != nil {
		t.Fatalf("GetOne failed: %v", err)
	}
	titles := personTitles(got.People)
	want := []string{"Cyril", "Aaron", "Betty"}
	if len(titles) != 3 || titles[0] != want[0] || titles[1] != want[1] || titles[2] != want[2] {
		t.Errorf("ranked order: got %v, want %v", titles, want)
	}
}

func TestRankSort_PagesShareOneOrder(t *testing.T) {
	db, _, members, fixtures := newStores(t, true)
	people := peoplestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g := fixtures.CreateGroup(ctx, "Ranked", true)
	p1 := fixtures.CreatePerson(ctx, "Aaron", true)
	p2 := fixtures.CreatePerson(ctx, "Betty", true)
	p3 := fixtures.CreatePerson(ctx, "Cyril", true)
	if err := members.Sync(ctx, g.ID, []models.PersonInfo{
		{Value: p3.ID.Hex()}, {Value: p1.ID.Hex()}, {Value: p2.ID.Hex()},
	}); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	// Linked outside the editor, so they carry no rank.
	fixtures.CreatePerson(ctx, "Dora", true, g.ID)
	fixtures.CreatePerson(ctx, "Edgar", true, g.ID)

	var got []string
	for skip := int64(0); skip < 5; skip += 2 {
		res, err := people.Get(ctx, nil, peoplestore.Options{
			GetOptions: snippetstore.GetOptions{Sort: groupstore.RankSort(g.ID), Skip: skip, Limit: 2},
			GroupIDs:   []primitive.ObjectID{g.ID},
		})
		if err != nil {
			t.Fatalf("Get(skip=%d) failed: %v", skip, err)
		}
		got = append(got, personTitles(res.Items)...)
	}

	want := []string{"Dora", "Edgar", "Cyril", "Aaron", "Betty"}
	if len(got) != len(want) {
		t.Fatalf("paged listing: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("paged listing: got %v, want %v", got, want)
		}
	}
}

func TestStore_EnsureExists(t *testing.T) {
	_, store, _, fixtures := newStores(t, false)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	existing := fixtures.CreateGroup(ctx, "Admins", false, "edit")

	g, created, err := store.EnsureExists(ctx, "admins", []string{"admin"})
	if err != nil {
		t.Fatalf("EnsureExists failed: %v", err)
	}
	if created || g.ID != existing.ID {
		t.Errorf("expected the existing group, got created=%v id=%s", created, g.ID.Hex())
	}
	if len(g.Permissions) != 1 || g.Permissions[0] != "edit" {
		t.Errorf("existing permissions must not change, got %v", g.Permissions)
	}

	g, created, err = store.EnsureExists(ctx, "Guests", []string{"guest"})
	if err != nil {
		t.Fatalf("EnsureExists (create) failed: %v", err)
	}
	if !created || g.ID.IsZero() || len(g.Permissions) != 1 || g.Permissions[0] != "guest" {
		t.Errorf("expected a new Guests group, got created=%v %+v", created, g)
	}
}

func TestStore_Delete(t *testing.T) {
	_, store, _, fixtures := newStores(t, false)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g := fixtures.CreateGroup(ctx, "Short Lived", true)
	n, err := store.Delete(ctx, g.ID)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 deleted, got %d", n)
	}
	if _, err := store.GetByID(ctx, g.ID); err != snippetstore.ErrNotFound {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}
