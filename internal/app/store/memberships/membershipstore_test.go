package membershipstore_test

import (
	"testing"

	membershipstore "github.com/dalemusser/directory/internal/app/store/memberships"
	peoplestore "github.com/dalemusser/directory/internal/app/store/people"
	"github.com/dalemusser/directory/internal/domain/models"
	"github.com/dalemusser/directory/internal/testutil"
	"github.com/google/go-cmp/cmp"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func info(id primitive.ObjectID, extras models.Extras) models.PersonInfo {
	return models.PersonInfo{Value: id.Hex(), Extras: extras}
}

func TestPlan_StepOrder(t *testing.T) {
	gid := primitive.NewObjectID()
	a, b := primitive.NewObjectID(), primitive.NewObjectID()

	ops := membershipstore.Plan(gid, []models.PersonInfo{info(a, nil), info(b, nil)}, false)

	var steps []membershipstore.Step
	for _, op := range ops {
		steps = append(steps, op.Step)
	}
	want := []membershipstore.Step{
		membershipstore.StepLink,
		membershipstore.StepSetExtras,
		membershipstore.StepSetExtras,
		membershipstore.StepUnlink,
		membershipstore.StepUnsetExtras,
	}
	if diff := cmp.Diff(want, steps); diff != "" {
		t.Errorf("step order mismatch (-want +got):\n%s", diff)
	}
}

func TestPlan_RanksFollowSubmissionOrder(t *testing.T) {
	gid := primitive.NewObjectID()
	p1, p2, p3 := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()

	ops := membershipstore.Plan(gid, []models.PersonInfo{
		info(p3, models.Extras{"jobTitle": "Chair", "value": "leaked"}),
		info(p1, nil),
		info(p2, nil),
	}, true)

	key := "groupExtras." + gid.Hex()
	got := map[primitive.ObjectID]models.Extras{}
	for _, op := range ops {
		if op.Step != membershipstore.StepSetExtras {
			continue
		}
		id := op.Filter["_id"].(primitive.ObjectID)
		got[id] = op.Update["$set"].(bson.M)[key].(models.Extras)
	}

	want := map[primitive.ObjectID]models.Extras{
		p3: {"jobTitle": "Chair", "rank": 0},
		p1: {"rank": 1},
		p2: {"rank": 2},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("extras mismatch (-want +got):\n%s", diff)
	}
}

func TestPlan_DropsInvalidAndDuplicateRows(t *testing.T) {
	gid := primitive.NewObjectID()
	a := primitive.NewObjectID()

	ops := membershipstore.Plan(gid, []models.PersonInfo{
		{Value: "not-an-id"},
		info(a, models.Extras{"jobTitle": "First"}),
		info(a, models.Extras{"jobTitle": "Second"}),
	}, true)

	var set []membershipstore.Op
	for _, op := range ops {
		if op.Step == membershipstore.StepSetExtras {
			set = append(set, op)
		}
	}
	if len(set) != 1 {
		t.Fatalf("expected 1 set-extras op, got %d", len(set))
	}
	extras := set[0].Update["$set"].(bson.M)["groupExtras."+gid.Hex()].(models.Extras)
	if extras.JobTitle() != "First" {
		t.Errorf("expected first row to win, got %v", extras)
	}
	if rank, _ := extras.Rank(); rank != 0 {
		t.Errorf("expected rank 0, got %d", rank)
	}

	link := ops[0].Filter["_id"].(bson.M)["$in"].([]primitive.ObjectID)
	if diff := cmp.Diff([]primitive.ObjectID{a}, link); diff != "" {
		t.Errorf("link ids mismatch (-want +got):\n%s", diff)
	}
}

func TestPlan_EmptySelectionUnlinksEveryone(t *testing.T) {
	gid := primitive.NewObjectID()
	ops := membershipstore.Plan(gid, nil, false)

	if len(ops) != 3 {
		t.Fatalf("expected link + unlink + unset, got %d ops", len(ops))
	}
	nin := ops[1].Filter["_id"].(bson.M)["$nin"].([]primitive.ObjectID)
	if len(nin) != 0 {
		t.Errorf("expected empty $nin, got %v", nin)
	}
	if ops[1].Filter["type"] != models.TypePerson {
		t.Errorf("unlink must be scoped to people, got filter %v", ops[1].Filter)
	}
}

func TestStore_Sync_ReplacesSelection(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := membershipstore.New(db, zap.NewNop(), false)
	people := peoplestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g := fixtures.CreateGroup(ctx, "Flossers", true)
	other := fixtures.CreateGroup(ctx, "Brushers", true)
	a := fixtures.CreatePerson(ctx, "Person A", true, other.ID)
	b := fixtures.CreatePerson(ctx, "Person B", true)
	c := fixtures.CreatePerson(ctx, "Person C", true)

	err := store.Sync(ctx, g.ID, []models.PersonInfo{
		info(a.ID, models.Extras{"jobTitle": "Lead"}),
		info(b.ID, models.Extras{"jobTitle": "Helper"}),
	})
	if err != nil {
		t.Fatalf("first Sync failed: %v", err)
	}

	err = store.Sync(ctx, g.ID, []models.PersonInfo{
		info(b.ID, models.Extras{"jobTitle": "Head Flosser"}),
		info(c.ID, models.Extras{"jobTitle": "Apprentice"}),
	})
	if err != nil {
		t.Fatalf("second Sync failed: %v", err)
	}

	gotA, err := people.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID(A) failed: %v", err)
	}
	if gotA.InGroup(g.ID) {
		t.Error("A should no longer be linked")
	}
	if gotA.ExtrasFor(g.ID) != nil {
		t.Errorf("A should have no extras for the group, got %v", gotA.ExtrasFor(g.ID))
	}
	if !gotA.InGroup(other.ID) {
		t.Error("A's other membership must be untouched")
	}

	gotB, err := people.GetByID(ctx, b.ID)
	if err != nil {
		t.Fatalf("GetByID(B) failed: %v", err)
	}
	if !gotB.InGroup(g.ID) || gotB.ExtrasFor(g.ID).JobTitle() != "Head Flosser" {
		t.Errorf("B should be linked with updated extras, got ids %v extras %v", gotB.GroupIDs, gotB.ExtrasFor(g.ID))
	}
	if len(gotB.GroupIDs) != 1 {
		t.Errorf("B should be linked once, got %v", gotB.GroupIDs)
	}

	gotC, err := people.GetByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetByID(C) failed: %v", err)
	}
	if !gotC.InGroup(g.ID) || gotC.ExtrasFor(g.ID).JobTitle() != "Apprentice" {
		t.Errorf("C should be newly linked, got ids %v extras %v", gotC.GroupIDs, gotC.ExtrasFor(g.ID))
	}
}

func TestStore_Sync_StoresRanks(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := membershipstore.New(db, zap.NewNop(), true)
	people := peoplestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g := fixtures.CreateGroup(ctx, "Board", true)
	p1 := fixtures.CreatePerson(ctx, "P One", true)
	p2 := fixtures.CreatePerson(ctx, "P Two", true)
	p3 := fixtures.CreatePerson(ctx, "P Three", true)

	if err := store.Sync(ctx, g.ID, []models.PersonInfo{info(p3.ID, nil), info(p1.ID, nil), info(p2.ID, nil)}); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	for want, id := range []primitive.ObjectID{p3.ID, p1.ID, p2.ID} {
		p, err := people.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		rank, ok := p.ExtrasFor(g.ID).Rank()
		if !ok || rank != want {
			t.Errorf("%s: rank = %d (ok=%v), want %d", p.Title, rank, ok, want)
		}
	}
}

func TestStore_Unlink(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := membershipstore.New(db, zap.NewNop(), false)
	people := peoplestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g := fixtures.CreateGroup(ctx, "Doomed", true)
	p := fixtures.CreatePerson(ctx, "Member", true)
	if err := store.Sync(ctx, g.ID, []models.PersonInfo{info(p.ID, models.Extras{"jobTitle": "x"})}); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if err := store.Unlink(ctx, g.ID); err != nil {
		t.Fatalf("Unlink failed: %v", err)
	}

	got, err := people.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.InGroup(g.ID) || got.ExtrasFor(g.ID) != nil {
		t.Errorf("expected no link after Unlink, got ids %v extras %v", got.GroupIDs, got.GroupExtras)
	}
}
