package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/dukerupert/kerigma/internal/database"
	"github.com/dukerupert/kerigma/internal/family"
	"github.com/dukerupert/kerigma/internal/model"
)

var today = model.Date{Year: 2024, Month: time.March, Day: 10}

func setupFamilyTestDB(t *testing.T) *FamilyStore {
	t.Helper()
	db, err := database.Open(database.InMemory)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewFamilyStore(db)
}

func createFamily(t *testing.T, fs *FamilyStore, name string) *model.Family {
	t.Helper()
	age := 42
	f, err := family.New(family.NewFamily{
		Name:       name,
		Leader:     "Líder " + name,
		Department: "social",
		Members: []model.Member{
			{Name: "Pai", Role: "Pai (Líder)", Age: &age},
			{Name: "Filho", Role: "Filho"},
		},
	}, today)
	if err != nil {
		t.Fatalf("new family: %v", err)
	}
	created, err := fs.Create(context.Background(), f)
	if err != nil {
		t.Fatalf("create family: %v", err)
	}
	return created
}

func TestFamilyCreate(t *testing.T) {
	fs := setupFamilyTestDB(t)

	f := createFamily(t, fs, "Família Silva")

	if f.Name != "Família Silva" {
		t.Errorf("name = %q, want %q", f.Name, "Família Silva")
	}
	if f.Status != model.StatusPending {
		t.Errorf("status = %q, want %q", f.Status, model.StatusPending)
	}
	if f.CreatedAt != today {
		t.Errorf("created_at = %v, want %v", f.CreatedAt, today)
	}
	if len(f.Members) != 2 {
		t.Fatalf("members = %d, want 2", len(f.Members))
	}
	if f.Members[0].Name != "Pai" || f.Members[0].Age == nil || *f.Members[0].Age != 42 {
		t.Errorf("members[0] = %+v", f.Members[0])
	}
	if f.Members[1].Age != nil {
		t.Errorf("members[1].age = %v, want nil", *f.Members[1].Age)
	}
	if len(f.Interactions) != 1 {
		t.Fatalf("interactions = %d, want 1", len(f.Interactions))
	}
	if f.Interactions[0].Date != today {
		t.Errorf("interaction date = %v, want %v", f.Interactions[0].Date, today)
	}
}

func TestFamilyListNewestFirst(t *testing.T) {
	fs := setupFamilyTestDB(t)
	ctx := context.Background()

	createFamily(t, fs, "Primeira")
	createFamily(t, fs, "Segunda")
	createFamily(t, fs, "Terceira")

	families, err := fs.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"Terceira", "Segunda", "Primeira"}
	if len(families) != len(want) {
		t.Fatalf("families = %d, want %d", len(families), len(want))
	}
	for i, name := range want {
		if families[i].Name != name {
			t.Errorf("families[%d] = %q, want %q", i, families[i].Name, name)
		}
		if len(families[i].Members) != 2 {
			t.Errorf("families[%d] members = %d, want 2", i, len(families[i].Members))
		}
		if len(families[i].Interactions) != 1 {
			t.Errorf("families[%d] interactions = %d, want 1", i, len(families[i].Interactions))
		}
	}
}

func TestFamilyGetByIDNotFound(t *testing.T) {
	fs := setupFamilyTestDB(t)

	got, err := fs.GetByID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Error("expected nil for missing family")
	}
}

func TestFamilyUpdatePhoneOnly(t *testing.T) {
	fs := setupFamilyTestDB(t)
	ctx := context.Background()
	f := createFamily(t, fs, "Família Santos")

	phone := "(11) 97777-6666"
	updated, err := fs.Update(ctx, f.ID, family.Patch{Phone: &phone})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Phone != phone {
		t.Errorf("phone = %q, want %q", updated.Phone, phone)
	}

	got, err := fs.GetByID(ctx, f.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != f.ID || got.Name != f.Name {
		t.Errorf("identity changed: %q %q", got.ID, got.Name)
	}
	if got.Phone != phone {
		t.Errorf("stored phone = %q, want %q", got.Phone, phone)
	}
	if len(got.Members) != len(f.Members) {
		t.Errorf("members = %d, want %d", len(got.Members), len(f.Members))
	}
	for i := range f.Members {
		if got.Members[i].ID != f.Members[i].ID {
			t.Errorf("members[%d] id changed", i)
		}
	}
	if len(got.Interactions) != len(f.Interactions) || got.Interactions[0].ID != f.Interactions[0].ID {
		t.Error("interactions changed")
	}
}

func TestFamilyUpdateMembersAndStatus(t *testing.T) {
	fs := setupFamilyTestDB(t)
	ctx := context.Background()
	f := createFamily(t, fs, "Família Almeida")

	members := []model.Member{{Name: "Ricardo", Role: "Pai (Líder)"}}
	status := model.StatusInactive
	if _, err := fs.Update(ctx, f.ID, family.Patch{Members: &members, Status: &status}); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, _ := fs.GetByID(ctx, f.ID)
	if len(got.Members) != 1 || got.Members[0].Name != "Ricardo" {
		t.Errorf("members = %+v", got.Members)
	}
	if got.Status != model.StatusInactive {
		t.Errorf("status = %q, want %q", got.Status, model.StatusInactive)
	}

	bad := model.Status("x")
	if _, err := fs.Update(ctx, f.ID, family.Patch{Status: &bad}); !errors.Is(err, family.ErrInvalidStatus) {
		t.Errorf("err = %v, want ErrInvalidStatus", err)
	}
}

func TestFamilyUpdateRejectsNegativeMembersCount(t *testing.T) {
	fs := setupFamilyTestDB(t)
	ctx := context.Background()
	f := createFamily(t, fs, "Família Santos")

	count := -3
	if _, err := fs.Update(ctx, f.ID, family.Patch{MembersCount: &count}); !errors.Is(err, family.ErrInvalidCount) {
		t.Fatalf("err = %v, want ErrInvalidCount", err)
	}

	got, _ := fs.GetByID(ctx, f.ID)
	if got.MembersCount != f.MembersCount {
		t.Errorf("members_count = %d, want %d", got.MembersCount, f.MembersCount)
	}
}

func TestFamilyUpdateNotFound(t *testing.T) {
	fs := setupFamilyTestDB(t)
	name := "x"
	got, err := fs.Update(context.Background(), "missing", family.Patch{Name: &name})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got != nil {
		t.Error("expected nil for missing family")
	}
}

func TestFamilyDeleteIsPermanent(t *testing.T) {
	fs := setupFamilyTestDB(t)
	ctx := context.Background()
	f := createFamily(t, fs, "Família Silva")
	if _, err := fs.AddInteraction(ctx, f.ID, "Visita", "Pr. Carlos", today); err != nil {
		t.Fatalf("add interaction: %v", err)
	}

	deleted, err := fs.Delete(ctx, f.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !deleted {
		t.Error("expected delete to report removal")
	}

	got, err := fs.GetByID(ctx, f.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Error("expected nil after delete")
	}

	var n int
	if err := fs.db.QueryRow(`SELECT COUNT(*) FROM interactions WHERE family_id = ?`, f.ID).Scan(&n); err != nil {
		t.Fatalf("count interactions: %v", err)
	}
	if n != 0 {
		t.Errorf("interactions left = %d, want 0", n)
	}
	if err := fs.db.QueryRow(`SELECT COUNT(*) FROM family_members WHERE family_id = ?`, f.ID).Scan(&n); err != nil {
		t.Fatalf("count members: %v", err)
	}
	if n != 0 {
		t.Errorf("members left = %d, want 0", n)
	}

	deleted, err = fs.Delete(ctx, f.ID)
	if err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if deleted {
		t.Error("second delete should report nothing removed")
	}
}

func TestFamilyAdvanceStage(t *testing.T) {
	fs := setupFamilyTestDB(t)
	ctx := context.Background()
	f := createFamily(t, fs, "Família Silva")

	got, err := fs.AdvanceStage(ctx, f.ID, model.StageMember, today)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if got.Status != model.StatusActive || got.ProgressStage != model.StageMember {
		t.Errorf("status/stage = %q/%d", got.Status, got.ProgressStage)
	}

	got, err = fs.AdvanceStage(ctx, f.ID, model.StageDiscipleship, today)
	if err != nil {
		t.Fatalf("advance back: %v", err)
	}

	stored, _ := fs.GetByID(ctx, f.ID)
	if stored.ProgressStage != model.StageDiscipleship {
		t.Errorf("stage = %d, want 1", stored.ProgressStage)
	}
	if stored.Status != model.StatusActive {
		t.Errorf("status = %q, want %q", stored.Status, model.StatusActive)
	}
	if len(stored.Interactions) != 3 {
		t.Fatalf("interactions = %d, want 3", len(stored.Interactions))
	}
	if stored.Interactions[0].Note != "Estágio atualizado para: Discipulado" {
		t.Errorf("first note = %q", stored.Interactions[0].Note)
	}
	if stored.Interactions[1].Note != "Estágio atualizado para: Membro" {
		t.Errorf("second note = %q", stored.Interactions[1].Note)
	}
	if stored.Interactions[0].ID != got.Interactions[0].ID {
		t.Error("returned family does not match stored log")
	}
}

func TestFamilyAdvanceStageInvalid(t *testing.T) {
	fs := setupFamilyTestDB(t)
	f := createFamily(t, fs, "Família Silva")

	for _, s := range []model.Stage{-1, 4} {
		if _, err := fs.AdvanceStage(context.Background(), f.ID, s, today); !errors.Is(err, family.ErrInvalidStage) {
			t.Errorf("stage %d: err = %v, want ErrInvalidStage", s, err)
		}
	}
}

func TestFamilyAdvanceNext(t *testing.T) {
	fs := setupFamilyTestDB(t)
	ctx := context.Background()
	f := createFamily(t, fs, "Família Silva")

	for want := model.StageDiscipleship; want <= model.StageMember; want++ {
		got, err := fs.AdvanceNext(ctx, f.ID, today)
		if err != nil {
			t.Fatalf("advance next: %v", err)
		}
		if got.ProgressStage != want {
			t.Errorf("stage = %d, want %d", got.ProgressStage, want)
		}
	}

	got, err := fs.AdvanceNext(ctx, f.ID, today)
	if err != nil {
		t.Fatalf("advance past member: %v", err)
	}
	if got.ProgressStage != model.StageMember || len(got.Interactions) != 4 {
		t.Errorf("stage/interactions = %d/%d, want 3/4", got.ProgressStage, len(got.Interactions))
	}
}

func TestFamilyInteractions(t *testing.T) {
	fs := setupFamilyTestDB(t)
	ctx := context.Background()
	f := createFamily(t, fs, "Família Silva")

	got, err := fs.AddInteraction(ctx, f.ID, "   ", "Pr. Carlos", today)
	if err != nil {
		t.Fatalf("add blank: %v", err)
	}
	if len(got.Interactions) != 1 {
		t.Errorf("blank note changed log: %d entries", len(got.Interactions))
	}

	backdated := model.Date{Year: 2020, Month: time.January, Day: 1}
	got, err = fs.AddInteraction(ctx, f.ID, "Visita atrasada", "Pr. Carlos", backdated)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	entryID := got.Interactions[0].ID

	stored, _ := fs.GetByID(ctx, f.ID)
	if stored.Interactions[0].Note != "Visita atrasada" {
		t.Errorf("first entry = %q, want the last inserted", stored.Interactions[0].Note)
	}

	got, removed, err := fs.DeleteInteraction(ctx, f.ID, "unknown")
	if err != nil {
		t.Fatalf("delete unknown: %v", err)
	}
	if removed {
		t.Error("unknown entry reported as removed")
	}
	if len(got.Interactions) != 2 {
		t.Errorf("unknown delete changed log: %d entries", len(got.Interactions))
	}

	got, removed, err = fs.DeleteInteraction(ctx, f.ID, entryID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !removed {
		t.Error("existing entry not reported as removed")
	}
	if len(got.Interactions) != 1 {
		t.Errorf("interactions = %d, want 1", len(got.Interactions))
	}
	stored, _ = fs.GetByID(ctx, f.ID)
	if len(stored.Interactions) != 1 {
		t.Errorf("stored interactions = %d, want 1", len(stored.Interactions))
	}
}

func TestFamilyMutationsOnMissingFamily(t *testing.T) {
	fs := setupFamilyTestDB(t)
	ctx := context.Background()

	if got, err := fs.AdvanceStage(ctx, "missing", model.StageBaptism, today); err != nil || got != nil {
		t.Errorf("advance = %v, %v; want nil, nil", got, err)
	}
	if got, err := fs.AddInteraction(ctx, "missing", "nota", "a", today); err != nil || got != nil {
		t.Errorf("add = %v, %v; want nil, nil", got, err)
	}
	if got, removed, err := fs.DeleteInteraction(ctx, "missing", "x"); err != nil || got != nil || removed {
		t.Errorf("delete = %v, %v, %v; want nil, false, nil", got, removed, err)
	}
}

func TestFamilyImportPreservesOrder(t *testing.T) {
	fs := setupFamilyTestDB(t)
	ctx := context.Background()

	seed := []model.Family{
		{
			ID: "1", Name: "Família Silva", Status: model.StatusActive, ProgressStage: model.StageMember,
			CreatedAt: model.Date{Year: 2023, Month: time.October, Day: 12},
			Interactions: []model.Interaction{
				{ID: "i1", Note: "Primeira visita realizada."},
				{ID: "i2", Note: "Concluiu o discipulado."},
			},
		},
		{ID: "2", Name: "Família Santos", Status: model.StatusPending},
		{Name: "Sem id", Status: "desconhecido"},
	}
	if err := fs.Import(ctx, seed); err != nil {
		t.Fatalf("import: %v", err)
	}

	families, err := fs.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(families) != 3 {
		t.Fatalf("families = %d, want 3", len(families))
	}
	if families[0].ID != "1" || families[1].ID != "2" {
		t.Errorf("order = %q, %q; want 1, 2", families[0].ID, families[1].ID)
	}
	if families[2].ID == "" {
		t.Error("expected generated id")
	}
	if families[2].Status != model.StatusPending {
		t.Errorf("status = %q, want %q", families[2].Status, model.StatusPending)
	}
	inter := families[0].Interactions
	if len(inter) != 2 || inter[0].ID != "i1" || inter[1].ID != "i2" {
		t.Errorf("interactions = %+v", inter)
	}

	// A new registration goes in front of the seed.
	createFamily(t, fs, "Nova")
	families, _ = fs.List(ctx)
	if families[0].Name != "Nova" {
		t.Errorf("first = %q, want %q", families[0].Name, "Nova")
	}
}

func TestFamilyImportImpossibleDateDoesNotBreakList(t *testing.T) {
	fs := setupFamilyTestDB(t)
	ctx := context.Background()

	var decoded model.Family
	if err := json.Unmarshal([]byte(`{"id":"a","name":"Família Lima","status":"Pendente","created_at":"31/02/2024"}`), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	direct := model.Family{
		ID: "b", Name: "Família Rocha", Status: model.StatusPending,
		Interactions: []model.Interaction{
			{ID: "x1", Date: model.Date{Year: 2024, Month: time.April, Day: 31}, Note: "Visita"},
		},
	}
	if err := fs.Import(ctx, []model.Family{decoded, direct}); err != nil {
		t.Fatalf("import: %v", err)
	}

	families, err := fs.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(families) != 2 {
		t.Fatalf("families = %d, want 2", len(families))
	}
	if !families[0].CreatedAt.IsZero() {
		t.Errorf("created_at = %+v, want zero", families[0].CreatedAt)
	}
	if len(families[1].Interactions) != 1 || !families[1].Interactions[0].Date.IsZero() {
		t.Errorf("interactions = %+v", families[1].Interactions)
	}
}
