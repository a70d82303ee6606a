package seed

import (
	"context"
	"testing"
	"time"

	"github.com/dukerupert/kerigma/internal/database"
	"github.com/dukerupert/kerigma/internal/model"
	"github.com/dukerupert/kerigma/internal/store"
)

func TestFamilies(t *testing.T) {
	families, err := Families()
	if err != nil {
		t.Fatalf("families: %v", err)
	}
	if len(families) != 3 {
		t.Fatalf("families = %d, want 3", len(families))
	}

	silva := families[0]
	if silva.Name != "Família Silva" {
		t.Errorf("name = %q, want %q", silva.Name, "Família Silva")
	}
	if silva.ProgressStage != model.StageMember || silva.Status != model.StatusActive {
		t.Errorf("stage/status = %d/%q", silva.ProgressStage, silva.Status)
	}
	want := model.Date{Year: 2023, Month: time.October, Day: 12}
	if silva.CreatedAt != want {
		t.Errorf("created_at = %v, want %v", silva.CreatedAt, want)
	}
	if len(silva.Members) != 4 || silva.Members[2].Age == nil || *silva.Members[2].Age != 8 {
		t.Errorf("members = %+v", silva.Members)
	}
	if len(silva.Interactions) != 2 || silva.Interactions[0].ID != "i1" {
		t.Errorf("interactions = %+v", silva.Interactions)
	}

	if families[2].PhotoURL != "" {
		t.Errorf("photo_url = %q, want empty", families[2].PhotoURL)
	}
}

func TestLoad(t *testing.T) {
	db, err := database.Open(database.InMemory)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	fs := store.NewFamilyStore(db)

	n, err := Load(context.Background(), fs)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if n != 3 {
		t.Errorf("loaded = %d, want 3", n)
	}

	families, err := fs.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	got := make([]string, len(families))
	for i, f := range families {
		got[i] = f.ID
	}
	if len(got) != 3 || got[0] != "1" || got[1] != "2" || got[2] != "4" {
		t.Errorf("order = %v, want [1 2 4]", got)
	}
}
