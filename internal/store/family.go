package store

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	"github.com/dukerupert/kerigma/internal/family"
	"github.com/dukerupert/kerigma/internal/model"
	"github.com/google/uuid"
)

// FamilyStore is the record store. Families are listed newest-first and
// interactions most-recent-first, both by insertion sequence.
type FamilyStore struct {
	db *sql.DB
}

func NewFamilyStore(db *sql.DB) *FamilyStore {
	return &FamilyStore{db: db}
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const familyCols = `id, name, leader, phone, address, department, status, created_on, photo_url, members_count, progress_stage`

func scanFamily(scanner interface{ Scan(...any) error }) (*model.Family, error) {
	var f model.Family
	err := scanner.Scan(
		&f.ID, &f.Name, &f.Leader, &f.Phone, &f.Address, &f.Department,
		&f.Status, &f.CreatedAt, &f.PhotoURL, &f.MembersCount, &f.ProgressStage,
	)
	if err != nil {
		return nil, err
	}
	f.Members = []model.Member{}
	f.Interactions = []model.Interaction{}
	return &f, nil
}

func scanMember(scanner interface{ Scan(...any) error }) (string, model.Member, error) {
	var familyID string
	var m model.Member
	var age sql.NullInt64
	if err := scanner.Scan(&familyID, &m.ID, &m.Name, &m.Role, &age); err != nil {
		return "", m, err
	}
	if age.Valid {
		a := int(age.Int64)
		m.Age = &a
	}
	return familyID, m, nil
}

func scanInteraction(scanner interface{ Scan(...any) error }) (string, model.Interaction, error) {
	var familyID string
	var i model.Interaction
	err := scanner.Scan(&familyID, &i.ID, &i.Date, &i.Note, &i.Author)
	return familyID, i, err
}

// Create inserts a family built by family.New and returns it as stored.
func (s *FamilyStore) Create(ctx context.Context, f *model.Family) (*model.Family, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := insertFamily(ctx, tx, f); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(ctx, f.ID)
}

// Import loads families given newest-first, preserving that order and the
// order of each family's interactions.
func (s *FamilyStore) Import(ctx context.Context, families []model.Family) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for i := len(families) - 1; i >= 0; i-- {
		f := withIDs(families[i])
		if !f.Status.Valid() {
			f.Status = model.StatusPending
		}
		if !f.ProgressStage.Valid() {
			return fmt.Errorf("import family %q: %w", f.ID, family.ErrInvalidStage)
		}
		if err := insertFamily(ctx, tx, &f); err != nil {
			return fmt.Errorf("import family %q: %w", f.ID, err)
		}
	}
	return tx.Commit()
}

// withIDs fills identifiers missing from imported data.
func withIDs(f model.Family) model.Family {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	f.Members = slices.Clone(f.Members)
	for i := range f.Members {
		if f.Members[i].ID == "" {
			f.Members[i].ID = uuid.NewString()
		}
	}
	f.Interactions = slices.Clone(f.Interactions)
	for i := range f.Interactions {
		if f.Interactions[i].ID == "" {
			f.Interactions[i].ID = uuid.NewString()
		}
	}
	return f
}

func insertFamily(ctx context.Context, q querier, f *model.Family) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO families (`+familyCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.Name, f.Leader, f.Phone, f.Address, f.Department,
		f.Status, f.CreatedAt, f.PhotoURL, f.MembersCount, f.ProgressStage,
	)
	if err != nil {
		return fmt.Errorf("insert family: %w", err)
	}
	if err := insertMembers(ctx, q, f.ID, f.Members); err != nil {
		return err
	}
	// Oldest first so the newest entry gets the highest sequence.
	for i := len(f.Interactions) - 1; i >= 0; i-- {
		if err := insertInteraction(ctx, q, f.ID, f.Interactions[i]); err != nil {
			return err
		}
	}
	return nil
}

func insertMembers(ctx context.Context, q querier, familyID string, members []model.Member) error {
	for pos, m := range members {
		var age sql.NullInt64
		if m.Age != nil {
			age = sql.NullInt64{Int64: int64(*m.Age), Valid: true}
		}
		if _, err := q.ExecContext(ctx,
			`INSERT INTO family_members (id, family_id, name, role, age, position) VALUES (?, ?, ?, ?, ?, ?)`,
			m.ID, familyID, m.Name, m.Role, age, pos,
		); err != nil {
			return fmt.Errorf("insert member %q: %w", m.Name, err)
		}
	}
	return nil
}

func insertInteraction(ctx context.Context, q querier, familyID string, i model.Interaction) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO interactions (id, family_id, occurred_on, note, author) VALUES (?, ?, ?, ?, ?)`,
		i.ID, familyID, i.Date, i.Note, i.Author,
	)
	if err != nil {
		return fmt.Errorf("insert interaction: %w", err)
	}
	return nil
}

// GetByID returns the family with its members and interactions, or nil.
func (s *FamilyStore) GetByID(ctx context.Context, id string) (*model.Family, error) {
	return getFamily(ctx, s.db, id)
}

func getFamily(ctx context.Context, q querier, id string) (*model.Family, error) {
	row := q.QueryRowContext(ctx, `SELECT `+familyCols+` FROM families WHERE id = ?`, id)
	f, err := scanFamily(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get family: %w", err)
	}

	rows, err := q.QueryContext(ctx,
		`SELECT family_id, id, name, role, age FROM family_members WHERE family_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	for rows.Next() {
		_, m, err := scanMember(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan member: %w", err)
		}
		f.Members = append(f.Members, m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("members rows: %w", err)
	}

	rows, err = q.QueryContext(ctx,
		`SELECT family_id, id, occurred_on, note, author FROM interactions WHERE family_id = ? ORDER BY seq DESC`, id)
	if err != nil {
		return nil, fmt.Errorf("query interactions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		_, i, err := scanInteraction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		f.Interactions = append(f.Interactions, i)
	}
	return f, rows.Err()
}

// List returns every family, newest first, fully loaded.
func (s *FamilyStore) List(ctx context.Context) ([]model.Family, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+familyCols+` FROM families ORDER BY seq DESC`)
	if err != nil {
		return nil, fmt.Errorf("list families: %w", err)
	}
	var families []model.Family
	index := map[string]int{}
	for rows.Next() {
		f, err := scanFamily(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan family: %w", err)
		}
		index[f.ID] = len(families)
		families = append(families, *f)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("families rows: %w", err)
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT family_id, id, name, role, age FROM family_members ORDER BY family_id, position`)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	for rows.Next() {
		familyID, m, err := scanMember(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan member: %w", err)
		}
		if i, ok := index[familyID]; ok {
			families[i].Members = append(families[i].Members, m)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("members rows: %w", err)
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT family_id, id, occurred_on, note, author FROM interactions ORDER BY seq DESC`)
	if err != nil {
		return nil, fmt.Errorf("list interactions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		familyID, inter, err := scanInteraction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		if i, ok := index[familyID]; ok {
			families[i].Interactions = append(families[i].Interactions, inter)
		}
	}
	return families, rows.Err()
}

// Update merges p into the family. It returns nil when no family has id.
func (s *FamilyStore) Update(ctx context.Context, id string, p family.Patch) (*model.Family, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	f, err := getFamily(ctx, tx, id)
	if err != nil || f == nil {
		return nil, err
	}
	if err := family.ApplyPatch(f, p); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE families SET name = ?, leader = ?, phone = ?, address = ?, department = ?, status = ?, photo_url = ?, members_count = ? WHERE id = ?`,
		f.Name, f.Leader, f.Phone, f.Address, f.Department, f.Status, f.PhotoURL, f.MembersCount, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update family: %w", err)
	}

	if p.Members != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM family_members WHERE family_id = ?`, id); err != nil {
			return nil, fmt.Errorf("clear members: %w", err)
		}
		if err := insertMembers(ctx, tx, id, f.Members); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return f, nil
}

// Delete removes the family with its members and interactions. It reports
// whether a family was removed.
func (s *FamilyStore) Delete(ctx context.Context, id string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM families WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete family: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// AdvanceStage moves the family to stage. Out-of-range stages are rejected
// with family.ErrInvalidStage.
func (s *FamilyStore) AdvanceStage(ctx context.Context, id string, stage model.Stage, today model.Date) (*model.Family, error) {
	if !stage.Valid() {
		return nil, family.ErrInvalidStage
	}
	return s.mutate(ctx, id, func(tx *sql.Tx, f *model.Family) error {
		return advance(ctx, tx, f, stage, today)
	})
}

// AdvanceNext moves the family one stage forward. A family already at
// Membro is returned unchanged.
func (s *FamilyStore) AdvanceNext(ctx context.Context, id string, today model.Date) (*model.Family, error) {
	return s.mutate(ctx, id, func(tx *sql.Tx, f *model.Family) error {
		next, ok := family.NextStage(f)
		if !ok {
			return nil
		}
		return advance(ctx, tx, f, next, today)
	})
}

func advance(ctx context.Context, tx *sql.Tx, f *model.Family, stage model.Stage, today model.Date) error {
	entry := family.AdvanceStage(f, stage, today)
	if _, err := tx.ExecContext(ctx,
		`UPDATE families SET progress_stage = ?, status = ? WHERE id = ?`,
		f.ProgressStage, f.Status, f.ID,
	); err != nil {
		return fmt.Errorf("update stage: %w", err)
	}
	return insertInteraction(ctx, tx, f.ID, entry)
}

// AddInteraction logs a note. Blank notes leave the family unchanged.
func (s *FamilyStore) AddInteraction(ctx context.Context, id, note, author string, today model.Date) (*model.Family, error) {
	return s.mutate(ctx, id, func(tx *sql.Tx, f *model.Family) error {
		entry, ok := family.AddInteraction(f, note, author, today)
		if !ok {
			return nil
		}
		return insertInteraction(ctx, tx, f.ID, entry)
	})
}

// DeleteInteraction removes one entry from the family's log and reports
// whether it existed. Unknown entry ids are a no-op.
func (s *FamilyStore) DeleteInteraction(ctx context.Context, familyID, interactionID string) (*model.Family, bool, error) {
	removed := false
	f, err := s.mutate(ctx, familyID, func(tx *sql.Tx, f *model.Family) error {
		if !family.DeleteInteraction(f, interactionID) {
			return nil
		}
		removed = true
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM interactions WHERE family_id = ? AND id = ?`, familyID, interactionID,
		); err != nil {
			return fmt.Errorf("delete interaction: %w", err)
		}
		return nil
	})
	if err != nil || f == nil {
		return nil, false, err
	}
	return f, removed, nil
}

// mutate loads the family inside a transaction, applies fn and commits.
// It returns nil when no family has id.
func (s *FamilyStore) mutate(ctx context.Context, id string, fn func(*sql.Tx, *model.Family) error) (*model.Family, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	f, err := getFamily(ctx, tx, id)
	if err != nil || f == nil {
		return nil, err
	}
	if err := fn(tx, f); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return f, nil
}
