// Package family holds the rules that govern a family record: how a new
// record is built, how edits merge into it, how it moves through the
// integration stages and how its interaction log changes.
package family

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dukerupert/kerigma/internal/model"
	"github.com/google/uuid"
)

const (
	DefaultName       = "Nova Família"
	DefaultLeader     = "N/A"
	DefaultDepartment = "familia"
	DefaultMemberRole = "Membro"
	SystemAuthor      = "Sistema"
)

var (
	ErrInvalidStage  = errors.New("stage must be between 0 and 3")
	ErrInvalidStatus = errors.New("status must be Ativo, Pendente, or Inativo")
	ErrInvalidAge    = errors.New("age must not be negative")
	ErrInvalidCount  = errors.New("members_count must not be negative")
)

// NewFamily carries the fields a registration may supply. Empty strings
// and a zero MembersCount mean "not supplied".
type NewFamily struct {
	Name         string         `json:"name"`
	Leader       string         `json:"leader"`
	Phone        string         `json:"phone"`
	Address      string         `json:"address"`
	Department   string         `json:"department"`
	PhotoURL     string         `json:"photo_url"`
	MembersCount int            `json:"members_count"`
	Members      []model.Member `json:"members"`
}

// New builds a registered family: stage Visita, status Pendente, created
// today, with one system entry naming the intake department.
func New(in NewFamily, today model.Date) (*model.Family, error) {
	members, err := normalizeMembers(in.Members)
	if err != nil {
		return nil, err
	}

	f := &model.Family{
		ID:            uuid.NewString(),
		Name:          orDefault(in.Name, DefaultName),
		Leader:        orDefault(in.Leader, DefaultLeader),
		Phone:         strings.TrimSpace(in.Phone),
		Address:       strings.TrimSpace(in.Address),
		Department:    orDefault(in.Department, DefaultDepartment),
		Status:        model.StatusPending,
		CreatedAt:     today,
		PhotoURL:      strings.TrimSpace(in.PhotoURL),
		MembersCount:  in.MembersCount,
		Members:       members,
		ProgressStage: model.StageVisit,
	}
	if f.MembersCount <= 0 {
		f.MembersCount = max(len(members), 1)
	}

	f.Interactions = []model.Interaction{{
		ID:     uuid.NewString(),
		Date:   today,
		Note:   fmt.Sprintf("Cadastro inicial: Departamento %s.", strings.ToUpper(f.Department)),
		Author: SystemAuthor,
	}}
	return f, nil
}

// Patch is an edit; nil fields are left unchanged.
type Patch struct {
	Name         *string         `json:"name"`
	Leader       *string         `json:"leader"`
	Phone        *string         `json:"phone"`
	Address      *string         `json:"address"`
	Department   *string         `json:"department"`
	Status       *model.Status   `json:"status"`
	PhotoURL     *string         `json:"photo_url"`
	MembersCount *int            `json:"members_count"`
	Members      *[]model.Member `json:"members"`
}

// ApplyPatch merges p into f. The id, stage, creation date and interaction
// log are never touched by an edit.
func ApplyPatch(f *model.Family, p Patch) error {
	if p.Status != nil && !p.Status.Valid() {
		return ErrInvalidStatus
	}
	if p.MembersCount != nil && *p.MembersCount < 0 {
		return ErrInvalidCount
	}
	var members []model.Member
	if p.Members != nil {
		var err error
		if members, err = normalizeMembers(*p.Members); err != nil {
			return err
		}
	}

	setString(&f.Name, p.Name)
	setString(&f.Leader, p.Leader)
	setString(&f.Phone, p.Phone)
	setString(&f.Address, p.Address)
	setString(&f.Department, p.Department)
	setString(&f.PhotoURL, p.PhotoURL)
	if p.Status != nil {
		f.Status = *p.Status
	}
	if p.Members != nil {
		f.Members = members
	}
	if p.MembersCount != nil {
		f.MembersCount = *p.MembersCount
	}
	return nil
}

func normalizeMembers(in []model.Member) ([]model.Member, error) {
	out := make([]model.Member, 0, len(in))
	for _, m := range in {
		if m.Age != nil && *m.Age < 0 {
			return nil, ErrInvalidAge
		}
		m.Name = strings.TrimSpace(m.Name)
		if m.Name == "" {
			continue
		}
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		m.Role = orDefault(m.Role, DefaultMemberRole)
		out = append(out, m)
	}
	return out, nil
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}
