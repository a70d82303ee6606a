package model

type Status string

const (
	StatusActive   Status = "Ativo"
	StatusPending  Status = "Pendente"
	StatusInactive Status = "Inativo"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusPending, StatusInactive:
		return true
	}
	return false
}

// Stage is a step of the integration pipeline.
type Stage int

const (
	StageVisit Stage = iota
	StageDiscipleship
	StageBaptism
	StageMember
)

var stageLabels = [...]string{"Visita", "Discipulado", "Batismo", "Membro"}

func (s Stage) Valid() bool {
	return s >= StageVisit && s <= StageMember
}

func (s Stage) Label() string {
	if !s.Valid() {
		return ""
	}
	return stageLabels[s]
}

type Member struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
	Age  *int   `json:"age,omitempty"`
}

// Interaction is one pastoral contact logged against a family.
type Interaction struct {
	ID     string `json:"id"`
	Date   Date   `json:"date"`
	Note   string `json:"note"`
	Author string `json:"author"`
}

// Family is a household tracked through the integration pipeline.
// Interactions are kept most-recent-first by insertion.
type Family struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Leader        string        `json:"leader"`
	Phone         string        `json:"phone"`
	Address       string        `json:"address"`
	Department    string        `json:"department"`
	Status        Status        `json:"status"`
	CreatedAt     Date          `json:"created_at"`
	PhotoURL      string        `json:"photo_url,omitempty"`
	MembersCount  int           `json:"members_count"`
	Members       []Member      `json:"members"`
	ProgressStage Stage         `json:"progress_stage"`
	Interactions  []Interaction `json:"interactions"`
}
