package family

import (
	"math"
	"slices"
	"strings"

	"github.com/dukerupert/kerigma/internal/model"
	"github.com/google/uuid"
)

// AdvanceStage moves f to stage and prepends a system entry naming it.
// Any stage may follow any other. Reaching Membro makes the family Ativo;
// leaving Membro afterwards does not revert the status.
func AdvanceStage(f *model.Family, stage model.Stage, today model.Date) model.Interaction {
	stage = min(max(stage, model.StageVisit), model.StageMember)

	f.ProgressStage = stage
	if stage == model.StageMember {
		f.Status = model.StatusActive
	}

	entry := model.Interaction{
		ID:     uuid.NewString(),
		Date:   today,
		Note:   "Estágio atualizado para: " + stage.Label(),
		Author: SystemAuthor,
	}
	f.Interactions = slices.Insert(f.Interactions, 0, entry)
	return entry
}

// NextStage returns the stage after the current one. It reports false
// once the family is already a member.
func NextStage(f *model.Family) (model.Stage, bool) {
	if f.ProgressStage >= model.StageMember {
		return model.StageMember, false
	}
	return f.ProgressStage + 1, true
}

// AddInteraction prepends a note to the log. Blank notes are ignored and
// reported with false.
func AddInteraction(f *model.Family, note, author string, today model.Date) (model.Interaction, bool) {
	if strings.TrimSpace(note) == "" {
		return model.Interaction{}, false
	}
	entry := model.Interaction{
		ID:     uuid.NewString(),
		Date:   today,
		Note:   note,
		Author: author,
	}
	f.Interactions = slices.Insert(f.Interactions, 0, entry)
	return entry, true
}

// DeleteInteraction removes the entry with the given id, if any.
func DeleteInteraction(f *model.Family, id string) bool {
	n := len(f.Interactions)
	f.Interactions = slices.DeleteFunc(f.Interactions, func(i model.Interaction) bool {
		return i.ID == id
	})
	return len(f.Interactions) != n
}

// ProgressInfo is what the family list shows under each card.
type ProgressInfo struct {
	Percentage int    `json:"percentage"`
	Label      string `json:"label"`
	StageLabel string `json:"stage_label"`
}

func Progress(stage model.Stage) ProgressInfo {
	label := "Integração"
	if stage == model.StageMember {
		label = "Jornada de Discipulado"
	}
	return ProgressInfo{
		Percentage: int(math.Round(float64(stage) / float64(model.StageMember) * 100)),
		Label:      label,
		StageLabel: stage.Label(),
	}
}
