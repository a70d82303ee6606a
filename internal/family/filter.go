package family

import (
	"strings"

	"github.com/dukerupert/kerigma/internal/model"
)

// Search keeps families whose name or leader contains term, ignoring case.
func Search(families []model.Family, term string) []model.Family {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return families
	}
	out := make([]model.Family, 0, len(families))
	for _, f := range families {
		if strings.Contains(strings.ToLower(f.Name), term) || strings.Contains(strings.ToLower(f.Leader), term) {
			out = append(out, f)
		}
	}
	return out
}

// InProgress returns the families still on the integration board.
func InProgress(families []model.Family) []model.Family {
	out := make([]model.Family, 0, len(families))
	for _, f := range families {
		if f.Status == model.StatusPending {
			out = append(out, f)
		}
	}
	return out
}

const (
	SegmentKids       = "Kids"
	SegmentTeens      = "Adolescentes"
	SegmentYoungAdult = "Jovens"
)

// Segments tags a family with the ministries its members' ages point to.
// Members without an age are ignored.
func Segments(f model.Family) []string {
	var kids, teens, young bool
	for _, m := range f.Members {
		if m.Age == nil {
			continue
		}
		age := *m.Age
		role := strings.ToLower(m.Role)
		switch {
		case age >= 4 && age < 12:
			kids = true
		case age >= 12 && age < 18:
			teens = true
		}
		if age >= 18 && (strings.Contains(role, "filh") || strings.Contains(role, "jovem")) {
			young = true
		}
	}

	tags := []string{}
	if kids {
		tags = append(tags, SegmentKids)
	}
	if teens {
		tags = append(tags, SegmentTeens)
	}
	if young {
		tags = append(tags, SegmentYoungAdult)
	}
	return tags
}
