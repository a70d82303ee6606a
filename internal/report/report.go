// Package report computes the read-only dashboard and monthly figures over
// the full set of family records.
package report

import (
	"sort"
	"strings"
	"time"

	"github.com/dukerupert/kerigma/internal/model"
)

var monthAbbrev = [...]string{"Jan", "Fev", "Mar", "Abr", "Mai", "Jun", "Jul", "Ago", "Set", "Out", "Nov", "Dez"}

var monthNames = [...]string{
	"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

// MonthName returns the Portuguese name of m.
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return monthNames[m-1]
}

// MonthBucket counts registrations and visits in one calendar month.
type MonthBucket struct {
	Name      string     `json:"name"`
	Month     time.Month `json:"month"`
	Year      int        `json:"year"`
	Registros int        `json:"registros"`
	Visitas   int        `json:"visitas"`
}

// Series returns the six calendar months ending at now's month, oldest
// first. Records match a bucket on both month and year.
func Series(families []model.Family, now time.Time) []MonthBucket {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	buckets := make([]MonthBucket, 6)
	for i := range buckets {
		d := first.AddDate(0, i-5, 0)
		buckets[i] = MonthBucket{
			Name:  monthAbbrev[d.Month()-1],
			Month: d.Month(),
			Year:  d.Year(),
		}
	}

	for _, f := range families {
		for i := range buckets {
			b := &buckets[i]
			if f.CreatedAt.In(b.Month, b.Year) {
				b.Registros++
			}
			for _, inter := range f.Interactions {
				if inter.Date.In(b.Month, b.Year) {
					b.Visitas++
				}
			}
		}
	}
	return buckets
}

// DepartmentCount is one slice of the department distribution.
type DepartmentCount struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

const otherDepartment = "Outros"

// Departments counts families per department tag, labels upper-cased, in
// order of first appearance.
func Departments(families []model.Family) []DepartmentCount {
	index := map[string]int{}
	var out []DepartmentCount
	for _, f := range families {
		dept := f.Department
		if dept == "" {
			dept = otherDepartment
		}
		i, ok := index[dept]
		if !ok {
			i = len(out)
			index[dept] = i
			out = append(out, DepartmentCount{Name: strings.ToUpper(dept)})
		}
		out[i].Value++
	}
	return out
}

// Dashboard is the overview screen.
type Dashboard struct {
	Total           int               `json:"total"`
	Pending         int               `json:"pending"`
	Active          int               `json:"active"`
	VisitsThisMonth int               `json:"visits_this_month"`
	Series          []MonthBucket     `json:"series"`
	Departments     []DepartmentCount `json:"departments"`
}

func Summary(families []model.Family, now time.Time) Dashboard {
	d := Dashboard{
		Total:       len(families),
		Series:      Series(families, now),
		Departments: Departments(families),
	}
	for _, f := range families {
		switch f.Status {
		case model.StatusPending:
			d.Pending++
		case model.StatusActive:
			d.Active++
		}
	}
	d.VisitsThisMonth = d.Series[len(d.Series)-1].Visitas
	if d.Departments == nil {
		d.Departments = []DepartmentCount{}
	}
	return d
}

// Visit is an interaction listed in a monthly report with its family.
type Visit struct {
	FamilyID    string            `json:"family_id"`
	FamilyName  string            `json:"family_name"`
	Interaction model.Interaction `json:"interaction"`
}

// Monthly lists the registrations and visits of one month.
type Monthly struct {
	Month         time.Month     `json:"month"`
	MonthName     string         `json:"month_name"`
	Year          int            `json:"year"`
	Registrations []model.Family `json:"registrations"`
	Visits        []Visit        `json:"visits"`
}

// MonthlyReport filters families created and interactions dated in the
// given month. Visits are sorted most recent first; equal dates keep
// store order.
func MonthlyReport(families []model.Family, month time.Month, year int) Monthly {
	r := Monthly{
		Month:         month,
		MonthName:     MonthName(month),
		Year:          year,
		Registrations: []model.Family{},
		Visits:        []Visit{},
	}
	for _, f := range families {
		if f.CreatedAt.In(month, year) {
			r.Registrations = append(r.Registrations, f)
		}
		for _, inter := range f.Interactions {
			if inter.Date.In(month, year) {
				r.Visits = append(r.Visits, Visit{FamilyID: f.ID, FamilyName: f.Name, Interaction: inter})
			}
		}
	}
	sort.SliceStable(r.Visits, func(i, j int) bool {
		return r.Visits[j].Interaction.Date.Before(r.Visits[i].Interaction.Date)
	})
	return r
}
