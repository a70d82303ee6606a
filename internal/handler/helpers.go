package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dukerupert/kerigma/internal/family"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// ruleError maps a domain validation error to a 400 response. It reports
// false for any other error.
func ruleError(w http.ResponseWriter, err error) bool {
	switch {
	case errors.Is(err, family.ErrInvalidStage),
		errors.Is(err, family.ErrInvalidStatus),
		errors.Is(err, family.ErrInvalidAge),
		errors.Is(err, family.ErrInvalidCount):
		writeError(w, http.StatusBadRequest, err.Error())
		return true
	}
	return false
}

// parsePeriod reads ?month=1..12&year= and defaults each missing value to
// the month and year of now.
func parsePeriod(r *http.Request, now time.Time) (time.Month, int, error) {
	month, year := now.Month(), now.Year()
	if s := r.URL.Query().Get("month"); s != "" {
		m, err := strconv.Atoi(s)
		if err != nil || m < 1 || m > 12 {
			return 0, 0, errors.New("month must be between 1 and 12")
		}
		month = time.Month(m)
	}
	if s := r.URL.Query().Get("year"); s != "" {
		y, err := strconv.Atoi(s)
		if err != nil || y < 1 || y > 9999 {
			return 0, 0, errors.New("year must be a positive number")
		}
		year = y
	}
	return month, year, nil
}
