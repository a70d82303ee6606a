package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/kerigma/internal/report"
	"github.com/dukerupert/kerigma/internal/store"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReportHandler struct {
	store  *store.FamilyStore
	logger *slog.Logger
	now    func() time.Time
}

func NewReportHandler(s *store.FamilyStore, now func() time.Time, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{store: s, logger: logger, now: now}
}

func (h *ReportHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	families, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error("list families", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build dashboard")
		return
	}
	writeJSON(w, http.StatusOK, report.Summary(families, h.now()))
}

func (h *ReportHandler) Monthly(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.monthly(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// Export sends the monthly report as an Excel workbook.
func (h *ReportHandler) Export(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.monthly(w, r)
	if !ok {
		return
	}

	data, err := report.MonthlyWorkbook(rep)
	if err != nil {
		h.logger.Error("build workbook", "month", int(rep.Month), "year", rep.Year, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to export report")
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="relatorio-%04d-%02d.xlsx"`, rep.Year, int(rep.Month)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *ReportHandler) monthly(w http.ResponseWriter, r *http.Request) (report.Monthly, bool) {
	month, year, err := parsePeriod(r, h.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return report.Monthly{}, false
	}
	families, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error("list families", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build report")
		return report.Monthly{}, false
	}
	return report.MonthlyReport(families, month, year), true
}
