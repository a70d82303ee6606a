package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/kerigma/internal/insight"
	"github.com/dukerupert/kerigma/internal/store"
)

type InsightHandler struct {
	store  *store.FamilyStore
	client *insight.Client
	logger *slog.Logger
}

func NewInsightHandler(s *store.FamilyStore, c *insight.Client, logger *slog.Logger) *InsightHandler {
	return &InsightHandler{store: s, client: c, logger: logger}
}

// Get answers with suggestions for the family. Service failures still
// answer 200 with the fallback text.
func (h *InsightHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	f, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("get family", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get family")
		return
	}
	if f == nil {
		writeError(w, http.StatusNotFound, "family not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"family_id": f.ID,
		"insights":  h.client.Insights(r.Context(), *f),
	})
}
