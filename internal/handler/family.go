package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/kerigma/internal/family"
	"github.com/dukerupert/kerigma/internal/model"
	"github.com/dukerupert/kerigma/internal/store"
	"github.com/dukerupert/kerigma/internal/websocket"
)

type FamilyHandler struct {
	store         *store.FamilyStore
	hub           *websocket.Hub
	logger        *slog.Logger
	now           func() time.Time
	defaultAuthor string
}

func NewFamilyHandler(s *store.FamilyStore, hub *websocket.Hub, defaultAuthor string, now func() time.Time, logger *slog.Logger) *FamilyHandler {
	return &FamilyHandler{store: s, hub: hub, logger: logger, now: now, defaultAuthor: defaultAuthor}
}

func (h *FamilyHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

func (h *FamilyHandler) today() model.Date {
	return model.DateOf(h.now())
}

// familyDetail is a family with the derived fields the detail screen shows.
type familyDetail struct {
	model.Family
	Progress family.ProgressInfo `json:"progress"`
	Segments []string            `json:"segments"`
}

func detail(f *model.Family) familyDetail {
	return familyDetail{Family: *f, Progress: family.Progress(f.ProgressStage), Segments: family.Segments(*f)}
}

func (h *FamilyHandler) List(w http.ResponseWriter, r *http.Request) {
	families, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error("list families", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list families")
		return
	}
	families = family.Search(families, r.URL.Query().Get("q"))
	if families == nil {
		families = []model.Family{}
	}
	writeJSON(w, http.StatusOK, families)
}

// InProgress lists the families still being integrated.
func (h *FamilyHandler) InProgress(w http.ResponseWriter, r *http.Request) {
	families, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error("list families", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list families")
		return
	}
	families = family.InProgress(families)
	if families == nil {
		families = []model.Family{}
	}
	writeJSON(w, http.StatusOK, families)
}

func (h *FamilyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req family.NewFamily
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	f, err := family.New(req, h.today())
	if err != nil {
		if !ruleError(w, err) {
			writeError(w, http.StatusInternalServerError, "failed to create family")
		}
		return
	}

	created, err := h.store.Create(r.Context(), f)
	if err != nil {
		h.logger.Error("create family", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create family")
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntityFamily, websocket.ActionCreated, created.ID, nil))

	writeJSON(w, http.StatusCreated, created)
}

func (h *FamilyHandler) Get(w http.ResponseWriter, r *http.Request) {
	f, err := h.store.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		h.logger.Error("get family", "id", r.PathValue("id"), "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get family")
		return
	}
	if f == nil {
		writeError(w, http.StatusNotFound, "family not found")
		return
	}
	writeJSON(w, http.StatusOK, detail(f))
}

func (h *FamilyHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var p family.Patch
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	f, err := h.store.Update(r.Context(), id, p)
	if err != nil {
		if ruleError(w, err) {
			return
		}
		h.logger.Error("update family", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update family")
		return
	}
	if f == nil {
		writeError(w, http.StatusNotFound, "family not found")
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntityFamily, websocket.ActionUpdated, id, nil))

	writeJSON(w, http.StatusOK, f)
}

func (h *FamilyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	deleted, err := h.store.Delete(r.Context(), id)
	if err != nil {
		h.logger.Error("delete family", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete family")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "family not found")
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntityFamily, websocket.ActionDeleted, id, nil))

	w.WriteHeader(http.StatusNoContent)
}

func (h *FamilyHandler) SetStage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Stage *int `json:"stage"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Stage == nil {
		writeError(w, http.StatusBadRequest, "stage is required")
		return
	}

	id := r.PathValue("id")
	f, err := h.store.AdvanceStage(r.Context(), id, model.Stage(*req.Stage), h.today())
	h.stageResult(w, id, f, err)
}

// NextStage moves the family one step along the pipeline. At Membro it
// answers with the unchanged family.
func (h *FamilyHandler) NextStage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	f, err := h.store.AdvanceNext(r.Context(), id, h.today())
	h.stageResult(w, id, f, err)
}

func (h *FamilyHandler) stageResult(w http.ResponseWriter, id string, f *model.Family, err error) {
	if err != nil {
		if ruleError(w, err) {
			return
		}
		h.logger.Error("advance stage", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to advance stage")
		return
	}
	if f == nil {
		writeError(w, http.StatusNotFound, "family not found")
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntityFamily, websocket.ActionAdvanced, id, map[string]any{
		"stage":  int(f.ProgressStage),
		"status": string(f.Status),
	}))

	writeJSON(w, http.StatusOK, detail(f))
}

func (h *FamilyHandler) AddInteraction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Note   string `json:"note"`
		Author string `json:"author"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	author := strings.TrimSpace(req.Author)
	if author == "" {
		author = h.defaultAuthor
	}

	id := r.PathValue("id")
	f, err := h.store.AddInteraction(r.Context(), id, req.Note, author, h.today())
	if err != nil {
		h.logger.Error("add interaction", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to add interaction")
		return
	}
	if f == nil {
		writeError(w, http.StatusNotFound, "family not found")
		return
	}

	// A blank note is a no-op and has nothing to announce.
	if strings.TrimSpace(req.Note) != "" {
		h.broadcast(websocket.NewMessage(websocket.EntityInteraction, websocket.ActionCreated, f.Interactions[0].ID, map[string]any{"family_id": id}))
	}

	writeJSON(w, http.StatusOK, f)
}

func (h *FamilyHandler) DeleteInteraction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	interactionID := r.PathValue("interaction_id")

	f, removed, err := h.store.DeleteInteraction(r.Context(), id, interactionID)
	if err != nil {
		h.logger.Error("delete interaction", "id", id, "interaction_id", interactionID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete interaction")
		return
	}
	if f == nil {
		writeError(w, http.StatusNotFound, "family not found")
		return
	}

	if removed {
		h.broadcast(websocket.NewMessage(websocket.EntityInteraction, websocket.ActionDeleted, interactionID, map[string]any{"family_id": id}))
	}

	writeJSON(w, http.StatusOK, f)
}
