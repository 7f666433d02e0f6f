package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"notegraph-backend/application/services"
	"notegraph-backend/domain/core/entities"
	"notegraph-backend/domain/core/valueobjects"
	"notegraph-backend/pkg/utils"
)

// VoiceHandler handles voice note HTTP requests
type VoiceHandler struct {
	ingestionService *services.IngestionService
	logger           *zap.Logger
}

// NewVoiceHandler creates a new voice note handler
func NewVoiceHandler(ingestionService *services.IngestionService, logger *zap.Logger) *VoiceHandler {
	return &VoiceHandler{
		ingestionService: ingestionService,
		logger:           logger,
	}
}

// RegisterVoiceNoteRequest represents the request body for registering an
// uploaded recording
type RegisterVoiceNoteRequest struct {
	AudioRef        string  `json:"audioRef" validate:"required"`
	DurationSeconds float64 `json:"durationSeconds" validate:"gte=0"`
}

// Register handles POST /voice-notes
func (h *VoiceHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterVoiceNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		respondError(w, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	voiceNote, err := h.ingestionService.RegisterUpload(r.Context(), owner, req.AudioRef, req.DurationSeconds)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, toVoiceNoteResponse(voiceNote))
}

// Process handles POST /voice-notes/{voiceNoteID}/process. The pipeline
// runs synchronously within the request; the response carries the
// record's final state, including an error state with its message.
func (h *VoiceHandler) Process(w http.ResponseWriter, r *http.Request) {
	id, err := valueobjects.NewVoiceNoteIDFromString(chi.URLParam(r, "voiceNoteID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid voice note ID format")
		return
	}
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	if err := h.ingestionService.Process(r.Context(), owner, id); err != nil {
		// The failure is persisted on the record; return the record so
		// the caller sees the error state alongside the failure.
		voiceNote, getErr := h.ingestionService.GetVoiceNote(r.Context(), owner, id)
		if getErr != nil {
			respondAppError(w, err)
			return
		}
		respondJSON(w, http.StatusUnprocessableEntity, toVoiceNoteResponse(voiceNote))
		return
	}

	voiceNote, err := h.ingestionService.GetVoiceNote(r.Context(), owner, id)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toVoiceNoteResponse(voiceNote))
}

// Get handles GET /voice-notes/{voiceNoteID}
func (h *VoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := valueobjects.NewVoiceNoteIDFromString(chi.URLParam(r, "voiceNoteID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid voice note ID format")
		return
	}
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	voiceNote, err := h.ingestionService.GetVoiceNote(r.Context(), owner, id)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toVoiceNoteResponse(voiceNote))
}

// List handles GET /voice-notes with an optional status query filter
func (h *VoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	var (
		voiceNotes []*entities.VoiceNote
		err        error
	)
	if status := r.URL.Query().Get("status"); status != "" {
		voiceNotes, err = h.ingestionService.ListVoiceNotesByStatus(r.Context(), owner, entities.VoiceNoteStatus(status))
	} else {
		voiceNotes, err = h.ingestionService.ListVoiceNotes(r.Context(), owner)
	}
	if err != nil {
		respondAppError(w, err)
		return
	}

	out := make([]VoiceNoteResponse, len(voiceNotes))
	for i, voiceNote := range voiceNotes {
		out[i] = toVoiceNoteResponse(voiceNote)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"voiceNotes": out,
		"count":      len(out),
	})
}
