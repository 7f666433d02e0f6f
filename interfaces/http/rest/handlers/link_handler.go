package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"notegraph-backend/application/services"
	"notegraph-backend/domain/core/valueobjects"
	"notegraph-backend/pkg/utils"
)

// LinkHandler handles reference resolution and backlink HTTP requests
type LinkHandler struct {
	linkService *services.LinkService
	logger      *zap.Logger
}

// NewLinkHandler creates a new link handler
func NewLinkHandler(linkService *services.LinkService, logger *zap.Logger) *LinkHandler {
	return &LinkHandler{
		linkService: linkService,
		logger:      logger,
	}
}

// ResolveRequest represents the request body for resolving a title
type ResolveRequest struct {
	Title string `json:"title" validate:"required,max=500"`
}

// Resolve handles POST /links/resolve: returns the note matching the
// title, creating a stub note when none exists
func (h *LinkHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
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

	node, err := h.linkService.ResolveOrCreate(r.Context(), owner, req.Title)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toNodeResponse(node))
}

// backlinkResponse pairs a linking node with the edge's label
type backlinkResponse struct {
	Node      NodeResponse `json:"node"`
	EdgeLabel string       `json:"edgeLabel,omitempty"`
}

// GetBacklinks handles GET /nodes/{nodeID}/backlinks
func (h *LinkHandler) GetBacklinks(w http.ResponseWriter, r *http.Request) {
	id, err := valueobjects.NewNodeIDFromString(chi.URLParam(r, "nodeID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid node ID format")
		return
	}
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	backlinks, err := h.linkService.GetBacklinks(r.Context(), owner, id)
	if err != nil {
		respondAppError(w, err)
		return
	}

	out := make([]backlinkResponse, len(backlinks))
	for i, backlink := range backlinks {
		out[i] = backlinkResponse{
			Node:      toNodeResponse(backlink.Node),
			EdgeLabel: backlink.EdgeLabel,
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"backlinks": out,
		"count":     len(out),
	})
}

// textualBacklinkResponse pairs a referencing note with its display title
type textualBacklinkResponse struct {
	Node  NodeResponse `json:"node"`
	Title string       `json:"title"`
}

// GetTextualBacklinks handles GET /links/backlinks?title=...
func (h *LinkHandler) GetTextualBacklinks(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	if title == "" {
		respondError(w, http.StatusBadRequest, "title query parameter is required")
		return
	}
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	backlinks, err := h.linkService.GetTextualBacklinks(r.Context(), owner, title)
	if err != nil {
		respondAppError(w, err)
		return
	}

	out := make([]textualBacklinkResponse, len(backlinks))
	for i, backlink := range backlinks {
		out[i] = textualBacklinkResponse{
			Node:  toNodeResponse(backlink.Node),
			Title: backlink.Title,
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"backlinks": out,
		"count":     len(out),
	})
}
