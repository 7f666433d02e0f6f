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

// NodeHandler handles node and edge HTTP requests
type NodeHandler struct {
	nodeService *services.NodeService
	logger      *zap.Logger
}

// NewNodeHandler creates a new node handler
func NewNodeHandler(nodeService *services.NodeService, logger *zap.Logger) *NodeHandler {
	return &NodeHandler{
		nodeService: nodeService,
		logger:      logger,
	}
}

// CreateNodeRequest represents the request body for creating a node
type CreateNodeRequest struct {
	Kind            string   `json:"kind" validate:"required,oneof=text chat_reference note"`
	Content         string   `json:"content"`
	X               *float64 `json:"x" validate:"required"`
	Y               *float64 `json:"y" validate:"required"`
	Width           float64  `json:"width,omitempty" validate:"omitempty,gt=0"`
	Height          float64  `json:"height,omitempty" validate:"omitempty,gt=0"`
	SourceKind      string   `json:"sourceKind,omitempty" validate:"omitempty,oneof=manual voice chat ai_extracted web youtube readwise"`
	SourceID        string   `json:"sourceId,omitempty"`
	SourceURL       string   `json:"sourceUrl,omitempty" validate:"omitempty,url"`
	ParentNodeID    string   `json:"parentNodeId,omitempty" validate:"omitempty,uuid"`
	MessageRef      string   `json:"messageRef,omitempty"`
	ConversationRef string   `json:"conversationRef,omitempty"`
}

// CreateNode handles POST /nodes
func (h *NodeHandler) CreateNode(w http.ResponseWriter, r *http.Request) {
	var req CreateNodeRequest
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

	node, err := h.nodeService.CreateNode(r.Context(), owner, services.CreateNodeInput{
		Kind:            entities.NodeKind(req.Kind),
		Content:         req.Content,
		X:               *req.X,
		Y:               *req.Y,
		Width:           req.Width,
		Height:          req.Height,
		SourceKind:      entities.SourceKind(req.SourceKind),
		SourceID:        req.SourceID,
		SourceURL:       req.SourceURL,
		ParentNodeID:    req.ParentNodeID,
		MessageRef:      req.MessageRef,
		ConversationRef: req.ConversationRef,
	})
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, toNodeResponse(node))
}

// UpdateNodeRequest represents the request body for a partial node update
type UpdateNodeRequest struct {
	Content         *string  `json:"content,omitempty"`
	X               *float64 `json:"x,omitempty"`
	Y               *float64 `json:"y,omitempty"`
	Width           *float64 `json:"width,omitempty" validate:"omitempty,gt=0"`
	Height          *float64 `json:"height,omitempty" validate:"omitempty,gt=0"`
	SourceKind      *string  `json:"sourceKind,omitempty" validate:"omitempty,oneof=manual voice chat ai_extracted web youtube readwise"`
	SourceID        *string  `json:"sourceId,omitempty"`
	SourceURL       *string  `json:"sourceUrl,omitempty"`
	ParentNodeID    *string  `json:"parentNodeId,omitempty"`
	MessageRef      *string  `json:"messageRef,omitempty"`
	ConversationRef *string  `json:"conversationRef,omitempty"`
}

// UpdateNode handles PATCH /nodes/{nodeID}
func (h *NodeHandler) UpdateNode(w http.ResponseWriter, r *http.Request) {
	id, err := valueobjects.NewNodeIDFromString(chi.URLParam(r, "nodeID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid node ID format")
		return
	}

	var req UpdateNodeRequest
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

	in := services.UpdateNodeInput{
		Content:         req.Content,
		X:               req.X,
		Y:               req.Y,
		Width:           req.Width,
		Height:          req.Height,
		SourceID:        req.SourceID,
		SourceURL:       req.SourceURL,
		ParentNodeID:    req.ParentNodeID,
		MessageRef:      req.MessageRef,
		ConversationRef: req.ConversationRef,
	}
	if req.SourceKind != nil {
		kind := entities.SourceKind(*req.SourceKind)
		in.SourceKind = &kind
	}

	node, err := h.nodeService.UpdateNode(r.Context(), owner, id, in)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toNodeResponse(node))
}

// GetNode handles GET /nodes/{nodeID}
func (h *NodeHandler) GetNode(w http.ResponseWriter, r *http.Request) {
	id, err := valueobjects.NewNodeIDFromString(chi.URLParam(r, "nodeID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid node ID format")
		return
	}
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	node, err := h.nodeService.GetNode(r.Context(), owner, id)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toNodeResponse(node))
}

// ListNodes handles GET /nodes with optional kind, sourceId and
// parentNodeId query filters
func (h *NodeHandler) ListNodes(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	var (
		nodes []*entities.Node
		err   error
	)
	switch {
	case r.URL.Query().Get("kind") != "":
		nodes, err = h.nodeService.ListNodesByKind(r.Context(), owner, entities.NodeKind(r.URL.Query().Get("kind")))
	case r.URL.Query().Get("sourceId") != "":
		nodes, err = h.nodeService.ListNodesBySource(r.Context(), owner, r.URL.Query().Get("sourceId"))
	case r.URL.Query().Get("parentNodeId") != "":
		nodes, err = h.nodeService.ListNodesByParent(r.Context(), owner, r.URL.Query().Get("parentNodeId"))
	default:
		nodes, err = h.nodeService.ListNodesByOwner(r.Context(), owner)
	}
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"nodes": toNodeResponses(nodes),
		"count": len(nodes),
	})
}

// DeleteNode handles DELETE /nodes/{nodeID}, cascading to incident edges
func (h *NodeHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	id, err := valueobjects.NewNodeIDFromString(chi.URLParam(r, "nodeID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid node ID format")
		return
	}
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	if err := h.nodeService.DeleteNode(r.Context(), owner, id); err != nil {
		respondAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
