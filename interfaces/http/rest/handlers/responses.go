package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"notegraph-backend/domain/core/entities"
	"notegraph-backend/interfaces/http/rest/middleware"
	pkgerrors "notegraph-backend/pkg/errors"
)

// NodeResponse is the wire representation of a node
type NodeResponse struct {
	ID              string    `json:"id"`
	Kind            string    `json:"kind"`
	Content         string    `json:"content"`
	X               float64   `json:"x"`
	Y               float64   `json:"y"`
	Width           float64   `json:"width"`
	Height          float64   `json:"height"`
	MessageRef      string    `json:"messageRef,omitempty"`
	ConversationRef string    `json:"conversationRef,omitempty"`
	SourceKind      string    `json:"sourceKind"`
	SourceID        string    `json:"sourceId,omitempty"`
	SourceURL       string    `json:"sourceUrl,omitempty"`
	ParentNodeID    string    `json:"parentNodeId,omitempty"`
	OutgoingLinks   []string  `json:"outgoingLinks"`
	HasEmbedding    bool      `json:"hasEmbedding"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func toNodeResponse(node *entities.Node) NodeResponse {
	return NodeResponse{
		ID:              node.ID().String(),
		Kind:            string(node.Kind()),
		Content:         node.Content(),
		X:               node.Position().X(),
		Y:               node.Position().Y(),
		Width:           node.Size().Width(),
		Height:          node.Size().Height(),
		MessageRef:      node.MessageRef(),
		ConversationRef: node.ConversationRef(),
		SourceKind:      string(node.SourceKind()),
		SourceID:        node.SourceID(),
		SourceURL:       node.SourceURL(),
		ParentNodeID:    node.ParentNodeID(),
		OutgoingLinks:   node.OutgoingLinks(),
		HasEmbedding:    node.HasEmbedding(),
		CreatedAt:       node.CreatedAt(),
		UpdatedAt:       node.UpdatedAt(),
	}
}

func toNodeResponses(nodes []*entities.Node) []NodeResponse {
	out := make([]NodeResponse, len(nodes))
	for i, node := range nodes {
		out[i] = toNodeResponse(node)
	}
	return out
}

// EdgeResponse is the wire representation of an edge
type EdgeResponse struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Target    string    `json:"target"`
	Label     string    `json:"label,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func toEdgeResponse(edge *entities.Edge) EdgeResponse {
	return EdgeResponse{
		ID:        edge.ID().String(),
		Source:    edge.SourceID().String(),
		Target:    edge.TargetID().String(),
		Label:     edge.Label(),
		CreatedAt: edge.CreatedAt(),
	}
}

func toEdgeResponses(edges []*entities.Edge) []EdgeResponse {
	out := make([]EdgeResponse, len(edges))
	for i, edge := range edges {
		out[i] = toEdgeResponse(edge)
	}
	return out
}

// VoiceNoteResponse is the wire representation of a voice note
type VoiceNoteResponse struct {
	ID              string    `json:"id"`
	AudioRef        string    `json:"audioRef"`
	DurationSeconds float64   `json:"durationSeconds"`
	Transcription   string    `json:"transcription,omitempty"`
	Summary         string    `json:"summary,omitempty"`
	Status          string    `json:"status"`
	ErrorMessage    string    `json:"errorMessage,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func toVoiceNoteResponse(voiceNote *entities.VoiceNote) VoiceNoteResponse {
	return VoiceNoteResponse{
		ID:              voiceNote.ID().String(),
		AudioRef:        voiceNote.AudioRef(),
		DurationSeconds: voiceNote.DurationSeconds(),
		Transcription:   voiceNote.Transcription(),
		Summary:         voiceNote.Summary(),
		Status:          string(voiceNote.Status()),
		ErrorMessage:    voiceNote.ErrorMessage(),
		CreatedAt:       voiceNote.CreatedAt(),
		UpdatedAt:       voiceNote.UpdatedAt(),
	}
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{
		"error":   true,
		"message": message,
		"code":    status,
	})
}

// respondAppError maps an error from the application layer onto its HTTP
// status via the error taxonomy, defaulting to 500 for unknown errors.
func respondAppError(w http.ResponseWriter, err error) {
	if appErr := pkgerrors.GetAppError(err); appErr != nil {
		respondJSON(w, appErr.HTTPStatus, map[string]interface{}{
			"error":   true,
			"type":    string(appErr.Type),
			"message": appErr.Message,
			"code":    appErr.HTTPStatus,
		})
		return
	}
	respondError(w, http.StatusInternalServerError, "internal error")
}

// ownerID pulls the authenticated owner from the request context, writing
// a 401 when the middleware did not run.
func ownerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := middleware.OwnerIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
	}
	return id, ok
}
