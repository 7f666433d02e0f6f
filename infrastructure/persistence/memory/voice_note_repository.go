package memory

import (
	"context"
	"sync"

	"notegraph-backend/application/ports"
	"notegraph-backend/domain/core/entities"
	"notegraph-backend/domain/core/valueobjects"
	pkgerrors "notegraph-backend/pkg/errors"
)

// VoiceNoteRepository is an in-memory ports.VoiceNoteRepository
type VoiceNoteRepository struct {
	mu         sync.RWMutex
	order      []string
	voiceNotes map[string]*entities.VoiceNote
}

// NewVoiceNoteRepository creates an empty in-memory voice note repository
func NewVoiceNoteRepository() *VoiceNoteRepository {
	return &VoiceNoteRepository{
		voiceNotes: make(map[string]*entities.VoiceNote),
	}
}

// Save stores or replaces a voice note
func (r *VoiceNoteRepository) Save(_ context.Context, voiceNote *entities.VoiceNote) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := voiceNote.ID().String()
	if _, exists := r.voiceNotes[key]; !exists {
		r.order = append(r.order, key)
	}
	r.voiceNotes[key] = voiceNote
	return nil
}

// FindByID returns the voice note or NotFoundError
func (r *VoiceNoteRepository) FindByID(_ context.Context, ownerID string, id valueobjects.VoiceNoteID) (*entities.VoiceNote, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	voiceNote, exists := r.voiceNotes[id.String()]
	if !exists || voiceNote.OwnerID() != ownerID {
		return nil, pkgerrors.NewNotFoundError("voice note")
	}
	return voiceNote, nil
}

// FindByOwner returns the owner's voice notes in insertion order
func (r *VoiceNoteRepository) FindByOwner(_ context.Context, ownerID string) ([]*entities.VoiceNote, error) {
	return r.filter(func(v *entities.VoiceNote) bool {
		return v.OwnerID() == ownerID
	}), nil
}

// FindByStatus returns the owner's voice notes in one pipeline state
func (r *VoiceNoteRepository) FindByStatus(_ context.Context, ownerID string, status entities.VoiceNoteStatus) ([]*entities.VoiceNote, error) {
	return r.filter(func(v *entities.VoiceNote) bool {
		return v.OwnerID() == ownerID && v.Status() == status
	}), nil
}

func (r *VoiceNoteRepository) filter(keep func(*entities.VoiceNote) bool) []*entities.VoiceNote {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*entities.VoiceNote, 0)
	for _, key := range r.order {
		if voiceNote := r.voiceNotes[key]; keep(voiceNote) {
			matched = append(matched, voiceNote)
		}
	}
	return matched
}

var _ ports.VoiceNoteRepository = (*VoiceNoteRepository)(nil)
