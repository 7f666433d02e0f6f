package entities

import (
	"time"

	"notegraph-backend/domain/core/valueobjects"
	"notegraph-backend/domain/events"
	pkgerrors "notegraph-backend/pkg/errors"
)

// VoiceNoteStatus is a state in the ingestion pipeline state machine
type VoiceNoteStatus string

const (
	StatusRecording    VoiceNoteStatus = "recording"
	StatusUploaded     VoiceNoteStatus = "uploaded"
	StatusTranscribing VoiceNoteStatus = "transcribing"
	StatusProcessing   VoiceNoteStatus = "processing"
	StatusCompleted    VoiceNoteStatus = "completed"
	StatusError        VoiceNoteStatus = "error"
)

// IsTerminal reports whether the status has no outgoing transitions
// (other than an explicit pipeline re-invocation)
func (s VoiceNoteStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusError
}

// VoiceNote tracks one uploaded recording through the ingestion pipeline.
// Voice notes progress unidirectionally to a terminal state and are never
// deleted by the engine.
type VoiceNote struct {
	id              valueobjects.VoiceNoteID
	ownerID         string
	audioRef        string
	durationSeconds float64
	transcription   string
	summary         string
	status          VoiceNoteStatus
	errorMessage    string
	createdAt       time.Time
	updatedAt       time.Time

	events []events.DomainEvent
}

// NewVoiceNote registers a freshly uploaded recording. The upload
// collaborator has already moved the note through recording→uploaded, so
// the engine starts tracking it in the uploaded state.
func NewVoiceNote(ownerID, audioRef string, durationSeconds float64) (*VoiceNote, error) {
	if ownerID == "" {
		return nil, pkgerrors.NewValidationError("ownerID cannot be empty")
	}
	if audioRef == "" {
		return nil, pkgerrors.NewValidationError("audioRef cannot be empty")
	}
	if durationSeconds < 0 {
		return nil, pkgerrors.NewValidationError("durationSeconds cannot be negative")
	}

	now := time.Now()
	return &VoiceNote{
		id:              valueobjects.NewVoiceNoteID(),
		ownerID:         ownerID,
		audioRef:        audioRef,
		durationSeconds: durationSeconds,
		status:          StatusUploaded,
		createdAt:       now,
		updatedAt:       now,
		events:          []events.DomainEvent{},
	}, nil
}

// ReconstructVoiceNote rebuilds a voice note from repository data
func ReconstructVoiceNote(
	id valueobjects.VoiceNoteID,
	ownerID, audioRef string,
	durationSeconds float64,
	transcription, summary string,
	status VoiceNoteStatus,
	errorMessage string,
	createdAt, updatedAt time.Time,
) (*VoiceNote, error) {
	if ownerID == "" {
		return nil, pkgerrors.NewValidationError("ownerID cannot be empty")
	}
	return &VoiceNote{
		id:              id,
		ownerID:         ownerID,
		audioRef:        audioRef,
		durationSeconds: durationSeconds,
		transcription:   transcription,
		summary:         summary,
		status:          status,
		errorMessage:    errorMessage,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
		events:          []events.DomainEvent{},
	}, nil
}

// ID returns the voice note's unique identifier
func (v *VoiceNote) ID() valueobjects.VoiceNoteID { return v.id }

// OwnerID returns the owner's ID
func (v *VoiceNote) OwnerID() string { return v.ownerID }

// AudioRef returns the blob store reference for the recording
func (v *VoiceNote) AudioRef() string { return v.audioRef }

// DurationSeconds returns the recording length
func (v *VoiceNote) DurationSeconds() float64 { return v.durationSeconds }

// Transcription returns the persisted transcript, empty until transcription succeeds
func (v *VoiceNote) Transcription() string { return v.transcription }

// Summary returns the extractor's summary of the transcript, if any
func (v *VoiceNote) Summary() string { return v.summary }

// Status returns the current pipeline state
func (v *VoiceNote) Status() VoiceNoteStatus { return v.status }

// ErrorMessage returns the failure message for notes in the error state
func (v *VoiceNote) ErrorMessage() string { return v.errorMessage }

// CreatedAt returns when the voice note was registered
func (v *VoiceNote) CreatedAt() time.Time { return v.createdAt }

// UpdatedAt returns when the voice note last changed
func (v *VoiceNote) UpdatedAt() time.Time { return v.updatedAt }

// BeginTranscription moves the note into the transcribing state. A pipeline
// re-invocation restarts here regardless of prior partial results, so any
// state except recording is accepted; prior error state is cleared.
func (v *VoiceNote) BeginTranscription() error {
	if v.status == StatusRecording {
		return pkgerrors.NewValidationError("voice note has not finished uploading")
	}
	v.setStatus(StatusTranscribing, "")
	return nil
}

// BeginProcessing persists the transcript and moves the note into the
// processing state. Only valid from transcribing.
func (v *VoiceNote) BeginProcessing(transcription string) error {
	if v.status != StatusTranscribing {
		return pkgerrors.NewValidationError("voice note is not transcribing")
	}
	v.transcription = transcription
	v.setStatus(StatusProcessing, "")
	return nil
}

// Complete marks the pipeline run as successful. Only valid from processing.
func (v *VoiceNote) Complete(summary string) error {
	if v.status != StatusProcessing {
		return pkgerrors.NewValidationError("voice note is not processing")
	}
	v.summary = summary
	v.setStatus(StatusCompleted, "")
	return nil
}

// Fail moves the note into the terminal error state with the failure
// message. Only the two in-flight states can fail; a transcript persisted
// before the failure is retained.
func (v *VoiceNote) Fail(message string) error {
	if v.status != StatusTranscribing && v.status != StatusProcessing {
		return pkgerrors.NewValidationError("voice note is not in a failable state")
	}
	if message == "" {
		message = "ingestion failed"
	}
	v.setStatus(StatusError, message)
	return nil
}

// GetUncommittedEvents returns all uncommitted domain events
func (v *VoiceNote) GetUncommittedEvents() []events.DomainEvent {
	return v.events
}

// MarkEventsAsCommitted clears the uncommitted events
func (v *VoiceNote) MarkEventsAsCommitted() {
	v.events = []events.DomainEvent{}
}

func (v *VoiceNote) setStatus(status VoiceNoteStatus, errorMessage string) {
	old := v.status
	v.status = status
	v.errorMessage = errorMessage
	v.updatedAt = time.Now()

	v.events = append(v.events, events.NewVoiceNoteStatusChanged(
		v.id, v.ownerID, string(old), string(status), errorMessage, v.updatedAt,
	))
}
