package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notegraph-backend/domain/core/valueobjects"
	pkgerrors "notegraph-backend/pkg/errors"
)

func newTestVoiceNote(t *testing.T) *VoiceNote {
	t.Helper()
	vn, err := NewVoiceNote("user-1", "recordings/abc.wav", 12.5)
	require.NoError(t, err)
	return vn
}

func reconstructWithStatus(t *testing.T, status VoiceNoteStatus) *VoiceNote {
	t.Helper()
	vn, err := ReconstructVoiceNote(
		valueobjects.NewVoiceNoteID(),
		"user-1", "recordings/abc.wav", 12.5,
		"", "", status, "",
		time.Now(), time.Now(),
	)
	require.NoError(t, err)
	return vn
}

func TestNewVoiceNote_StartsUploaded(t *testing.T) {
	vn := newTestVoiceNote(t)

	assert.Equal(t, StatusUploaded, vn.Status())
	assert.Equal(t, "recordings/abc.wav", vn.AudioRef())
	assert.Empty(t, vn.Transcription())
	assert.Empty(t, vn.ErrorMessage())
	assert.False(t, vn.ID().IsZero())
}

func TestNewVoiceNote_Validation(t *testing.T) {
	_, err := NewVoiceNote("", "recordings/abc.wav", 1)
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = NewVoiceNote("user-1", "", 1)
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = NewVoiceNote("user-1", "recordings/abc.wav", -3)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestVoiceNote_HappyPathTransitions(t *testing.T) {
	vn := newTestVoiceNote(t)

	require.NoError(t, vn.BeginTranscription())
	assert.Equal(t, StatusTranscribing, vn.Status())

	require.NoError(t, vn.BeginProcessing("the raw transcript"))
	assert.Equal(t, StatusProcessing, vn.Status())
	assert.Equal(t, "the raw transcript", vn.Transcription())

	require.NoError(t, vn.Complete("two ideas about memory"))
	assert.Equal(t, StatusCompleted, vn.Status())
	assert.Equal(t, "two ideas about memory", vn.Summary())
	assert.True(t, vn.Status().IsTerminal())
}

func TestVoiceNote_BeginTranscription_RejectsRecording(t *testing.T) {
	vn := reconstructWithStatus(t, StatusRecording)

	err := vn.BeginTranscription()

	assert.True(t, pkgerrors.IsValidation(err))
	assert.Equal(t, StatusRecording, vn.Status())
}

func TestVoiceNote_BeginTranscription_RestartsTerminalStates(t *testing.T) {
	// A pipeline re-invocation restarts from transcribing, clearing a
	// previous failure.
	for _, status := range []VoiceNoteStatus{StatusCompleted, StatusError} {
		vn := reconstructWithStatus(t, status)

		require.NoError(t, vn.BeginTranscription())

		assert.Equal(t, StatusTranscribing, vn.Status())
		assert.Empty(t, vn.ErrorMessage())
	}
}

func TestVoiceNote_BeginProcessing_OnlyFromTranscribing(t *testing.T) {
	vn := newTestVoiceNote(t)

	err := vn.BeginProcessing("transcript")

	assert.True(t, pkgerrors.IsValidation(err))
	assert.Equal(t, StatusUploaded, vn.Status())
}

func TestVoiceNote_Complete_OnlyFromProcessing(t *testing.T) {
	vn := newTestVoiceNote(t)
	require.NoError(t, vn.BeginTranscription())

	err := vn.Complete("summary")

	assert.True(t, pkgerrors.IsValidation(err))
	assert.Equal(t, StatusTranscribing, vn.Status())
}

func TestVoiceNote_Fail_FromInFlightStates(t *testing.T) {
	vn := newTestVoiceNote(t)
	require.NoError(t, vn.BeginTranscription())

	require.NoError(t, vn.Fail("speech service unavailable"))

	assert.Equal(t, StatusError, vn.Status())
	assert.Equal(t, "speech service unavailable", vn.ErrorMessage())
}

func TestVoiceNote_Fail_RetainsTranscript(t *testing.T) {
	vn := newTestVoiceNote(t)
	require.NoError(t, vn.BeginTranscription())
	require.NoError(t, vn.BeginProcessing("partial transcript"))

	require.NoError(t, vn.Fail("extraction failed"))

	assert.Equal(t, StatusError, vn.Status())
	assert.Equal(t, "partial transcript", vn.Transcription())
}

func TestVoiceNote_Fail_RejectedOutsideInFlightStates(t *testing.T) {
	vn := newTestVoiceNote(t)

	err := vn.Fail("boom")

	assert.True(t, pkgerrors.IsValidation(err))
	assert.Equal(t, StatusUploaded, vn.Status())
}

func TestVoiceNote_Fail_DefaultMessage(t *testing.T) {
	vn := newTestVoiceNote(t)
	require.NoError(t, vn.BeginTranscription())

	require.NoError(t, vn.Fail(""))

	assert.Equal(t, "ingestion failed", vn.ErrorMessage())
}

func TestVoiceNote_TransitionsRecordEvents(t *testing.T) {
	vn := newTestVoiceNote(t)

	require.NoError(t, vn.BeginTranscription())
	require.NoError(t, vn.BeginProcessing("transcript"))

	evts := vn.GetUncommittedEvents()
	require.Len(t, evts, 2)
	assert.Equal(t, "voice_note.status_changed", evts[0].GetEventType())

	vn.MarkEventsAsCommitted()
	assert.Empty(t, vn.GetUncommittedEvents())
}
