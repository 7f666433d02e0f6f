package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"notegraph-backend/application/ports"
	"notegraph-backend/domain/core/entities"
	"notegraph-backend/domain/core/valueobjects"
	domainservices "notegraph-backend/domain/services"
	"notegraph-backend/infrastructure/persistence/memory"
	pkgerrors "notegraph-backend/pkg/errors"
)

type stubAudioStore struct {
	data []byte
	mime string
	err  error
}

func (s *stubAudioStore) Fetch(_ context.Context, _ string) ([]byte, string, error) {
	if s.err != nil {
		return nil, "", s.err
	}
	return s.data, s.mime, nil
}

type stubTranscriber struct {
	transcript string
	err        error
}

func (s *stubTranscriber) Transcribe(_ context.Context, _ []byte, _ string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.transcript, nil
}

type stubExtractor struct {
	result *ports.ExtractionResult
	err    error

	gotTranscript string
	gotExcerpts   []string
}

func (s *stubExtractor) Extract(_ context.Context, transcript string, excerpts []string) (*ports.ExtractionResult, error) {
	s.gotTranscript = transcript
	s.gotExcerpts = excerpts
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type ingestionFixture struct {
	svc        *IngestionService
	voiceRepo  *memory.VoiceNoteRepository
	nodeRepo   *memory.NodeRepository
	edgeRepo   *memory.EdgeRepository
	index      *memory.VectorIndex
	embedder   *stubEmbedder
	audioStore *stubAudioStore
	transcribe *stubTranscriber
	extract    *stubExtractor
}

func newIngestionFixture(t *testing.T) *ingestionFixture {
	t.Helper()
	voiceRepo := memory.NewVoiceNoteRepository()
	nodeRepo := memory.NewNodeRepository()
	edgeRepo := memory.NewEdgeRepository()
	index := memory.NewVectorIndex()
	embedder := &stubEmbedder{vectors: map[string][]float32{}}
	audioStore := &stubAudioStore{data: []byte("audio-bytes"), mime: "audio/wav"}
	transcribe := &stubTranscriber{transcript: "ideas about memory techniques"}
	extract := &stubExtractor{result: &ports.ExtractionResult{Summary: "a summary"}}

	parser := domainservices.NewDefaultContentParser()
	logger := zap.NewNop()
	publisher := memory.NewEventPublisher(logger)
	similarity := NewSimilarityService(nodeRepo, edgeRepo, embedder, index, publisher, logger)
	svc := NewIngestionService(voiceRepo, nodeRepo, audioStore, transcribe, extract, similarity, parser, publisher, logger)

	return &ingestionFixture{
		svc:        svc,
		voiceRepo:  voiceRepo,
		nodeRepo:   nodeRepo,
		edgeRepo:   edgeRepo,
		index:      index,
		embedder:   embedder,
		audioStore: audioStore,
		transcribe: transcribe,
		extract:    extract,
	}
}

func (f *ingestionFixture) register(t *testing.T, owner string) *entities.VoiceNote {
	t.Helper()
	vn, err := f.svc.RegisterUpload(context.Background(), owner, "recordings/take-1.wav", 34)
	require.NoError(t, err)
	return vn
}

func TestIngestionService_RegisterUpload(t *testing.T) {
	f := newIngestionFixture(t)

	vn := f.register(t, "user-1")

	assert.Equal(t, entities.StatusUploaded, vn.Status())

	persisted, err := f.voiceRepo.FindByID(context.Background(), "user-1", vn.ID())
	require.NoError(t, err)
	assert.Equal(t, "recordings/take-1.wav", persisted.AudioRef())
}

func TestIngestionService_Process_SingleConceptEmptyGraph(t *testing.T) {
	// One extracted concept against an empty graph: one note appears with
	// an embedding, and with no neighbors to match there are no edges.
	f := newIngestionFixture(t)
	ctx := context.Background()
	owner := "user-1"

	f.extract.result = &ports.ExtractionResult{
		Concepts: []ports.Concept{
			{Title: "Spaced Repetition", Content: "review intervals grow over time"},
		},
		Summary: "one idea about scheduling reviews",
	}

	vn := f.register(t, owner)
	require.NoError(t, f.svc.Process(ctx, owner, vn.ID()))

	persisted, err := f.voiceRepo.FindByID(ctx, owner, vn.ID())
	require.NoError(t, err)
	assert.Equal(t, entities.StatusCompleted, persisted.Status())
	assert.Equal(t, "ideas about memory techniques", persisted.Transcription())
	assert.Equal(t, "one idea about scheduling reviews", persisted.Summary())

	notes, err := f.nodeRepo.FindByKind(ctx, owner, entities.KindNote)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "# Spaced Repetition\n\nreview intervals grow over time", notes[0].Content())
	assert.Equal(t, entities.SourceVoice, notes[0].SourceKind())
	assert.Equal(t, vn.ID().String(), notes[0].SourceID())
	assert.True(t, notes[0].HasEmbedding())

	edges, err := f.edgeRepo.FindByOwner(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, edges)
}

func TestIngestionService_Process_LinksConceptsWithinOneRun(t *testing.T) {
	// Notes created earlier in the same run are already in the index, so a
	// later concept with a near-identical embedding links back to them.
	f := newIngestionFixture(t)
	ctx := context.Background()
	owner := "user-1"

	f.extract.result = &ports.ExtractionResult{
		Concepts: []ports.Concept{
			{Title: "First", Content: "shared theme"},
			{Title: "Second", Content: "shared theme again"},
		},
		Summary: "two takes on one theme",
	}
	f.embedder.vectors["# First\n\nshared theme"] = []float32{1, 0, 0}
	f.embedder.vectors["# Second\n\nshared theme again"] = []float32{1, 0, 0}

	vn := f.register(t, owner)
	require.NoError(t, f.svc.Process(ctx, owner, vn.ID()))

	edges, err := f.edgeRepo.FindByOwner(ctx, owner)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, "100%", edges[0].Label())

	notes, err := f.nodeRepo.FindByKind(ctx, owner, entities.KindNote)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.True(t, edges[0].SourceID().Equals(notes[1].ID()))
	assert.True(t, edges[0].TargetID().Equals(notes[0].ID()))
}

func TestIngestionService_Process_SuggestedLinksEmbeddedInContent(t *testing.T) {
	f := newIngestionFixture(t)
	ctx := context.Background()
	owner := "user-1"

	f.extract.result = &ports.ExtractionResult{
		Concepts: []ports.Concept{
			{
				Title:          "Active Recall",
				Content:        "testing yourself beats rereading",
				SuggestedLinks: []string{"Spaced Repetition", "  ", "Memory Palace"},
			},
		},
	}

	vn := f.register(t, owner)
	require.NoError(t, f.svc.Process(ctx, owner, vn.ID()))

	notes, err := f.nodeRepo.FindByKind(ctx, owner, entities.KindNote)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t,
		"# Active Recall\n\ntesting yourself beats rereading\n\n[[Spaced Repetition]] [[Memory Palace]]",
		notes[0].Content())
	assert.Equal(t, []string{"spaced repetition", "memory palace"}, notes[0].OutgoingLinks())
}

func TestIngestionService_Process_TranscriptionFailure(t *testing.T) {
	f := newIngestionFixture(t)
	ctx := context.Background()
	owner := "user-1"

	f.transcribe.err = pkgerrors.NewExternalError(pkgerrors.ServiceTranscription, errors.New("deadline exceeded"))

	vn := f.register(t, owner)
	err := f.svc.Process(ctx, owner, vn.ID())

	require.Error(t, err)
	assert.True(t, pkgerrors.IsExternal(err))

	persisted, findErr := f.voiceRepo.FindByID(ctx, owner, vn.ID())
	require.NoError(t, findErr)
	assert.Equal(t, entities.StatusError, persisted.Status())
	assert.Equal(t, "external service 'transcription' error", persisted.ErrorMessage())
	assert.Empty(t, persisted.Transcription())

	notes, listErr := f.nodeRepo.FindByOwner(ctx, owner)
	require.NoError(t, listErr)
	assert.Empty(t, notes)
}

func TestIngestionService_Process_ExtractionFailureKeepsTranscript(t *testing.T) {
	f := newIngestionFixture(t)
	ctx := context.Background()
	owner := "user-1"

	f.extract.err = pkgerrors.NewExternalError(pkgerrors.ServiceExtraction, errors.New("rate limited"))

	vn := f.register(t, owner)
	err := f.svc.Process(ctx, owner, vn.ID())

	require.Error(t, err)

	persisted, findErr := f.voiceRepo.FindByID(ctx, owner, vn.ID())
	require.NoError(t, findErr)
	assert.Equal(t, entities.StatusError, persisted.Status())
	assert.Equal(t, "ideas about memory techniques", persisted.Transcription())
}

func TestIngestionService_Process_MidBatchFailureKeepsEarlierNotes(t *testing.T) {
	// The second concept's embedding call fails; the first concept's note
	// survives and the voice note lands in the error state.
	f := newIngestionFixture(t)
	ctx := context.Background()
	owner := "user-1"

	f.extract.result = &ports.ExtractionResult{
		Concepts: []ports.Concept{
			{Title: "Kept", Content: "created before the failure"},
			{Title: "Lost", Content: "embedding fails here"},
		},
	}
	f.embedder.vectors["# Kept\n\ncreated before the failure"] = []float32{1, 0, 0}
	f.embedder.failAfter = 1

	vn := f.register(t, owner)
	err := f.svc.Process(ctx, owner, vn.ID())

	require.Error(t, err)

	persisted, findErr := f.voiceRepo.FindByID(ctx, owner, vn.ID())
	require.NoError(t, findErr)
	assert.Equal(t, entities.StatusError, persisted.Status())

	notes, listErr := f.nodeRepo.FindByKind(ctx, owner, entities.KindNote)
	require.NoError(t, listErr)
	require.Len(t, notes, 2)
	assert.True(t, notes[0].HasEmbedding())
	assert.False(t, notes[1].HasEmbedding())
}

func TestIngestionService_Process_ExtractorSeesExistingNoteExcerpts(t *testing.T) {
	f := newIngestionFixture(t)
	ctx := context.Background()
	owner := "user-1"

	existing, err := entities.NewNode(owner, entities.KindNote, "# Prior Art\n\nolder thinking", valueobjects.Position{}, domainservices.NewDefaultContentParser())
	require.NoError(t, err)
	require.NoError(t, f.nodeRepo.Save(ctx, existing))

	vn := f.register(t, owner)
	require.NoError(t, f.svc.Process(ctx, owner, vn.ID()))

	assert.Equal(t, "ideas about memory techniques", f.extract.gotTranscript)
	require.Len(t, f.extract.gotExcerpts, 1)
	assert.Equal(t, "# Prior Art\n\nolder thinking", f.extract.gotExcerpts[0])
}

func TestIngestionService_Process_NotFound(t *testing.T) {
	f := newIngestionFixture(t)

	err := f.svc.Process(context.Background(), "user-1", valueobjects.NewVoiceNoteID())

	assert.True(t, pkgerrors.IsNotFound(err))
}
