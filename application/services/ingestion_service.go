package services

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"go.uber.org/zap"

	"notegraph-backend/application/ports"
	"notegraph-backend/domain/core/entities"
	"notegraph-backend/domain/core/valueobjects"
	"notegraph-backend/domain/events"
	pkgerrors "notegraph-backend/pkg/errors"
)

const (
	// contextExcerptLimit caps how many existing notes steer extraction
	contextExcerptLimit = 20
	// excerptLength is how much of each note the extractor sees
	excerptLength = 100
	// conceptGridSpacing is the horizontal distance between notes created
	// in one pipeline run
	conceptGridSpacing = 350.0
)

// IngestionService drives a voice note through the pipeline: transcription,
// concept extraction, per-concept note creation and similarity linking.
// Each run is a single sequential pass with no internal retries; the first
// failure moves the voice note to the error state and aborts, keeping any
// notes created before the failure.
type IngestionService struct {
	voiceRepo  ports.VoiceNoteRepository
	nodeRepo   ports.NodeRepository
	audioStore ports.AudioStore
	transcribe ports.Transcriber
	extract    ports.ConceptExtractor
	similarity *SimilarityService
	parser     entities.LinkExtractor
	publisher  ports.EventPublisher
	logger     *zap.Logger
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(
	voiceRepo ports.VoiceNoteRepository,
	nodeRepo ports.NodeRepository,
	audioStore ports.AudioStore,
	transcriber ports.Transcriber,
	extractor ports.ConceptExtractor,
	similarity *SimilarityService,
	parser entities.LinkExtractor,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *IngestionService {
	return &IngestionService{
		voiceRepo:  voiceRepo,
		nodeRepo:   nodeRepo,
		audioStore: audioStore,
		transcribe: transcriber,
		extract:    extractor,
		similarity: similarity,
		parser:     parser,
		publisher:  publisher,
		logger:     logger,
	}
}

// RegisterUpload records an already-uploaded recording as a voice note in
// the uploaded state, ready for Process. The upload collaborator owns the
// recording→uploaded transition; the engine starts tracking here.
func (s *IngestionService) RegisterUpload(ctx context.Context, ownerID, audioRef string, durationSeconds float64) (*entities.VoiceNote, error) {
	voiceNote, err := entities.NewVoiceNote(ownerID, audioRef, durationSeconds)
	if err != nil {
		return nil, err
	}

	if err := s.voiceRepo.Save(ctx, voiceNote); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to save voice note")
	}

	s.logger.Info("voice note registered",
		zap.String("voiceNoteID", voiceNote.ID().String()),
		zap.String("ownerID", ownerID),
	)

	return voiceNote, nil
}

// GetVoiceNote retrieves a voice note by id
func (s *IngestionService) GetVoiceNote(ctx context.Context, ownerID string, id valueobjects.VoiceNoteID) (*entities.VoiceNote, error) {
	return s.voiceRepo.FindByID(ctx, ownerID, id)
}

// ListVoiceNotes returns all of an owner's voice notes
func (s *IngestionService) ListVoiceNotes(ctx context.Context, ownerID string) ([]*entities.VoiceNote, error) {
	return s.voiceRepo.FindByOwner(ctx, ownerID)
}

// ListVoiceNotesByStatus returns an owner's voice notes in one pipeline state
func (s *IngestionService) ListVoiceNotesByStatus(ctx context.Context, ownerID string, status entities.VoiceNoteStatus) ([]*entities.VoiceNote, error) {
	return s.voiceRepo.FindByStatus(ctx, ownerID, status)
}

// Process runs the full ingestion pipeline for one voice note. Re-invoking
// on the same id restarts from transcribing regardless of prior results,
// which can duplicate notes from an earlier partial run. There is no
// cancellation beyond the deadlines of the pending external call.
func (s *IngestionService) Process(ctx context.Context, ownerID string, id valueobjects.VoiceNoteID) error {
	voiceNote, err := s.voiceRepo.FindByID(ctx, ownerID, id)
	if err != nil {
		return err
	}

	if err := voiceNote.BeginTranscription(); err != nil {
		return err
	}
	if err := s.save(ctx, voiceNote); err != nil {
		return err
	}

	audio, mimeType, err := s.audioStore.Fetch(ctx, voiceNote.AudioRef())
	if err != nil {
		return s.fail(ctx, voiceNote, err)
	}

	transcript, err := s.transcribe.Transcribe(ctx, audio, mimeType)
	if err != nil {
		return s.fail(ctx, voiceNote, err)
	}

	if err := voiceNote.BeginProcessing(transcript); err != nil {
		return err
	}
	if err := s.save(ctx, voiceNote); err != nil {
		return err
	}

	excerpts, err := s.gatherExcerpts(ctx, ownerID)
	if err != nil {
		return s.fail(ctx, voiceNote, err)
	}

	result, err := s.extract.Extract(ctx, transcript, excerpts)
	if err != nil {
		return s.fail(ctx, voiceNote, err)
	}

	// Concepts are laid out left to right from a randomized origin so
	// separate runs do not stack their notes on top of each other.
	originX := rand.Float64() * 1000
	originY := rand.Float64() * 600

	for i, concept := range result.Concepts {
		if err := s.createConceptNote(ctx, ownerID, voiceNote, concept, originX+float64(i)*conceptGridSpacing, originY); err != nil {
			return s.fail(ctx, voiceNote, err)
		}
	}

	if err := voiceNote.Complete(result.Summary); err != nil {
		return err
	}
	if err := s.save(ctx, voiceNote); err != nil {
		return err
	}

	s.logger.Info("ingestion pipeline completed",
		zap.String("voiceNoteID", id.String()),
		zap.Int("concepts", len(result.Concepts)),
	)

	return nil
}

// createConceptNote turns one extracted concept into a note node and links
// it into the live graph. Notes created by earlier concepts in the same run
// are already in the graph and the index, so they are valid neighbors here.
func (s *IngestionService) createConceptNote(ctx context.Context, ownerID string, voiceNote *entities.VoiceNote, concept ports.Concept, x, y float64) error {
	position, err := valueobjects.NewPosition(x, y)
	if err != nil {
		return err
	}

	content := composeConceptContent(concept)
	node, err := entities.NewNode(ownerID, entities.KindNote, content, position, s.parser)
	if err != nil {
		return err
	}
	if err := node.SetSource(entities.SourceVoice, voiceNote.ID().String(), ""); err != nil {
		return err
	}

	if err := s.nodeRepo.Save(ctx, node); err != nil {
		return pkgerrors.Wrap(err, "failed to save concept note")
	}
	s.publishEvents(ctx, node.GetUncommittedEvents())
	node.MarkEventsAsCommitted()

	_, err = s.similarity.LinkBySimilarity(ctx, ownerID, node.ID(), content, DefaultNeighborCount, nil)
	return err
}

// composeConceptContent assembles a note body: heading, body text, and a
// trailing line of delimited references when the extractor suggested links.
func composeConceptContent(concept ports.Concept) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n%s", concept.Title, concept.Content)

	if len(concept.SuggestedLinks) > 0 {
		refs := make([]string, 0, len(concept.SuggestedLinks))
		for _, link := range concept.SuggestedLinks {
			if link = strings.TrimSpace(link); link != "" {
				refs = append(refs, fmt.Sprintf("[[%s]]", link))
			}
		}
		if len(refs) > 0 {
			fmt.Fprintf(&b, "\n\n%s", strings.Join(refs, " "))
		}
	}

	return b.String()
}

// gatherExcerpts collects the openings of the owner's existing notes to
// steer the extractor's suggested links toward real titles.
func (s *IngestionService) gatherExcerpts(ctx context.Context, ownerID string) ([]string, error) {
	notes, err := s.nodeRepo.FindByKind(ctx, ownerID, entities.KindNote)
	if err != nil {
		return nil, err
	}

	excerpts := make([]string, 0, contextExcerptLimit)
	for _, note := range notes {
		if len(excerpts) == contextExcerptLimit {
			break
		}
		excerpts = append(excerpts, truncateRunes(note.Content(), excerptLength))
	}
	return excerpts, nil
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// fail moves the voice note to the error state with the failure's message,
// persists it, and re-raises the original error. A transcript persisted
// before the failure stays on the record.
func (s *IngestionService) fail(ctx context.Context, voiceNote *entities.VoiceNote, cause error) error {
	message := cause.Error()
	if appErr := pkgerrors.GetAppError(cause); appErr != nil {
		message = appErr.Message
	}

	if err := voiceNote.Fail(message); err != nil {
		s.logger.Error("could not mark voice note as failed",
			zap.String("voiceNoteID", voiceNote.ID().String()),
			zap.Error(err),
		)
		return cause
	}
	if err := s.save(ctx, voiceNote); err != nil {
		s.logger.Error("could not persist voice note failure",
			zap.String("voiceNoteID", voiceNote.ID().String()),
			zap.Error(err),
		)
	}

	s.logger.Warn("ingestion pipeline failed",
		zap.String("voiceNoteID", voiceNote.ID().String()),
		zap.String("message", message),
	)

	return cause
}

func (s *IngestionService) save(ctx context.Context, voiceNote *entities.VoiceNote) error {
	if err := s.voiceRepo.Save(ctx, voiceNote); err != nil {
		return pkgerrors.Wrap(err, "failed to save voice note")
	}
	s.publishEvents(ctx, voiceNote.GetUncommittedEvents())
	voiceNote.MarkEventsAsCommitted()
	return nil
}

func (s *IngestionService) publishEvents(ctx context.Context, evts []events.DomainEvent) {
	if s.publisher == nil || len(evts) == 0 {
		return
	}
	if err := s.publisher.PublishBatch(ctx, evts); err != nil {
		s.logger.Warn("failed to publish domain events",
			zap.Int("count", len(evts)),
			zap.Error(err),
		)
	}
}
