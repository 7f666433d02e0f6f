// Package speech implements the transcription collaborator on Google
// Cloud Speech-to-Text.
package speech

import (
	"context"
	"strings"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"notegraph-backend/application/ports"
	pkgerrors "notegraph-backend/pkg/errors"
)

const recognizeTimeout = 3 * time.Minute

// Transcriber implements ports.Transcriber using LongRunningRecognize,
// which handles recordings over a minute where synchronous Recognize
// does not.
type Transcriber struct {
	client       *speech.Client
	languageCode string
	logger       *zap.Logger
}

// NewTranscriber creates a transcriber backed by a Cloud Speech client.
// Credentials come from the environment (ADC) unless opts override them.
func NewTranscriber(ctx context.Context, languageCode string, logger *zap.Logger, opts ...option.ClientOption) (*Transcriber, error) {
	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, pkgerrors.NewExternalError(pkgerrors.ServiceTranscription, err)
	}
	if languageCode == "" {
		languageCode = "en-US"
	}

	return &Transcriber{
		client:       client,
		languageCode: languageCode,
		logger:       logger,
	}, nil
}

// Close releases the underlying gRPC connection
func (t *Transcriber) Close() error {
	return t.client.Close()
}

// Transcribe converts the recording to text. Alternatives are joined in
// result order; an empty recording yields an empty transcript without error.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	if len(audio) == 0 {
		return "", nil
	}

	ctx, cancel := context.WithTimeout(ctx, recognizeTimeout)
	defer cancel()

	req := &speechpb.LongRunningRecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			LanguageCode:               t.languageCode,
			Encoding:                   inferEncoding(mimeType),
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	}

	op, err := t.client.LongRunningRecognize(ctx, req)
	if err != nil {
		return "", pkgerrors.NewExternalError(pkgerrors.ServiceTranscription, err)
	}
	resp, err := op.Wait(ctx)
	if err != nil {
		return "", pkgerrors.NewExternalError(pkgerrors.ServiceTranscription, err)
	}

	var parts []string
	for _, result := range resp.Results {
		if len(result.Alternatives) > 0 {
			parts = append(parts, strings.TrimSpace(result.Alternatives[0].Transcript))
		}
	}
	transcript := strings.TrimSpace(strings.Join(parts, " "))

	t.logger.Debug("transcription finished",
		zap.Int("audioBytes", len(audio)),
		zap.Int("transcriptChars", len(transcript)),
	)

	return transcript, nil
}

func inferEncoding(mimeType string) speechpb.RecognitionConfig_AudioEncoding {
	m := strings.ToLower(strings.TrimSpace(mimeType))
	switch {
	case strings.Contains(m, "wav"):
		return speechpb.RecognitionConfig_LINEAR16
	case strings.Contains(m, "flac"):
		return speechpb.RecognitionConfig_FLAC
	case strings.Contains(m, "mp3") || strings.Contains(m, "mpeg"):
		return speechpb.RecognitionConfig_MP3
	case strings.Contains(m, "ogg") || strings.Contains(m, "opus"):
		return speechpb.RecognitionConfig_OGG_OPUS
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED
	}
}

var _ ports.Transcriber = (*Transcriber)(nil)
