// Package openai is a minimal HTTP client for the OpenAI API covering the
// two calls the engine makes: text embeddings and structured concept
// extraction.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"notegraph-backend/application/ports"
	pkgerrors "notegraph-backend/pkg/errors"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Client implements ports.EmbeddingProvider and ports.ConceptExtractor
type Client struct {
	httpClient      *http.Client
	baseURL         string
	apiKey          string
	embeddingModel  string
	extractionModel string
	logger          *zap.Logger
}

// NewClient creates an OpenAI client
func NewClient(apiKey, baseURL, embeddingModel, extractionModel string, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient:      &http.Client{Timeout: 120 * time.Second},
		baseURL:         strings.TrimRight(baseURL, "/"),
		apiKey:          apiKey,
		embeddingModel:  embeddingModel,
		extractionModel: extractionModel,
		logger:          logger,
	}
}

type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingsResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed returns the embedding vector for the text
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	input := strings.TrimSpace(text)
	if input == "" {
		input = " "
	}

	var resp embeddingsResponse
	err := c.do(ctx, "/embeddings", embeddingsRequest{
		Model: c.embeddingModel,
		Input: []string{input},
	}, &resp)
	if err != nil {
		return nil, pkgerrors.NewExternalError(pkgerrors.ServiceEmbedding, err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, pkgerrors.NewExternalError(pkgerrors.ServiceEmbedding,
			fmt.Errorf("embeddings response contained no vector"))
	}

	return resp.Data[0].Embedding, nil
}

const extractionSystemPrompt = `You break a voice note transcript into atomic concepts for a personal knowledge graph.
Return JSON with this shape:
{"concepts":[{"title":"...","content":"...","suggestedLinks":["..."],"tags":["..."]}],"summary":"..."}
Each concept is one self-contained idea with a short title and a paragraph of content.
suggestedLinks name existing notes this concept relates to; prefer titles from the provided excerpts.
summary is one or two sentences covering the whole transcript.`

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat *chatFormat   `json:"response_format,omitempty"`
	Temperature    float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Extract breaks the transcript into concepts, steering the model's
// suggested links toward the caller's existing note excerpts
func (c *Client) Extract(ctx context.Context, transcript string, contextExcerpts []string) (*ports.ExtractionResult, error) {
	var user strings.Builder
	user.WriteString("Transcript:\n")
	user.WriteString(transcript)
	if len(contextExcerpts) > 0 {
		user.WriteString("\n\nExisting note excerpts:\n")
		for _, excerpt := range contextExcerpts {
			fmt.Fprintf(&user, "- %s\n", excerpt)
		}
	}

	var resp chatResponse
	err := c.do(ctx, "/chat/completions", chatRequest{
		Model: c.extractionModel,
		Messages: []chatMessage{
			{Role: "system", Content: extractionSystemPrompt},
			{Role: "user", Content: user.String()},
		},
		ResponseFormat: &chatFormat{Type: "json_object"},
		Temperature:    0.2,
	}, &resp)
	if err != nil {
		return nil, pkgerrors.NewExternalError(pkgerrors.ServiceExtraction, err)
	}
	if len(resp.Choices) == 0 {
		return nil, pkgerrors.NewExternalError(pkgerrors.ServiceExtraction,
			fmt.Errorf("chat response contained no choices"))
	}

	var result ports.ExtractionResult
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &result); err != nil {
		return nil, pkgerrors.NewExternalError(pkgerrors.ServiceExtraction,
			fmt.Errorf("model returned malformed JSON: %w", err))
	}

	c.logger.Debug("concept extraction finished",
		zap.Int("concepts", len(result.Concepts)),
		zap.Int("excerpts", len(contextExcerpts)),
	)

	return &result, nil
}

func (c *Client) do(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("openai %s returned %d: %s", path, resp.StatusCode, truncateBody(data))
	}

	return json.Unmarshal(data, out)
}

func truncateBody(data []byte) string {
	const limit = 512
	if len(data) > limit {
		return string(data[:limit]) + "..."
	}
	return string(data)
}

var (
	_ ports.EmbeddingProvider = (*Client)(nil)
	_ ports.ConceptExtractor  = (*Client)(nil)
)
