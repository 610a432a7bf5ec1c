package extraction

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"github.com/reformai/receipt-reform/internal/schema"
)

const geminiCallTimeout = 60 * time.Second

// Gemini implements Extractor using Google Gemini structured output.
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGemini creates a Gemini extractor. The response schema is derived from
// the field schema so the model is constrained to the extraction contract.
func NewGemini(apiKey, modelName string) (*Gemini, error) {
	if apiKey == "" {
		return nil, newError(KindConfig, "gemini api key is required", nil)
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, newError(KindConfig, "creating gemini client", err)
	}

	model := client.GenerativeModel(modelName)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = schema.GenaiSchema()

	return &Gemini{client: client, model: model}, nil
}

// Extract analyzes a receipt/invoice document and returns the candidate
// record Gemini produced.
func (g *Gemini) Extract(ctx context.Context, documentData []byte, mimeType string) (*Candidate, error) {
	rid := uuid.New().String()
	start := time.Now()
	slog.Info("extract.start", "req_id", rid, "provider", "gemini", "mime_type", mimeType, "size", len(documentData))

	ctx, cancel := context.WithTimeout(ctx, geminiCallTimeout)
	defer cancel()

	pngData, err := prepareDocument(documentData, mimeType)
	if err != nil {
		return nil, newError(KindMalformed, "preparing document", err)
	}

	resp, err := g.model.GenerateContent(ctx,
		genai.ImageData("png", pngData),
		genai.Text(extractionPrompt),
	)
	if err != nil {
		slog.Error("extract.transport_error", "req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, newError(KindTransport, "generating content", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		slog.Error("extract.empty_response", "req_id", rid, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, newError(KindService, "no response from gemini", nil)
	}

	var out strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			out.WriteString(string(text))
		}
	}
	if out.Len() == 0 {
		return nil, newError(KindService, "no text parts in gemini response", nil)
	}

	candidate, err := parseCandidate(out.String())
	if err != nil {
		slog.Error("extract.malformed_response", "req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, newError(KindMalformed, "parsing candidate record", err)
	}

	slog.Info("extract.ok", "req_id", rid, "elapsed_ms", time.Since(start).Milliseconds())
	return candidate, nil
}

// Close closes the underlying client.
func (g *Gemini) Close() error {
	if g.client == nil {
		return errors.New("gemini client not initialized")
	}
	return g.client.Close()
}
