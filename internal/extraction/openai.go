package extraction

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	"github.com/reformai/receipt-reform/internal/schema"
)

const openaiCallTimeout = 60 * time.Second

// OpenAI implements Extractor using an OpenAI vision model. Unlike Gemini
// there is no native response schema, so the JSON-Schema is embedded in the
// system prompt and the output is validated locally.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI creates an OpenAI extractor.
func NewOpenAI(apiKey, modelName string) (*OpenAI, error) {
	if apiKey == "" {
		return nil, newError(KindConfig, "openai api key is required", nil)
	}
	if modelName == "" {
		modelName = openai.GPT4o
	}
	return &OpenAI{client: openai.NewClient(apiKey), model: modelName}, nil
}

// Extract analyzes a receipt/invoice document and returns the candidate
// record the model produced.
func (o *OpenAI) Extract(ctx context.Context, documentData []byte, mimeType string) (*Candidate, error) {
	rid := uuid.New().String()
	start := time.Now()
	slog.Info("extract.start", "req_id", rid, "provider", "openai", "mime_type", mimeType, "size", len(documentData))

	ctx, cancel := context.WithTimeout(ctx, openaiCallTimeout)
	defer cancel()

	pngData, err := prepareDocument(documentData, mimeType)
	if err != nil {
		return nil, newError(KindMalformed, "preparing document", err)
	}

	schemaJSON, err := json.Marshal(schema.JSONSchema())
	if err != nil {
		return nil, newError(KindConfig, "marshaling schema", err)
	}

	req := openai.ChatCompletionRequest{
		Model: o.model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: "You are an expert at reading receipts and invoices. Return ONLY JSON matching this schema:\n" +
					string(schemaJSON),
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: extractionPrompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngData),
							Detail: openai.ImageURLDetailHigh,
						},
					},
				},
			},
		},
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		slog.Error("extract.transport_error", "req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, newError(KindTransport, "calling openai", err)
	}

	if len(resp.Choices) == 0 {
		slog.Error("extract.empty_response", "req_id", rid, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, newError(KindService, "no choices in openai response", nil)
	}

	candidate, err := parseCandidate(resp.Choices[0].Message.Content)
	if err != nil {
		slog.Error("extract.malformed_response", "req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, newError(KindMalformed, "parsing candidate record", err)
	}

	slog.Info("extract.ok", "req_id", rid, "elapsed_ms", time.Since(start).Milliseconds())
	return candidate, nil
}

// Close is a no-op; the OpenAI client holds no connections.
func (o *OpenAI) Close() error { return nil }

// NewExtractor selects a provider by name.
func NewExtractor(provider, geminiKey, geminiModel, openaiKey, openaiModel string) (Extractor, error) {
	switch provider {
	case "gemini":
		return NewGemini(geminiKey, geminiModel)
	case "openai":
		return NewOpenAI(openaiKey, openaiModel)
	default:
		return nil, newError(KindConfig, fmt.Sprintf("unknown provider %q", provider), nil)
	}
}
