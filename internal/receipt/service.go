package receipt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/reformai/receipt-reform/internal/extraction"
)

// MaxUploadSize is the file-intake ceiling. Larger uploads are rejected
// before the extraction invoker is involved.
const MaxUploadSize = 10 << 20 // 10 MiB

var (
	// ErrFileTooLarge is returned for uploads above MaxUploadSize.
	ErrFileTooLarge = errors.New("file is too large; maximum size is 10 MiB")
	// ErrUnsupportedType is returned for media types other than images and PDF.
	ErrUnsupportedType = errors.New("unsupported file type; accepted types are images and PDF")
	// ErrSuperseded is returned when an extraction finished after the user
	// already reset or re-uploaded; its result was discarded.
	ErrSuperseded = errors.New("result superseded by a newer upload")
)

// Service drives the upload → extraction → normalization → store workflow
// for the single live record.
type Service struct {
	store     *Store
	extractor extraction.Extractor
}

// NewService creates a Service with a fresh store.
func NewService(extractor extraction.Extractor) *Service {
	return &Service{store: NewStore(), extractor: extractor}
}

// AcceptedMediaType reports whether the intake constraints allow this type.
func AcceptedMediaType(mimeType string) bool {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	return strings.HasPrefix(mimeType, "image/") || mimeType == "application/pdf"
}

// ProcessDocument runs one full upload cycle and returns the displayed view
// of the new record. Intake violations never reach the extractor. Extraction
// and normalization failures collapse into the store's failed state with a
// human-readable message; no partial record survives.
func (s *Service) ProcessDocument(ctx context.Context, filename string, data []byte, mimeType string) (*Record, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty upload %q", filename)
	}
	if len(data) > MaxUploadSize {
		return nil, ErrFileTooLarge
	}
	if !AcceptedMediaType(mimeType) {
		return nil, ErrUnsupportedType
	}

	generation := s.store.Begin(data, mimeType)

	candidate, err := s.extractor.Extract(ctx, data, mimeType)
	if err != nil {
		slog.Error("Failed to extract document",
			"filename", filename,
			"content_type", mimeType,
			"file_size", len(data),
			"error", err,
		)
		s.store.FailExtraction(generation, userMessage(err))
		return nil, fmt.Errorf("extracting document: %w", err)
	}

	record, err := Normalize(candidate)
	if err != nil {
		slog.Error("Failed to normalize candidate", "filename", filename, "error", err)
		s.store.FailExtraction(generation, userMessage(err))
		return nil, fmt.Errorf("normalizing candidate: %w", err)
	}

	if !s.store.CompleteExtraction(generation, record) {
		slog.Warn("Discarding stale extraction result", "filename", filename, "generation", generation)
		return nil, ErrSuperseded
	}

	return s.store.Snapshot(), nil
}

// Current returns the displayed view of the live record.
func (s *Service) Current() (*Record, error) {
	view := s.store.Snapshot()
	if view == nil {
		return nil, ErrNoRecord
	}
	return view, nil
}

// EditDate applies a date correction and returns the updated view.
func (s *Service) EditDate(newDate string) (*Record, error) {
	if err := s.store.ApplyDateEdit(newDate); err != nil {
		return nil, err
	}
	return s.store.Snapshot(), nil
}

// Reset discards the live record so a new document can be uploaded.
func (s *Service) Reset() {
	s.store.Clear()
}

// State returns the workflow phase, for the collaborator UI.
func (s *Service) State() State {
	return s.store.State()
}

// FailureMessage returns the message of the last failed cycle, or "".
func (s *Service) FailureMessage() string {
	return s.store.FailureMessage()
}

// Source returns the uploaded document for the original-preview pane.
func (s *Service) Source() ([]byte, string, error) {
	data, mimeType := s.store.Source()
	if len(data) == 0 {
		return nil, "", ErrNoRecord
	}
	return data, mimeType, nil
}

// ExportJSON serializes the displayed record as indented JSON. This is the
// machine-readable interchange format; its shape is the data contract.
func (s *Service) ExportJSON() ([]byte, error) {
	view := s.store.Snapshot()
	if view == nil {
		return nil, ErrNoRecord
	}
	out, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling record: %w", err)
	}
	return out, nil
}

// userMessage collapses extraction and normalization failures into one
// user-facing string; the taxonomy stays in logs and typed errors.
func userMessage(err error) string {
	var extErr *extraction.Error
	if errors.As(err, &extErr) {
		switch extErr.Kind {
		case extraction.KindConfig:
			return "The document service is not configured. Check the API credentials."
		case extraction.KindTransport:
			return "Could not reach the document service. Check your connection and try again."
		case extraction.KindService:
			return "The document service failed to process this file. Please try again."
		case extraction.KindMalformed:
			return "The document could not be read into a structured record. Try a clearer scan."
		}
	}
	var normErr *NormalizeError
	if errors.As(err, &normErr) {
		return fmt.Sprintf("The extracted record is incomplete (%s). Try a clearer scan.", normErr.Field)
	}
	return "Failed to process the document. Please try again."
}
