package receipt

import (
	"errors"
	"sync"
)

// State is the workflow phase of the single live record.
type State string

const (
	StateEmpty      State = "empty"
	StateExtracting State = "extracting"
	StateReady      State = "ready"
	StateFailed     State = "failed"
)

// ErrInvalidDate is returned when a date edit is neither an ISO calendar
// date nor parseable to one; the prior value is retained.
var ErrInvalidDate = errors.New("not a valid calendar date")

// ErrNoRecord is returned when an operation needs a live record and there is
// none.
var ErrNoRecord = errors.New("no record available")

// Store holds the single live record for one upload-to-reset cycle, plus the
// pending user edits merged into the displayed view. The workflow is
// logically single-writer; the mutex only covers the handler goroutines that
// share one session's store.
//
// Every upload bumps a generation counter. Extraction results carry the
// generation they started under and are dropped when it no longer matches,
// so a reset during a pending extraction can never resurrect a stale record.
type Store struct {
	mu         sync.Mutex
	state      State
	generation uint64
	record     *Record
	editedDate string // pending date edit, "" when none
	failure    string
	sourceData []byte
	sourceMime string
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{state: StateEmpty}
}

// Begin discards any prior record, remembers the uploaded source document
// for the preview pane, and moves to extracting. It returns the generation
// the eventual result must present to be applied.
func (s *Store) Begin(sourceData []byte, mimeType string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.state = StateExtracting
	s.record = nil
	s.editedDate = ""
	s.failure = ""
	s.sourceData = sourceData
	s.sourceMime = mimeType
	return s.generation
}

// CompleteExtraction installs the normalized record. A stale generation is a
// no-op returning false: the user has already abandoned that upload.
func (s *Store) CompleteExtraction(generation uint64, record *Record) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if generation != s.generation || s.state != StateExtracting {
		return false
	}
	s.state = StateReady
	s.record = record
	return true
}

// FailExtraction records a human-readable failure message. Stale generations
// are dropped the same way as in CompleteExtraction.
func (s *Store) FailExtraction(generation uint64, message string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if generation != s.generation || s.state != StateExtracting {
		return false
	}
	s.state = StateFailed
	s.record = nil
	s.failure = message
	return true
}

// ApplyDateEdit stores a corrected date on the displayed view. The new value
// must be an ISO calendar date or parseable to one; otherwise the edit is
// rejected and the prior value retained. Applying the same date twice is the
// same as applying it once.
func (s *Store) ApplyDateEdit(newDate string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReady || s.record == nil {
		return ErrNoRecord
	}
	date, ok := CoerceDate(newDate)
	if !ok {
		return ErrInvalidDate
	}
	s.editedDate = date
	return nil
}

// Clear discards the live record and returns to empty. The generation bump
// guarantees a still-pending extraction result is dropped on arrival.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.state = StateEmpty
	s.record = nil
	s.editedDate = ""
	s.failure = ""
	s.sourceData = nil
	s.sourceMime = ""
}

// Snapshot returns the currently displayed view: a deep copy of the record
// with pending edits merged in, safe to hand to the renderer.
func (s *Store) Snapshot() *Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.record == nil {
		return nil
	}
	view := s.record.Clone()
	if s.editedDate != "" {
		view.Date = s.editedDate
	}
	return view
}

// State returns the current workflow phase.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// FailureMessage returns the user-facing message of the last failed
// extraction, or "".
func (s *Store) FailureMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failure
}

// Source returns the uploaded document backing the live cycle.
func (s *Store) Source() ([]byte, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sourceData, s.sourceMime
}
