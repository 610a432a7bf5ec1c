// Package export renders the displayed record as a self-contained HTML
// document: an interactive screen view, or an inert print view that carries
// its own stylesheet and triggers the platform print dialog.
package export

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"

	"github.com/reformai/receipt-reform/internal/receipt"
)

// Mode selects the layout the document is rendered for.
type Mode int

const (
	// ModeScreen keeps the editing affordances: toolbar, editable date
	// control, screen-only footer.
	ModeScreen Mode = iota
	// ModePrint produces the export snapshot: editable controls resolved to
	// literal text, screen-only elements omitted, print stylesheet and
	// auto-print trigger embedded.
	ModePrint
)

// ErrNothingToExport is returned when there is no displayed record to
// render.
var ErrNothingToExport = errors.New("nothing to export")

// settleDelayMS is how long the print document waits for late-loading fonts
// and styles before triggering the print dialog. A pragmatic tradeoff, not a
// correctness guarantee.
const settleDelayMS = 1000

//go:embed templates/*.tmpl
var templateFS embed.FS

// Renderer is a pure function from displayed record + layout mode to a
// static document; it never mutates the record and needs no live rendering
// surface, which keeps the transformation testable.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	tmpl := template.New("export").Funcs(template.FuncMap{
		"money":    FormatAmount,
		"str":      strVal,
		"has":      present,
		"deref":    derefFloat,
		"positive": positiveFloat,
	})
	tmpl, err := tmpl.ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing export templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// documentView is the template context.
type documentView struct {
	R           *receipt.Record
	Print       bool
	SettleDelay int
}

// Render produces the document for the given mode.
func (r *Renderer) Render(view *receipt.Record, mode Mode) ([]byte, error) {
	if view == nil {
		return nil, ErrNothingToExport
	}

	name := "screen-document"
	if mode == ModePrint {
		name = "print-document"
	}

	var buf bytes.Buffer
	err := r.tmpl.ExecuteTemplate(&buf, name, documentView{
		R:           view,
		Print:       mode == ModePrint,
		SettleDelay: settleDelayMS,
	})
	if err != nil {
		return nil, fmt.Errorf("rendering %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// Screen renders the interactive view.
func (r *Renderer) Screen(view *receipt.Record) ([]byte, error) {
	return r.Render(view, ModeScreen)
}

// Print renders the export snapshot.
func (r *Renderer) Print(view *receipt.Record) ([]byte, error) {
	return r.Render(view, ModePrint)
}

func strVal(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func present(p *string) bool {
	return p != nil && *p != ""
}

func derefFloat(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func positiveFloat(p *float64) bool {
	return p != nil && *p > 0
}
