// Package receipt renders the printable submission receipt and collection
// report for an exhibit as standalone HTML documents.
package receipt

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"time"

	"exhibitcore/pkg/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

// ErrNotCollected is returned when a collection report is requested for an
// exhibit that has not been collected.
var ErrNotCollected = errors.New("cannot generate collection report for uncollected exhibit")

// DefaultUnit heads every document when no unit name is configured.
const DefaultUnit = "Forensic Exhibits Unit"

// ContentType is the media type of rendered documents.
const ContentType = "text/html; charset=utf-8"

// Options brand the documents and fix the generation clock.
type Options struct {
	Unit     string
	System   string
	Location *time.Location
	Now      func() time.Time
}

// Renderer renders exhibit documents. It is safe for concurrent use.
type Renderer struct {
	submission *template.Template
	collection *template.Template
	opts       Options
}

type signature struct {
	Role string
	Name string
}

type page struct {
	Title       string
	Unit        string
	System      string
	Heading     string
	Generated   string
	Exhibit     domain.Exhibit
	CollectedBy string
}

var funcs = template.FuncMap{
	"longDate": func(d domain.Date) string {
		if d.IsZero() {
			return "Not specified"
		}
		return d.Format("January 2, 2006")
	},
	"signer": func(role, name string) signature {
		return signature{Role: role, Name: name}
	},
}

// New parses the embedded templates.
func New(opts Options) (*Renderer, error) {
	if opts.Unit == "" {
		opts.Unit = DefaultUnit
	}
	if opts.System == "" {
		opts.System = "Exhibit Management System"
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	parse := func(body string) (*template.Template, error) {
		return template.New("layout").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+body)
	}
	submission, err := parse("submission.html")
	if err != nil {
		return nil, fmt.Errorf("parse submission template: %w", err)
	}
	collection, err := parse("collection.html")
	if err != nil {
		return nil, fmt.Errorf("parse collection template: %w", err)
	}
	return &Renderer{submission: submission, collection: collection, opts: opts}, nil
}

func (r *Renderer) page(title, heading string, e domain.Exhibit) page {
	p := page{
		Title:       fmt.Sprintf("%s_%s", title, e.SerialNumber),
		Unit:        r.opts.Unit,
		System:      r.opts.System,
		Heading:     heading,
		Generated:   r.opts.Now().In(r.opts.Location).Format("January 2, 2006 15:04:05 MST"),
		Exhibit:     e,
		CollectedBy: "Not specified",
	}
	if e.CollectedBy != nil && *e.CollectedBy != "" {
		p.CollectedBy = *e.CollectedBy
	}
	return p
}

// RenderSubmissionReceipt writes the intake receipt for any exhibit.
func (r *Renderer) RenderSubmissionReceipt(w io.Writer, e domain.Exhibit) error {
	return r.submission.ExecuteTemplate(w, "layout", r.page("Submission_Receipt", "FORENSIC EXHIBIT SUBMISSION RECEIPT", e))
}

// RenderCollectionReport writes the hand-back report; the exhibit must be collected.
func (r *Renderer) RenderCollectionReport(w io.Writer, e domain.Exhibit) error {
	if !e.IsCollected() {
		return ErrNotCollected
	}
	return r.collection.ExecuteTemplate(w, "layout", r.page("Collection_Report", "FORENSIC EXHIBIT COLLECTION REPORT", e))
}
