package report

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"

	"go.trai.ch/fresh/internal/core/domain"
)

// UnitReport is the JSON form of one unit's outcome.
type UnitReport struct {
	Unit       string              `json:"unit"`
	Fresh      bool                `json:"fresh"`
	Reason     *domain.DirtyReason `json:"reason,omitempty"`
	Hash       string              `json:"fingerprint,omitempty"`
	ElapsedMS  int64               `json:"elapsed_ms"`
	Error      string              `json:"error,omitempty"`
	NotChecked bool                `json:"not_checked,omitempty"`
}

// Document is written by JSON.Flush.
type Document struct {
	Units []UnitReport `json:"units"`
}

// JSON implements ports.Renderer by writing one document once the run ends.
// Units appear in plan order. Build output is dropped.
type JSON struct {
	w io.Writer

	mu    sync.Mutex
	order []string
	units map[string]*UnitReport
}

// NewJSON creates a JSON renderer writing to w.
func NewJSON(w io.Writer) *JSON {
	if w == nil {
		w = os.Stdout
	}
	return &JSON{w: w, units: make(map[string]*UnitReport)}
}

func (r *JSON) entry(unit string) *UnitReport {
	e, ok := r.units[unit]
	if !ok {
		e = &UnitReport{Unit: unit, NotChecked: true}
		r.units[unit] = e
		r.order = append(r.order, unit)
	}
	return e
}

// OnPlan fixes the order of the document.
func (r *JSON) OnPlan(units []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range units {
		r.entry(u)
	}
}

// OnVerdict records a verdict.
func (r *JSON) OnVerdict(unit string, v domain.Verdict) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := r.entry(unit)
	e.NotChecked = false
	e.Fresh = v.Fresh
	e.Hash = v.Hash
	if !v.Fresh {
		reason := v.Reason
		e.Reason = &reason
	}
}

// OnUnitLog drops build output.
func (r *JSON) OnUnitLog(string, []byte) {}

// OnUnitComplete records the outcome of a unit.
func (r *JSON) OnUnitComplete(unit string, elapsed time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := r.entry(unit)
	e.ElapsedMS = elapsed.Milliseconds()
	if err != nil {
		e.Error = err.Error()
	}
}

// Flush writes the document.
func (r *JSON) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc := Document{Units: make([]UnitReport, 0, len(r.order))}
	for _, u := range r.order {
		doc.Units = append(doc.Units, *r.units[u])
	}

	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
