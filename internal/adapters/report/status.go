package report

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/muesli/termenv"
	"go.trai.ch/fresh/internal/core/domain"
	"go.trai.ch/fresh/internal/ui/output"
	"go.trai.ch/fresh/internal/ui/style"
)

// StatusEntry is what the store holds for one unit.
type StatusEntry struct {
	Unit string
	Key  domain.UnitKey
	// Record is nil when the unit was never committed or Err is set.
	Record *domain.StoredFingerprint
	Err    error
}

// WriteStatus prints one line per entry describing its stored fingerprint.
func WriteStatus(w io.Writer, entries []StatusEntry) error {
	out := output.New(w)
	_, _ = fmt.Fprintln(w, style.Heading.Render("Stored fingerprints"))

	var committed int
	for _, e := range entries {
		prefix := out.String(fmt.Sprintf("[%s]", e.Unit)).Faint().String()
		switch {
		case e.Err != nil && errors.Is(e.Err, domain.ErrMissingRecord):
			symbol := out.String(style.Dot).Foreground(termenv.ANSIYellow).String()
			_, _ = fmt.Fprintf(w, "%s %s never built (%s)\n", prefix, symbol, e.Key)
		case e.Err != nil:
			symbol := out.String(style.Cross).Foreground(termenv.ANSIRed).String()
			_, _ = fmt.Fprintf(w, "%s %s unreadable: %v\n", prefix, symbol, e.Err)
		case e.Record != nil:
			committed++
			symbol := out.String(style.Check).Foreground(termenv.ANSIGreen).String()
			_, _ = fmt.Fprintf(w, "%s %s %s committed %s by build %s\n",
				prefix, symbol, e.Record.Hash,
				e.Record.CommittedAt.UTC().Format(time.RFC3339), shortID(e.Record.BuildID))
		}
	}

	_, err := fmt.Fprintf(w, "%s\n", style.Muted.Render(fmt.Sprintf("%d of %d unit(s) committed", committed, len(entries))))
	return err
}

func shortID(id string) string {
	const n = 8
	if len(id) > n {
		return id[:n]
	}
	return id
}
