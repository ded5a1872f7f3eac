package commands

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/Sumatoshi-tech/commitprefix/pkg/prefix"
	"github.com/Sumatoshi-tech/commitprefix/pkg/search"
)

// progressPrinter rewrites a single status line on a terminal stream.
type progressPrinter struct {
	mu       sync.Mutex
	w        io.Writer
	expected float64
	printed  bool
}

func newProgressPrinter(w io.Writer, rawPrefix string) *progressPrinter {
	pp := &progressPrinter{w: w}

	pattern, err := prefix.Parse(rawPrefix)
	if err == nil {
		pp.expected = pattern.ExpectedAttempts()
	}

	return pp
}

// Print renders one progress snapshot.
func (pp *progressPrinter) Print(p search.Progress) {
	pp.mu.Lock()
	defer pp.mu.Unlock()

	line := fmt.Sprintf("%s hashes, %s, %s elapsed",
		humanize.Comma(p.Attempts),
		humanize.SIWithDigits(p.Rate(), 2, "H/s"),
		p.Elapsed.Round(time.Second),
	)

	if pp.expected > 0 {
		line += fmt.Sprintf(" (%.0f%% of expected %s)",
			100*float64(p.Attempts)/pp.expected, humanize.SIWithDigits(pp.expected, 1, ""))
	}

	fmt.Fprintf(pp.w, "\r\033[K%s", line)

	pp.printed = true
}

// Finish ends the status line. Safe on a nil receiver.
func (pp *progressPrinter) Finish() {
	if pp == nil {
		return
	}

	pp.mu.Lock()
	defer pp.mu.Unlock()

	if pp.printed {
		fmt.Fprintln(pp.w)
	}
}
