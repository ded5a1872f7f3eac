package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sergi/go-diff/diffmatchpatch"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/commitprefix/pkg/config"
	"github.com/Sumatoshi-tech/commitprefix/pkg/search"
	"github.com/Sumatoshi-tech/commitprefix/pkg/vanity"
)

const yamlIndent = 2

// renderer writes an Outcome in the configured format.
type renderer struct {
	w        io.Writer
	format   string
	showDiff bool

	match   *color.Color
	removed *color.Color
	added   *color.Color
	heading *color.Color
}

func newRenderer(w io.Writer, cfg config.OutputConfig) *renderer {
	r := &renderer{
		w:        w,
		format:   cfg.Format,
		showDiff: cfg.ShowDiff,
		match:    color.New(color.FgGreen, color.Bold),
		removed:  color.New(color.FgRed),
		added:    color.New(color.FgGreen),
		heading:  color.New(color.Bold),
	}

	if cfg.NoColor {
		for _, c := range []*color.Color{r.match, r.removed, r.added, r.heading} {
			c.DisableColor()
		}
	}

	return r
}

// Render writes out.
func (r *renderer) Render(out vanity.Outcome) error {
	switch r.format {
	case config.FormatJSON:
		return r.renderJSON(out)
	case config.FormatYAML:
		return r.renderYAML(out)
	default:
		return r.renderText(out)
	}
}

func (r *renderer) renderJSON(out vanity.Outcome) error {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")

	err := enc.Encode(out)
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	return nil
}

func (r *renderer) renderYAML(out vanity.Outcome) error {
	enc := yaml.NewEncoder(r.w)
	enc.SetIndent(yamlIndent)

	err := enc.Encode(out)
	if err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}

	return enc.Close()
}

func (r *renderer) renderText(out vanity.Outcome) error {
	verb := "Found"
	if out.Applied {
		verb = "Rewrote " + out.Ref + " to"
	}

	r.heading.Fprintf(r.w, "%s %s\n", verb, r.highlight(out.Hash, len(out.Prefix)))

	before := time.Unix(out.Before, 0).UTC()
	after := time.Unix(out.After, 0).UTC()

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Options.SeparateColumns = false
	tbl.Style().Options.SeparateRows = false

	tbl.AppendRows([]table.Row{
		{"prefix", out.Prefix},
		{"original", out.Original},
		{"field", string(out.Field)},
		{"timestamp", fmt.Sprintf("%d -> %d (%s)", out.Before, out.After,
			humanize.RelTime(after, before, "earlier", "later"))},
		{"date", after.Format(time.RFC3339)},
		{"attempts", fmt.Sprintf("%s (expected %s)", humanize.Comma(out.Attempts),
			humanize.SIWithDigits(out.Expected, 1, ""))},
		{"rate", humanize.SIWithDigits(search.Progress{Attempts: out.Attempts, Elapsed: out.Elapsed}.Rate(), 2, "H/s")},
		{"elapsed", out.Elapsed.Round(time.Millisecond).String()},
		{"workers", fmt.Sprintf("%d (found by #%d)", out.Workers, out.Worker)},
	})

	if out.Summary != "" {
		tbl.AppendRows([]table.Row{
			{"commit", out.Summary},
			{"author", out.Author + " " + out.AuthorDate},
			{"committer", out.Committer + " " + out.CommitterDate},
		})
	}

	_, err := fmt.Fprintln(r.w, tbl.Render())
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if r.showDiff {
		r.renderDiff(string(out.OriginalText), string(out.RewrittenText))
	}

	return nil
}

// highlight colors the first n characters of hash.
func (r *renderer) highlight(hash string, n int) string {
	n = min(n, len(hash))

	return r.match.Sprint(hash[:n]) + hash[n:]
}

// renderDiff prints a line diff of two commit objects.
func (r *renderer) renderDiff(before, after string) {
	dmp := diffmatchpatch.New()

	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	for _, d := range diffs {
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}

			line = strings.TrimSuffix(line, "\n")

			switch d.Type {
			case diffmatchpatch.DiffDelete:
				r.removed.Fprintln(r.w, "-"+line)
			case diffmatchpatch.DiffInsert:
				r.added.Fprintln(r.w, "+"+line)
			case diffmatchpatch.DiffEqual:
				fmt.Fprintln(r.w, " "+line)
			}
		}
	}
}
