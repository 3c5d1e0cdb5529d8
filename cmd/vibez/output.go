package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"vibez-studio/pkg/vibeapi"
	"vibez-studio/pkg/workspace"

	"github.com/fatih/color"
)

type printer struct {
	w io.Writer

	title  *color.Color
	label  *color.Color
	ok     *color.Color
	warn   *color.Color
	fail   *color.Color
	subtle *color.Color
}

func newPrinter(w io.Writer) *printer {
	return &printer{
		w:      w,
		title:  color.New(color.FgCyan, color.Bold),
		label:  color.New(color.FgYellow),
		ok:     color.New(color.FgGreen),
		warn:   color.New(color.FgYellow),
		fail:   color.New(color.FgRed, color.Bold),
		subtle: color.New(color.Faint),
	}
}

func (p *printer) field(name string, value interface{}) {
	p.label.Fprintf(p.w, "  %-14s", name+":")
	fmt.Fprintf(p.w, " %v\n", value)
}

func (p *printer) dataset(up *vibeapi.UploadResponse) {
	p.title.Fprintf(p.w, "Dataset %s\n", up.Filename)
	p.field("handle", up.FileID)
	p.field("rows", up.Summary.RowCount)
	p.field("numeric", up.Summary.NumericColumnCount)
	p.field("categorical", up.Summary.CategoricalColumnCount)
	if up.Summary.DateColumn != nil {
		p.field("date column", *up.Summary.DateColumn)
	}
	fmt.Fprintln(p.w)
}

func (p *printer) chart(res *vibeapi.RecommendResponse) {
	p.title.Fprintf(p.w, "Recommended chart: %s\n", res.Vibe)
	if res.ChartSpec != nil {
		p.field("renderer", res.ChartSpec.Renderer())
		if !res.ChartSpec.HasData() {
			p.warn.Fprintln(p.w, "  chart has no data")
		}
	}
	p.field("palette", res.Constraints.Palette)
	p.field("axis", res.Constraints.Axis)
	p.field("labeling", res.Constraints.Labeling)
	if res.Rationale != "" {
		p.field("why", res.Rationale)
	}
}

func (p *printer) insights(b *vibeapi.InsightBundle) {
	if b == nil {
		p.warn.Fprintln(p.w, "No insights available for this dataset.")
		return
	}
	if b.AIStory != nil && *b.AIStory != "" {
		p.title.Fprintln(p.w, "Story")
		fmt.Fprintf(p.w, "  %s\n\n", *b.AIStory)
	}
	for _, in := range b.Insights {
		p.title.Fprintf(p.w, "%s %s\n", strings.TrimSpace(in.Icon+" "+in.Title), p.subtle.Sprintf("(%s)", in.Category))
		for _, k := range in.Metrics.SortedKeys() {
			p.field(k, in.Metrics[k])
		}
		if in.Summary != "" {
			fmt.Fprintf(p.w, "  %s\n", in.Summary)
		}
		if in.Recommendation != "" {
			p.ok.Fprintf(p.w, "  → %s\n", in.Recommendation)
		}
		fmt.Fprintln(p.w)
	}
	if len(b.AutoCharts) > 0 {
		p.title.Fprintln(p.w, "Suggested charts")
		for _, c := range b.AutoCharts {
			fmt.Fprintf(p.w, "  - %s [%s] %s\n", c.Title, c.Type, p.subtle.Sprintf("vibez chart --goal %q", c.Prompt))
		}
	}
	for _, s := range b.AISuggestions {
		fmt.Fprintf(p.w, "  * %s\n", s)
	}
}

func (p *printer) answer(rec workspace.QARecord) {
	p.label.Fprintf(p.w, "Q: ")
	fmt.Fprintln(p.w, rec.Question)
	if rec.Success {
		p.ok.Fprintf(p.w, "A: ")
	} else {
		p.warn.Fprintf(p.w, "A: ")
	}
	fmt.Fprintln(p.w, rec.Answer)
}

func (p *printer) success(format string, args ...interface{}) {
	p.ok.Fprintf(p.w, format+"\n", args...)
}

// failure prints err with the detail a user can act on.
func (p *printer) failure(err error) {
	var (
		verr *vibeapi.ValidationError
		terr *vibeapi.TransportError
	)
	switch {
	case errors.As(err, &verr):
		p.fail.Fprintf(p.w, "invalid input: %s\n", verr.Message)
	case errors.As(err, &terr) && terr.StatusCode == 0 && terr.Err != nil:
		p.fail.Fprintf(p.w, "cannot reach the chart API: %v\n", terr.Err)
	default:
		p.fail.Fprintf(p.w, "error: %v\n", err)
	}
}
