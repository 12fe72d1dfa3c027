package supervise

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"unicode/utf8"

	json "github.com/json-iterator/go"
)

// Sink receives dashboard snapshots. Publish is called from the aggregator
// goroutine only; implementations do not need their own locking.
type Sink interface {
	Publish(Snapshot)
}

// NewSink builds a sink for the configured snapshot format.
func NewSink(format string, w io.Writer) (Sink, error) {
	switch format {
	case "table":
		return NewConsoleSink(w), nil
	case "json":
		return NewJSONSink(w), nil
	default:
		return nil, fmt.Errorf("unsupported snapshot format: %s", format)
	}
}

// NopSink discards snapshots.
type NopSink struct{}

func (NopSink) Publish(Snapshot) {}

// ConsoleSink renders the dashboard table in place, repainting over the
// previous frame with ANSI cursor movement.
type ConsoleSink struct {
	w     io.Writer
	lines int
}

// NewConsoleSink writes to w, or stdout when w is nil.
func NewConsoleSink(w io.Writer) *ConsoleSink {
	if w == nil {
		w = os.Stdout
	}
	return &ConsoleSink{w: w}
}

func (c *ConsoleSink) Publish(snap Snapshot) {
	var buf bytes.Buffer
	if c.lines > 0 {
		fmt.Fprintf(&buf, "\x1b[%dA\x1b[J", c.lines)
	}

	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Inst\tStatus\tCurrent Step\tRuns\tOK\tFail\tLast URL\tLast Detail")
	for _, ws := range snap.Workers {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
			ws.ID, ws.Status, ws.CurrentStep,
			ws.Runs, ws.Successes, ws.Failures,
			truncate(ws.LastURL, 40), truncate(ws.LastDetail, 60))
	}
	fmt.Fprintf(tw, "Totals\t\t\t%d\t%d\t%d\tOngoing: %d\t\n",
		snap.Totals.Runs, snap.Totals.Successes, snap.Totals.Failures,
		snap.Totals.Running)
	tw.Flush()

	c.lines = len(snap.Workers) + 2
	_, _ = c.w.Write(buf.Bytes())
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max]) + "…"
}

// JSONSink writes one snapshot object per frame, newline-delimited, for
// piping into other tools.
type JSONSink struct {
	enc *json.Encoder
}

// NewJSONSink writes to w, or stdout when w is nil.
func NewJSONSink(w io.Writer) *JSONSink {
	if w == nil {
		w = os.Stdout
	}
	return &JSONSink{enc: json.NewEncoder(w)}
}

func (j *JSONSink) Publish(snap Snapshot) {
	_ = j.enc.Encode(snap)
}
