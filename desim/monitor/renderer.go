package monitor

import (
	"encoding/csv"
	"io"
	"strconv"
)

// Renderer consumes a timeline's breakpoints for display. The core never
// formats output itself; plotting and pretty-printing backends implement
// this seam and are injected by the caller.
type Renderer interface {
	Render(name string, series []Sample) error
}

// CSVRenderer is the reference Renderer: one "time,value" row per
// breakpoint, preceded by a header row carrying the series name.
type CSVRenderer struct {
	W io.Writer
}

// Render implements Renderer.
func (r CSVRenderer) Render(name string, series []Sample) error {
	w := csv.NewWriter(r.W)

	if err := w.Write([]string{"time", name}); err != nil {
		return err
	}
	for _, s := range series {
		row := []string{
			strconv.FormatFloat(s.Time, 'g', -1, 64),
			strconv.FormatFloat(s.Value, 'g', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
