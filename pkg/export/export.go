// Package export renders the upcoming heat plan in machine-readable
// formats for commissioning and reporting.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"time"
)

// Entry is one planned heat window of a room: the booking itself plus the
// widened interval the bridge will keep the heating on for.
type Entry struct {
	Room      string    `json:"room"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	HeatFrom  time.Time `json:"heat_from"`
	HeatUntil time.Time `json:"heat_until"`
}

// WriteJSON writes the plan to w as a JSON array.
func WriteJSON(w io.Writer, entries []Entry) error {
	enc := json.NewEncoder(w)
	return enc.Encode(entries)
}

// WriteCSV writes the plan to w in CSV format with RFC 3339 timestamps.
func WriteCSV(w io.Writer, entries []Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"room", "start", "end", "heat_from", "heat_until"}); err != nil {
		return err
	}
	for _, e := range entries {
		rec := []string{
			e.Room,
			e.Start.Format(time.RFC3339),
			e.End.Format(time.RFC3339),
			e.HeatFrom.Format(time.RFC3339),
			e.HeatUntil.Format(time.RFC3339),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
