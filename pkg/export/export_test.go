package export

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func planEntries() []Entry {
	start := time.Date(2026, 1, 12, 9, 0, 0, 0, time.UTC)
	return []Entry{
		{
			Room:      "nave",
			Start:     start,
			End:       start.Add(2 * time.Hour),
			HeatFrom:  start.Add(-30 * time.Minute),
			HeatUntil: start.Add(2*time.Hour + 10*time.Minute),
		},
		{
			Room:      "vestry",
			Start:     start.Add(time.Hour),
			End:       start.Add(3 * time.Hour),
			HeatFrom:  start.Add(40 * time.Minute),
			HeatUntil: start.Add(3*time.Hour + 5*time.Minute),
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var sb strings.Builder
	if err := WriteCSV(&sb, planEntries()); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	want := "room,start,end,heat_from,heat_until\n" +
		"nave,2026-01-12T09:00:00Z,2026-01-12T11:00:00Z,2026-01-12T08:30:00Z,2026-01-12T11:10:00Z\n" +
		"vestry,2026-01-12T10:00:00Z,2026-01-12T12:00:00Z,2026-01-12T09:40:00Z,2026-01-12T12:05:00Z\n"
	if sb.String() != want {
		t.Fatalf("csv output:\n%s\nwant:\n%s", sb.String(), want)
	}
}

func TestWriteJSON(t *testing.T) {
	var sb strings.Builder
	if err := WriteJSON(&sb, planEntries()); err != nil {
		t.Fatalf("write json: %v", err)
	}
	var got []Entry
	if err := json.Unmarshal([]byte(sb.String()), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 || got[0].Room != "nave" || !got[1].HeatFrom.Equal(planEntries()[1].HeatFrom) {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}
