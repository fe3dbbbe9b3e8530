package dispatch

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/heatplan/heatplan/core/events"
	"github.com/heatplan/heatplan/internal/eventbus"
)

func TestLogEvictsOldestNewestFirst(t *testing.T) {
	l := NewLog(3, eventbus.New())
	defer l.Close()
	base := time.Date(2026, 1, 12, 7, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		l.Add(Record{Time: base.Add(time.Duration(i) * time.Minute), TickID: fmt.Sprintf("t%d", i), Room: "nave"})
	}

	got := l.Records(Query{})
	if len(got) != 3 {
		t.Fatalf("got %d records, want 3", len(got))
	}
	for i, want := range []string{"t3", "t2", "t1"} {
		if got[i].TickID != want {
			t.Errorf("records[%d].TickID = %s, want %s", i, got[i].TickID, want)
		}
	}
}

func TestLogQueryFilters(t *testing.T) {
	l := NewLog(8, eventbus.New())
	defer l.Close()
	base := time.Date(2026, 1, 12, 7, 0, 0, 0, time.UTC)
	l.Add(Record{Time: base, Target: "cmi-a/node50", Room: "nave"})
	l.Add(Record{Time: base.Add(time.Minute), Target: "cmi-b/node51", Room: "vestry"})
	l.Add(Record{Time: base.Add(2 * time.Minute), Target: "cmi-a/node50", Room: "vestry"})

	cases := []struct {
		name string
		q    Query
		want int
	}{
		{"all", Query{}, 3},
		{"by room", Query{Room: "nave"}, 1},
		{"by target", Query{Target: "cmi-a/node50"}, 2},
		{"since", Query{Since: base.Add(time.Minute)}, 2},
		{"limit", Query{Limit: 2}, 2},
		{"no match", Query{Room: "attic"}, 0},
	}
	for _, c := range cases {
		if got := len(l.Records(c.q)); got != c.want {
			t.Errorf("%s: got %d records, want %d", c.name, got, c.want)
		}
	}

	limited := l.Records(Query{Limit: 1})
	if limited[0].Room != "vestry" || !limited[0].Time.Equal(base.Add(2*time.Minute)) {
		t.Fatalf("limit must keep the newest record, got %+v", limited[0])
	}
}

func TestLogConsumesSendEvents(t *testing.T) {
	bus := eventbus.New()
	defer bus.Close()
	l := NewLog(8, bus)
	defer l.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()

	at := time.Date(2026, 1, 12, 7, 0, 0, 0, time.UTC)
	bus.Publish(events.CommandEvent{Room: "nave"})
	bus.Publish(events.SendEvent{
		TickID:  "t1",
		Target:  "10.0.0.5:5442/node50",
		Room:    "nave",
		PDO:     0,
		On:      true,
		Err:     errors.New("timeout"),
		Latency: 40 * time.Millisecond,
		At:      at,
	})

	deadline := time.Now().Add(time.Second)
	var got []Record
	for {
		if got = l.Records(Query{}); len(got) == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("send event never recorded, have %d records", len(got))
		}
		time.Sleep(5 * time.Millisecond)
	}

	r := got[0]
	if r.Room != "nave" || r.Target != "10.0.0.5:5442/node50" || !r.On {
		t.Fatalf("unexpected record %+v", r)
	}
	if r.PDOIndex != 1 {
		t.Errorf("PDOIndex = %d, want the one-based index 1", r.PDOIndex)
	}
	if r.Error != "timeout" || r.LatencyMs != 40 || !r.Time.Equal(at) {
		t.Errorf("record fields %+v", r)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}
