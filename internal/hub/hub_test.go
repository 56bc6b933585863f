package hub

import (
	"context"
	"testing"
	"time"

	"github.com/atikulmunna/sift/internal/model"
	"github.com/atikulmunna/sift/internal/parser"
)

func TestHubBroadcast(t *testing.T) {
	input := make(chan model.LogEntry, 10)
	h := New(input, nil)

	sub1 := h.Subscribe()
	sub2 := h.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go h.Start(ctx)

	p := parser.NewAutoParser(nil)
	input <- p.Parse("ERROR disk full", 1)

	for i, sub := range []<-chan model.LogEntry{sub1, sub2} {
		select {
		case e := <-sub:
			if e.Level != model.LevelError {
				t.Errorf("sub%d: expected ERROR, got %s", i+1, e.Level)
			}
			if e.LineNumber != 1 {
				t.Errorf("sub%d: expected line 1, got %d", i+1, e.LineNumber)
			}
		case <-time.After(1 * time.Second):
			t.Fatalf("sub%d: timed out", i+1)
		}
	}
}

func TestHubClosesSubscribers(t *testing.T) {
	input := make(chan model.LogEntry)
	h := New(input, nil)
	sub := h.Subscribe()

	done := make(chan struct{})
	go func() {
		h.Start(context.Background())
		close(done)
	}()
	close(input)

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("hub did not stop after input closed")
	}
	if _, ok := <-sub; ok {
		t.Error("expected subscriber channel to be closed")
	}
}

func TestHubSlowConsumer(t *testing.T) {
	input := make(chan model.LogEntry, 10)
	h := New(input, nil)

	// Subscribe but never read, simulating a slow consumer.
	_ = h.SubscribeLossy()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go h.Start(ctx)

	for i := 0; i < subscriberBuffer+100; i++ {
		input <- model.LogEntry{Raw: "line", LineNumber: i + 1}
	}

	// Give hub time to process.
	time.Sleep(500 * time.Millisecond)

	if h.Dropped() == 0 {
		t.Error("expected dropped entries for slow consumer, got 0")
	}
}

func TestHubLosslessWaitsForSlowConsumer(t *testing.T) {
	const total = subscriberBuffer * 3
	input := make(chan model.LogEntry, total)
	h := New(input, nil)

	all := h.Subscribe()
	_ = h.SubscribeLossy() // never read

	for i := 0; i < total; i++ {
		input <- model.LogEntry{Raw: "line", LineNumber: i + 1}
	}
	close(input)

	go h.Start(context.Background())

	got := 0
	for e := range all {
		got++
		if e.LineNumber != got {
			t.Fatalf("expected line %d, got %d", got, e.LineNumber)
		}
		if got%256 == 0 {
			time.Sleep(time.Millisecond)
		}
	}
	if got != total {
		t.Errorf("expected %d entries, got %d", total, got)
	}
	if h.Dropped() == 0 {
		t.Error("expected the lossy subscriber to drop entries")
	}
}

func TestHubLosslessStopsOnCancel(t *testing.T) {
	input := make(chan model.LogEntry, subscriberBuffer+10)
	h := New(input, nil)
	_ = h.Subscribe() // never read, so the hub blocks once the buffer fills

	for i := 0; i < subscriberBuffer+10; i++ {
		input <- model.LogEntry{Raw: "line", LineNumber: i + 1}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Start(ctx)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop while blocked on a lossless subscriber")
	}
}
