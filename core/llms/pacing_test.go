package llms

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWordPacerDeliversOneWordAtATime(t *testing.T) {
	var deliveries []Delivery
	err := WordPacer{}.Pace(context.Background(), "Hi there friend", func(d Delivery) {
		deliveries = append(deliveries, d)
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	expected := []Delivery{
		{Delta: "Hi ", Text: "Hi"},
		{Delta: "there ", Text: "Hi there"},
		{Delta: "friend", Text: "Hi there friend"},
	}
	if len(deliveries) != len(expected) {
		t.Fatalf("expected %d deliveries, got %d: %+v", len(expected), len(deliveries), deliveries)
	}
	for i := range expected {
		if deliveries[i] != expected[i] {
			t.Fatalf("delivery %d: expected %+v, got %+v", i, expected[i], deliveries[i])
		}
	}
}

func TestWordPacerAccumulatedTextIsMonotonic(t *testing.T) {
	var last string
	err := WordPacer{}.Pace(context.Background(), "one  two\tthree\nfour", func(d Delivery) {
		if len(d.Text) <= len(last) {
			t.Fatalf("expected accumulated text to grow, got %q after %q", d.Text, last)
		}
		if d.IsFinal {
			t.Fatalf("pacer must not produce final deliveries")
		}
		last = d.Text
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if last != "one two three four" {
		t.Fatalf("expected %q, got %q", "one two three four", last)
	}
}

func TestWordPacerEmptyResponse(t *testing.T) {
	calls := 0
	if err := (WordPacer{}).Pace(context.Background(), "   ", func(Delivery) { calls++ }); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected no deliveries, got %d", calls)
	}
}

func TestWordPacerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := WordPacer{Interval: time.Hour}.Pace(ctx, "a b c", func(Delivery) {
		calls++
		cancel()
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancelled error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected delivery to stop after the first word, got %d", calls)
	}
}

func TestWordPacerWaitsBetweenWords(t *testing.T) {
	start := time.Now()
	if err := (WordPacer{Interval: 5 * time.Millisecond}).Pace(context.Background(), "a b c", func(Delivery) {}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if elapsed := time.Since(start); elapsed < 15*time.Millisecond {
		t.Fatalf("expected at least 15ms of pacing, took %v", elapsed)
	}
}
