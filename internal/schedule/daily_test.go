// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package schedule

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNextRunSameDay(t *testing.T) {
	d := NewDaily(0, 0)
	d.now = func() time.Time {
		return time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC)
	}

	next := d.nextRun()
	want := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("next run: got %v, want %v", next, want)
	}
}

func TestNextRunRollsToTomorrow(t *testing.T) {
	// At exactly the scheduled instant the next run is tomorrow, never now.
	d := NewDaily(6, 30)
	d.now = func() time.Time {
		return time.Date(2026, 3, 10, 6, 30, 0, 0, time.UTC)
	}

	next := d.nextRun()
	want := time.Date(2026, 3, 11, 6, 30, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("next run: got %v, want %v", next, want)
	}
}

func TestRunAllContinuesPastFailure(t *testing.T) {
	d := NewDaily(0, 0)

	var ran []string
	d.Add("first", func(ctx context.Context) error {
		ran = append(ran, "first")
		return errors.New("boom")
	})
	d.Add("second", func(ctx context.Context) error {
		ran = append(ran, "second")
		return nil
	})

	d.runAll(context.Background())

	if len(ran) != 2 || ran[0] != "first" || ran[1] != "second" {
		t.Errorf("jobs ran: got %v, want [first second]", ran)
	}
}

func TestStartStopsOnCancel(t *testing.T) {
	d := NewDaily(0, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop on context cancel")
	}
}
