// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package schedule runs maintenance jobs at a fixed wall-clock time each
// day. The only job today is the taxonomy cache clear at midnight UTC,
// which forces the next request to re-fetch categories and fields.
package schedule

import (
	"context"
	"log/slog"
	"time"
)

// Job is a named unit of daily work.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// Daily fires each registered job once per day at the configured UTC time.
type Daily struct {
	hour   int
	minute int
	jobs   []Job
	now    func() time.Time
}

// NewDaily creates a scheduler that fires at hour:minute UTC.
func NewDaily(hour, minute int) *Daily {
	return &Daily{
		hour:   hour,
		minute: minute,
		now:    time.Now,
	}
}

// Add registers a job. Not safe to call after Start.
func (d *Daily) Add(name string, run func(ctx context.Context) error) {
	d.jobs = append(d.jobs, Job{Name: name, Run: run})
}

// Start runs the scheduler loop until ctx is cancelled. It blocks, so
// callers run it in its own goroutine.
func (d *Daily) Start(ctx context.Context) {
	for {
		wait := time.Until(d.nextRun())
		slog.Info("scheduler armed", "next_run_in", wait.Round(time.Second).String())

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			d.runAll(ctx)
		}
	}
}

// nextRun returns the next hour:minute UTC strictly after now.
func (d *Daily) nextRun() time.Time {
	now := d.now().UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), d.hour, d.minute, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// runAll executes every job in order. A failing job is logged and does
// not stop the others.
func (d *Daily) runAll(ctx context.Context) {
	for _, job := range d.jobs {
		start := time.Now()
		if err := job.Run(ctx); err != nil {
			slog.Error("scheduled job failed", "job", job.Name, "error", err)
			continue
		}
		slog.Info("scheduled job done", "job", job.Name, "duration", time.Since(start).Round(time.Millisecond).String())
	}
}
