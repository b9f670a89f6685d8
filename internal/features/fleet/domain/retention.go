package domain

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// RetentionKind identifies a retention strategy variant
type RetentionKind string

// Retention strategy variants
const (
	RetentionAlways    RetentionKind = "always"
	RetentionDemand    RetentionKind = "demand"
	RetentionScheduled RetentionKind = "scheduled"
)

// RetentionStrategy controls when a slave is brought online or offline.
// The set of variants is closed: AlwaysRetention, DemandRetention and
// ScheduledRetention.
type RetentionStrategy interface {
	Kind() RetentionKind
	Validate() error
	isRetentionStrategy()
}

// AlwaysRetention keeps the slave online as much as possible
type AlwaysRetention struct{}

// DemandRetention brings the slave online when there is demand. Delays are
// in minutes.
type DemandRetention struct {
	InDemandDelay int64
	IdleDelay     int64
}

// ScheduledRetention brings the slave online on a cron schedule
type ScheduledRetention struct {
	StartTimeSpec    string
	UpTimeMins       int
	KeepUpWhenActive bool
}

func (AlwaysRetention) Kind() RetentionKind    { return RetentionAlways }
func (DemandRetention) Kind() RetentionKind    { return RetentionDemand }
func (ScheduledRetention) Kind() RetentionKind { return RetentionScheduled }

func (AlwaysRetention) isRetentionStrategy()    {}
func (DemandRetention) isRetentionStrategy()    {}
func (ScheduledRetention) isRetentionStrategy() {}

func (AlwaysRetention) Validate() error { return nil }

func (r DemandRetention) Validate() error {
	if r.InDemandDelay < 0 || r.IdleDelay < 0 {
		return fmt.Errorf("demand delays must not be negative")
	}
	return nil
}

// Validate parses every non-comment line of the start spec as a standard
// five field cron expression.
func (r ScheduledRetention) Validate() error {
	if r.UpTimeMins < 1 {
		return fmt.Errorf("scheduled uptime must be at least one minute, got %d", r.UpTimeMins)
	}
	for _, line := range strings.Split(r.StartTimeSpec, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, err := cron.ParseStandard(line); err != nil {
			return fmt.Errorf("invalid startup schedule %q: %w", line, err)
		}
	}
	return nil
}

// RetentionKindOf returns the kind of r, or "" for nil
func RetentionKindOf(r RetentionStrategy) RetentionKind {
	if r == nil {
		return ""
	}
	return r.Kind()
}
