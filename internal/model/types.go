// Package model defines shared data structures.
package model

import (
	"fmt"
	"strings"
	"time"
)

// TimerState is the phase a pomodoro timer is in.
type TimerState int

const (
	Idle TimerState = iota
	Working
	Breaking
)

func (s TimerState) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Working:
		return "Working"
	case Breaking:
		return "Breaking"
	default:
		return fmt.Sprintf("TimerState(%d)", int(s))
	}
}

// ParsePhase maps a user supplied phase name to a configurable state.
// Only working and breaking have durations.
func ParsePhase(name string) (TimerState, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "working", "work":
		return Working, nil
	case "breaking", "break":
		return Breaking, nil
	default:
		return Idle, fmt.Errorf("unknown phase %q", name)
	}
}

// Period selects which session records are folded into totals.
type Period int

const (
	AllTime Period = iota
	Today
)

// ParsePeriod parses "today" or "all-time".
func ParsePeriod(value string) (Period, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "today":
		return Today, nil
	case "all-time", "alltime", "all":
		return AllTime, nil
	default:
		return AllTime, fmt.Errorf("unknown period %q", value)
	}
}

func (p Period) String() string {
	if p == Today {
		return "today"
	}
	return "all-time"
}

// Config defines timer settings resolved from flags and the config file.
type Config struct {
	WorkDuration  time.Duration
	BreakDuration time.Duration
	PollInterval  time.Duration
	Notify        bool
	User          string
}

// TimerRun is a persisted summary of one completed run.
type TimerRun struct {
	ID               int64
	RunID            string
	User             string
	WorkingTimeSecs  int32
	BreakingTimeSecs int32
	Date             time.Time
}

// NewTimerRun is the insert form of TimerRun.
type NewTimerRun struct {
	RunID            string
	User             string
	WorkingTimeSecs  int32
	BreakingTimeSecs int32
	Date             time.Time
}

// DayTotal aggregates completed runs for one calendar day.
type DayTotal struct {
	Date         time.Time
	Runs         int
	WorkingSecs  int
	BreakingSecs int
}

// UserSummary describes the history of one user.
type UserSummary struct {
	User    string
	Runs    int
	LastRun time.Time
}

// StatsConfig defines filters for stats output.
type StatsConfig struct {
	User   string
	Since  *time.Time
	Period Period
}
