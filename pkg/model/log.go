package model

import (
	"time"

	"github.com/google/uuid"
)

type LogID string

// NewLogID generates a new unique LogID
func NewLogID() LogID {
	return LogID(uuid.New().String())
}

// Stage is a cosmetic label for a phase of the fixed pipeline sequence,
// not a real autonomous process.
type Stage string

const (
	StageIdle       Stage = "idle"
	StageDiscovery  Stage = "discovery"
	StageSearch     Stage = "search"
	StageRanking    Stage = "ranking"
	StageValidation Stage = "validation"
)

// LogEntry is one line of the append-only agent log
type LogEntry struct {
	ID        LogID     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Stage     Stage     `json:"stage"`
}

// NewLogEntry creates a log entry stamped with the current time
func NewLogEntry(stage Stage, message string) *LogEntry {
	return &LogEntry{
		ID:        NewLogID(),
		Timestamp: time.Now(),
		Message:   message,
		Stage:     stage,
	}
}
