package domain

import "fmt"

// Level is a course difficulty level
type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

// Valid reports whether the level is one of the known values
func (l Level) Valid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}

// ParseLevel converts a string to a Level
func ParseLevel(s string) (Level, error) {
	l := Level(s)
	if !l.Valid() {
		return "", fmt.Errorf("unknown course level %q", s)
	}
	return l, nil
}

// Course represents a course in the catalog. IsEnrolled is a per-user
// projection computed by the service; the client only ferries it.
type Course struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Hours       int    `json:"hours"`
	Level       Level  `json:"level"`
	IsEnrolled  bool   `json:"is_enrolled"`
}
