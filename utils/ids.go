package utils

import (
	"github.com/google/uuid"
)

// NewID returns a random identifier for tasks, series and requests.
func NewID() string {
	return uuid.New().String()
}

// IsID reports whether s parses as an identifier produced by NewID.
func IsID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
