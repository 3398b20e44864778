package util

import "github.com/google/uuid"

// GenerateID returns a random unique identifier
func GenerateID() string {
	return uuid.NewString()
}
