package tool

import "github.com/google/uuid"

// GenerateUUIDV7 returns a time-ordered unique identifier.
func GenerateUUIDV7() string {
	return uuid.Must(uuid.NewV7()).String()
}
