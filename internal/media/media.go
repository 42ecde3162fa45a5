// Package media is the ephemeral blob store for synthesized voicemail
// audio. Blobs live just long enough for the drop provider to fetch them.
package media

import (
	"context"
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("not found")

// Store holds TTL-bound audio blobs.
type Store interface {
	Put(ctx context.Context, data []byte) (id string, err error)
	Get(ctx context.Context, id string) ([]byte, error)
}

// PublicURL mints the externally reachable URL for a stored blob; this is
// what gets handed to the voicemail gateway.
func PublicURL(publicBase, id string) string {
	return fmt.Sprintf("%s/media/vm/%s.mp3", publicBase, id)
}
