package jobs

import (
	"time"

	"github.com/google/uuid"
)

// Job is one unit of asynchronous work carried through the redis queue.
// The payload is raw JSON; the worker decodes it by type.
type Job struct {
	ID         string    `json:"id"`
	Type       JobType   `json:"type"`
	Payload    []byte    `json:"payload"`
	Attempts   int       `json:"attempts"`
	MaxTries   int       `json:"maxTries"`
	EnqueuedAt time.Time `json:"enqueuedAt"`
}

func NewJob(t JobType, payloadJSON []byte) (Job, error) {
	if !t.IsValid() {
		return Job{}, ErrInvalidJobType
	}

	return Job{
		ID:         uuid.NewString(),
		Type:       t,
		Payload:    payloadJSON,
		Attempts:   0,
		MaxTries:   5,
		EnqueuedAt: time.Now().UTC(),
	}, nil
}
