package core

import "github.com/google/uuid"

// WorkerID identifies a worker for its whole lifetime.
type WorkerID string

// NewWorkerID allocates a fresh worker identity.
func NewWorkerID() (WorkerID, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return WorkerID(id.String()), nil
}

// Envelope is a line a worker received from its client, tagged with the
// worker that read it.
type Envelope struct {
	From WorkerID
	Line string
}

// String renders the envelope in the "<id>:<line>" form used in logs.
func (e Envelope) String() string {
	return string(e.From) + ":" + e.Line
}
