package session

import (
	"context"
	"errors"
	"log"
	"sync/atomic"

	"github.com/google/uuid"
)

// ErrBusy is returned by Submit while another session is still running.
var ErrBusy = errors.New("a session is already in progress")

// Orchestrator admits at most one session at a time. The station has a
// single reader and a single camera, so a second concurrent session
// could only corrupt the status stream; it is rejected, not queued.
type Orchestrator struct {
	session *Session
	status  *StatusCell
	busy    atomic.Bool
}

// NewOrchestrator wraps a session runner with single-slot admission.
func NewOrchestrator(session *Session, status *StatusCell) *Orchestrator {
	return &Orchestrator{session: session, status: status}
}

// Busy reports whether a session currently holds the slot.
func (o *Orchestrator) Busy() bool {
	return o.busy.Load()
}

// Submit starts req asynchronously and returns its session id, or
// ErrBusy when the slot is taken. The session keeps running after the
// caller's request ends; progress is observed via the status cell.
func (o *Orchestrator) Submit(req Request) (string, error) {
	if !o.busy.CompareAndSwap(false, true) {
		return "", ErrBusy
	}

	id := uuid.New().String()
	log.Printf("session %s: starting %s", id, req.Op)

	go func() {
		defer o.busy.Store(false)
		defer func() {
			if r := recover(); r != nil {
				log.Printf("session %s: panic: %v", id, r)
				o.status.Set(PhaseError, "Internal error")
			}
		}()

		if err := o.session.Run(context.Background(), req); err != nil {
			log.Printf("session %s: %s failed: %v", id, req.Op, err)
			return
		}
		log.Printf("session %s: %s completed", id, req.Op)
	}()

	return id, nil
}
