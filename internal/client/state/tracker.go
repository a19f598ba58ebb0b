// Package state tracks the lifecycle of asynchronous API operations on the
// client. Each logical operation owns one Tracker; a slice groups related
// trackers behind a single lock so composite updates are observed atomically.
package state

// Phase is the lifecycle phase of one tracked operation.
type Phase int

const (
	// Idle means the operation has never been started.
	Idle Phase = iota
	// Pending means an invocation is in flight.
	Pending
	// Fulfilled means the last invocation succeeded and the payload is set.
	Fulfilled
	// Rejected means the last invocation failed and the message is set.
	Rejected
)

// Tracker is the tagged-union state of one asynchronous operation. There are
// no standalone boolean flags: loading, failure, and data presence are all
// derived from the phase and payload, so they cannot drift apart.
//
// Tracker is not safe for concurrent use on its own; the owning slice guards
// it with its lock.
type Tracker[R any] struct {
	phase      Phase
	payload    R
	hasPayload bool
	message    string
}

// View is an immutable snapshot of a tracker, safe to hand to a renderer.
type View[R any] struct {
	Phase      Phase
	Payload    R
	HasPayload bool
	Message    string
}

// Start transitions to Pending and clears any prior error. When clearPayload
// is true the stale payload is dropped as well; list-style operations do this
// to force a loading state, detail-style operations keep stale data visible
// until the fresh result lands. Start always re-enters Pending, even from a
// terminal phase.
func (t *Tracker[R]) Start(clearPayload bool) {
	t.phase = Pending
	t.message = ""
	if clearPayload {
		var zero R
		t.payload = zero
		t.hasPayload = false
	}
}

// Succeed transitions to Fulfilled and stores the payload.
func (t *Tracker[R]) Succeed(payload R) {
	t.phase = Fulfilled
	t.payload = payload
	t.hasPayload = true
	t.message = ""
}

// Fail transitions to Rejected and stores the message. Any previously stored
// payload is retained.
func (t *Tracker[R]) Fail(message string) {
	t.phase = Rejected
	t.message = message
}

// Update rewrites the stored payload in place without changing phase. Used
// for composite transitions such as reflecting a closed ticket in the list.
func (t *Tracker[R]) Update(mutate func(payload R) R) {
	if !t.hasPayload {
		return
	}
	t.payload = mutate(t.payload)
}

// Reset returns the tracker to Idle with no payload and no message.
func (t *Tracker[R]) Reset() {
	var zero R
	t.phase = Idle
	t.payload = zero
	t.hasPayload = false
	t.message = ""
}

// Loading reports whether an invocation is in flight.
func (t *Tracker[R]) Loading() bool {
	return t.phase == Pending
}

// Snapshot returns an immutable view of the tracker.
func (t *Tracker[R]) Snapshot() View[R] {
	return View[R]{
		Phase:      t.phase,
		Payload:    t.payload,
		HasPayload: t.hasPayload,
		Message:    t.message,
	}
}
