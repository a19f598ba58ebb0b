package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTracker_InitialStateIsIdle(t *testing.T) {
	var tracker Tracker[string]

	view := tracker.Snapshot()
	assert.Equal(t, Idle, view.Phase)
	assert.False(t, view.HasPayload)
	assert.Empty(t, view.Message)
	assert.False(t, tracker.Loading())
}

func TestTracker_HappyPath(t *testing.T) {
	var tracker Tracker[string]

	tracker.Start(true)
	assert.Equal(t, Pending, tracker.Snapshot().Phase)
	assert.True(t, tracker.Loading())

	tracker.Succeed("payload")
	view := tracker.Snapshot()
	assert.Equal(t, Fulfilled, view.Phase)
	assert.Equal(t, "payload", view.Payload)
	assert.True(t, view.HasPayload)
	assert.False(t, tracker.Loading())
}

func TestTracker_FailureKeepsStalePayload(t *testing.T) {
	var tracker Tracker[string]
	tracker.Succeed("old")

	tracker.Start(false)
	tracker.Fail("boom")

	view := tracker.Snapshot()
	assert.Equal(t, Rejected, view.Phase)
	assert.Equal(t, "boom", view.Message)
	assert.True(t, view.HasPayload)
	assert.Equal(t, "old", view.Payload)
}

func TestTracker_StartClearPayloadPolicy(t *testing.T) {
	var tracker Tracker[string]
	tracker.Succeed("old")

	// Detail-style restart retains the stale payload.
	tracker.Start(false)
	view := tracker.Snapshot()
	assert.Equal(t, Pending, view.Phase)
	assert.True(t, view.HasPayload)
	assert.Equal(t, "old", view.Payload)

	// List-style restart drops it.
	tracker.Start(true)
	view = tracker.Snapshot()
	assert.Equal(t, Pending, view.Phase)
	assert.False(t, view.HasPayload)
	assert.Empty(t, view.Payload)
}

func TestTracker_RestartsFromTerminalPhases(t *testing.T) {
	var tracker Tracker[int]

	tracker.Start(true)
	tracker.Fail("first attempt failed")
	assert.Equal(t, Rejected, tracker.Snapshot().Phase)

	// Restart from Rejected clears the error.
	tracker.Start(true)
	view := tracker.Snapshot()
	assert.Equal(t, Pending, view.Phase)
	assert.Empty(t, view.Message)

	tracker.Succeed(7)
	assert.Equal(t, Fulfilled, tracker.Snapshot().Phase)

	// Restart from Fulfilled is allowed too.
	tracker.Start(false)
	assert.Equal(t, Pending, tracker.Snapshot().Phase)
}

func TestTracker_UpdateRequiresPayload(t *testing.T) {
	var tracker Tracker[int]

	called := false
	tracker.Update(func(v int) int { called = true; return v + 1 })
	assert.False(t, called)

	tracker.Succeed(1)
	tracker.Update(func(v int) int { return v + 1 })
	assert.Equal(t, 2, tracker.Snapshot().Payload)
	assert.Equal(t, Fulfilled, tracker.Snapshot().Phase)
}

func TestTracker_Reset(t *testing.T) {
	var tracker Tracker[string]
	tracker.Succeed("payload")
	tracker.Fail("late failure")

	tracker.Reset()
	view := tracker.Snapshot()
	assert.Equal(t, Idle, view.Phase)
	assert.False(t, view.HasPayload)
	assert.Empty(t, view.Payload)
	assert.Empty(t, view.Message)
}
