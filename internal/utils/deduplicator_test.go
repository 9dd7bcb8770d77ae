package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeduplicator(t *testing.T) {
	d := NewDeduplicator(10 * time.Minute)
	clock := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return clock }

	_, state := d.Begin("u1:abc")
	assert.Equal(t, DedupNew, state)

	_, state = d.Begin("u1:abc")
	assert.Equal(t, DedupPending, state)

	d.Complete("u1:abc", 42)
	id, state := d.Begin("u1:abc")
	assert.Equal(t, DedupDone, state)
	assert.Equal(t, uint(42), id)

	_, state = d.Begin("u2:abc")
	assert.Equal(t, DedupNew, state, "keys are independent")

	clock = clock.Add(11 * time.Minute)
	_, state = d.Begin("u1:abc")
	assert.Equal(t, DedupNew, state, "expired keys are reusable")
}

func TestDeduplicatorAbort(t *testing.T) {
	d := NewDeduplicator(time.Minute)

	_, state := d.Begin("k")
	assert.Equal(t, DedupNew, state)
	d.Abort("k")

	_, state = d.Begin("k")
	assert.Equal(t, DedupNew, state)

	d.Complete("k", 7)
	d.Abort("k")
	id, state := d.Begin("k")
	assert.Equal(t, DedupDone, state, "completed keys survive Abort")
	assert.Equal(t, uint(7), id)
}
