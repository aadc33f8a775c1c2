package logtail

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRingBuffer_LinesEmptyWhenUnused(t *testing.T) {
	b := newRingBuffer(3)
	assert.Nil(t, b.Lines())
}

func TestRingBuffer_LinesOldestFirstBeforeFull(t *testing.T) {
	b := newRingBuffer(5)
	b.Append("one")
	b.Append("two")
	assert.Equal(t, []string{"one", "two"}, b.Lines())
}

func TestRingBuffer_OverwritesOldestEntryOnceFull(t *testing.T) {
	b := newRingBuffer(3)
	b.Append("one")
	b.Append("two")
	b.Append("three")
	b.Append("four")

	assert.Equal(t, []string{"two", "three", "four"}, b.Lines())
}

func TestRingBuffer_ZeroOrNegativeCapacityClampsToOne(t *testing.T) {
	b := newRingBuffer(0)
	b.Append("one")
	b.Append("two")
	assert.Equal(t, []string{"two"}, b.Lines())
}
