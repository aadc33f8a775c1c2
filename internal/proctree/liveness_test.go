//go:build linux

package proctree

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPidLive_CurrentProcessIsLive(t *testing.T) {
	assert.True(t, PidLive(int32(os.Getpid())))
}

func TestPidLive_ImplausiblyLargePidIsNotLive(t *testing.T) {
	assert.False(t, PidLive(int32(1<<30)))
}
