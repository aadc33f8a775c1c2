//go:build linux

package proctree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestKillTree_DeadPidReturnsNoFailures(t *testing.T) {
	failures := KillTree(zap.NewNop(), int32(1<<30))
	assert.Nil(t, failures)
}
