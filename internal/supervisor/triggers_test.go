package supervisor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileTriggers_RejectsInvalidRegex(t *testing.T) {
	_, err := compileTriggers(nil, []string{"("})
	require.Error(t, err)
}

func TestTriggerSet_MatchesLiteralSubstring(t *testing.T) {
	ts, err := compileTriggers([]string{"OutOfMemory"}, nil)
	require.NoError(t, err)

	matched, ok := ts.match("fatal error: OutOfMemory killed the process")
	assert.True(t, ok)
	assert.Equal(t, "OutOfMemory", matched)
}

func TestTriggerSet_MatchesRegexWhenNoLiteralHits(t *testing.T) {
	ts, err := compileTriggers([]string{"unrelated"}, []string{`panic: .+`})
	require.NoError(t, err)

	matched, ok := ts.match("panic: nil pointer dereference")
	assert.True(t, ok)
	assert.Equal(t, `panic: .+`, matched)
}

func TestTriggerSet_LiteralsWinOverRegexesOnSameLine(t *testing.T) {
	ts, err := compileTriggers([]string{"crash"}, []string{`cra.*`})
	require.NoError(t, err)

	matched, ok := ts.match("crash detected")
	assert.True(t, ok)
	assert.Equal(t, "crash", matched, "literal match must win even though the regex also matches")
}

func TestTriggerSet_NoMatchReturnsFalse(t *testing.T) {
	ts, err := compileTriggers([]string{"crash"}, []string{`^panic$`})
	require.NoError(t, err)

	_, ok := ts.match("all systems nominal")
	assert.False(t, ok)
}

func TestTriggerSet_EmptyTriggersNeverMatch(t *testing.T) {
	ts, err := compileTriggers(nil, nil)
	require.NoError(t, err)

	_, ok := ts.match("anything at all")
	assert.False(t, ok)
}
