package am3path

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlug_LowercasesAndHyphenates(t *testing.T) {
	assert.Equal(t, "my-cool-app", Slug("My Cool App"))
}

func TestSlug_CollapsesRunsOfPunctuation(t *testing.T) {
	assert.Equal(t, "a-b-c", Slug("a___b...c"))
}

func TestSlug_TrimsLeadingAndTrailingHyphens(t *testing.T) {
	assert.Equal(t, "worker", Slug("  --worker--  "))
}

func TestSlug_EmptyInputDefaultsToApp(t *testing.T) {
	assert.Equal(t, "app", Slug(""))
	assert.Equal(t, "app", Slug("***"))
}
