package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPreservesOrderAndDeduplicates(t *testing.T) {
	c := New([]string{" Analysis 2 ", "Groups and Rings", "Analysis 2", ""})

	assert.Equal(t, []string{"Analysis 2", "Groups and Rings"}, c.All())
	assert.Equal(t, 2, c.Len())
}

func TestIsValid(t *testing.T) {
	c := New([]string{"A", "B"})

	assert.True(t, c.IsValid("A"))
	assert.True(t, c.IsValid("B"))
	assert.False(t, c.IsValid("C"))
	assert.False(t, c.IsValid("a"))
}

func TestDefaultCatalog(t *testing.T) {
	c := Default()

	assert.Equal(t, 10, c.Len())
	assert.True(t, c.IsValid("Network Science"))
	assert.True(t, c.IsValid("Principles of Programming"))
}

func TestAllReturnsACopy(t *testing.T) {
	c := New([]string{"A", "B"})
	all := c.All()
	all[0] = "mutated"

	assert.Equal(t, []string{"A", "B"}, c.All())
}

func TestMatch(t *testing.T) {
	c := Default()

	assert.Equal(t, []string{"Network Science"}, c.Match("network"))
	assert.Len(t, c.Match("a"), 9)
	assert.Empty(t, c.Match("chemistry"))
}
