package scenario

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/workplay/officegame/internal/game"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()
	require.Equal(t, 8, c.Len())

	titles := make(map[string]bool)
	for _, s := range c.All() {
		assert.NotEmpty(t, s.Title)
		assert.NotEmpty(t, s.Prompt)
		assert.False(t, titles[s.Title], "duplicate title %q", s.Title)
		titles[s.Title] = true
	}
}

func TestCatalog_ByTitle(t *testing.T) {
	c := Default()

	s, ok := c.ByTitle("  the late arrival ")
	require.True(t, ok)
	assert.Equal(t, "The Late Arrival", s.Title)

	_, ok = c.ByTitle("The Late")
	assert.False(t, ok)
}

func TestCatalog_Random(t *testing.T) {
	c := New([]game.Scenario{
		{Title: "A", Prompt: "first"},
		{Title: "", Prompt: "skipped"},
		{Title: "B", Prompt: "second"},
		{Title: "C", Prompt: "  "},
	})
	require.Equal(t, 2, c.Len())

	c.intn = func(n int) int { return n - 1 }
	assert.Equal(t, "B", c.Random().Title)

	c.intn = func(int) int { return 0 }
	assert.Equal(t, "A", c.Random().Title)
}

func TestCatalog_Empty(t *testing.T) {
	c := New(nil)
	assert.Equal(t, game.Scenario{}, c.Random())
	assert.Empty(t, c.All())
}

func TestCatalog_AllIsACopy(t *testing.T) {
	c := Default()
	all := c.All()
	all[0].Title = "changed"
	assert.NotEqual(t, "changed", c.All()[0].Title)
}
