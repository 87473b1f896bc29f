package games

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFind(t *testing.T) {
	g, ok := Find("3")
	assert.True(t, ok)
	assert.Equal(t, "Speed Math", g.Title)
	assert.Equal(t, int64(1000), g.Reward)

	_, ok = Find("no-such-game")
	assert.False(t, ok)
}

func TestByCategory(t *testing.T) {
	all := ByCategory("")
	assert.Len(t, all, len(Catalog))

	quiz := ByCategory("Quiz")
	assert.Len(t, quiz, 2)
	for _, g := range quiz {
		assert.Equal(t, "Quiz", g.Category)
	}

	assert.Empty(t, ByCategory("Sport"))
}
