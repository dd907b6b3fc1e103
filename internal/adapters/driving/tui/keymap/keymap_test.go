package keymap

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultKeyMap(t *testing.T) {
	km := DefaultKeyMap()

	require.NotNil(t, km)
}

func TestDefaultKeyMap_QuitBinding(t *testing.T) {
	km := DefaultKeyMap()

	keys := km.Quit.Keys()
	assert.Contains(t, keys, "esc")
	assert.Contains(t, keys, "ctrl+c")
	assert.NotContains(t, keys, "q", "q must stay typeable in questions")
}

func TestDefaultKeyMap_SendBinding(t *testing.T) {
	km := DefaultKeyMap()

	assert.Contains(t, km.Send.Keys(), "enter")
}

func TestDefaultKeyMap_RecommendBinding(t *testing.T) {
	km := DefaultKeyMap()

	assert.Contains(t, km.Recommend.Keys(), "ctrl+r")
}

func TestDefaultKeyMap_SummariseBinding(t *testing.T) {
	km := DefaultKeyMap()

	assert.Contains(t, km.Summarise.Keys(), "ctrl+s")
}

func TestDefaultKeyMap_ScrollBindings(t *testing.T) {
	km := DefaultKeyMap()

	assert.Contains(t, km.ScrollUp.Keys(), "pgup")
	assert.Contains(t, km.ScrollDown.Keys(), "pgdown")
}

func TestShortHelp(t *testing.T) {
	km := DefaultKeyMap()

	bindings := km.ShortHelp()

	assert.Len(t, bindings, 4)
	assert.Equal(t, km.Send, bindings[0])
	assert.Equal(t, km.Quit, bindings[3])
}

func TestFullHelp(t *testing.T) {
	km := DefaultKeyMap()

	bindings := km.FullHelp()

	assert.Len(t, bindings, 2)    // 2 groups
	assert.Len(t, bindings[0], 3) // Send, Recommend, Summarise
	assert.Len(t, bindings[1], 3) // ScrollUp, ScrollDown, Quit
}

func TestMatches_True(t *testing.T) {
	km := DefaultKeyMap()

	assert.True(t, Matches("esc", km.Quit))
	assert.True(t, Matches("ctrl+c", km.Quit))
	assert.True(t, Matches("enter", km.Send))
	assert.True(t, Matches("ctrl+r", km.Recommend))
}

func TestMatches_False(t *testing.T) {
	km := DefaultKeyMap()

	assert.False(t, Matches("q", km.Quit))
	assert.False(t, Matches("r", km.Recommend))
	assert.False(t, Matches("pgup", km.ScrollDown))
}

func TestBindings_HaveHelp(t *testing.T) {
	km := DefaultKeyMap()

	testCases := []struct {
		name    string
		binding key.Binding
	}{
		{"Quit", km.Quit},
		{"Send", km.Send},
		{"Recommend", km.Recommend},
		{"Summarise", km.Summarise},
		{"ScrollUp", km.ScrollUp},
		{"ScrollDown", km.ScrollDown},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			help := tc.binding.Help()
			assert.NotEmpty(t, help.Key, "binding should have help key")
		})
	}
}
