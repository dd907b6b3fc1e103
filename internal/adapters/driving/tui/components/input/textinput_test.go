package input

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/medivault/internal/adapters/driving/tui/styles"
)

func TestNewChatInput(t *testing.T) {
	input := NewChatInput(styles.DefaultStyles())

	require.NotNil(t, input)
	assert.Equal(t, "", input.Value())
	assert.True(t, input.Focused())
}

func TestNewChatInput_NilStyles(t *testing.T) {
	input := NewChatInput(nil)

	require.NotNil(t, input)
	assert.NotNil(t, input.styles)
}

func TestChatInput_Init(t *testing.T) {
	input := NewChatInput(nil)

	// Blink command should be returned
	assert.NotNil(t, input.Init())
}

func TestChatInput_Update(t *testing.T) {
	input := NewChatInput(nil)

	msg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}}
	updated, _ := input.Update(msg)

	assert.Equal(t, input, updated)
	assert.Equal(t, "a", input.Value())
}

func TestChatInput_View(t *testing.T) {
	input := NewChatInput(nil)

	view := input.View()

	assert.Contains(t, view, "You")
	assert.Contains(t, view, "Ask about your records")
}

func TestChatInput_SetValue(t *testing.T) {
	input := NewChatInput(nil)

	input.SetValue("what medications am I on?")

	assert.Equal(t, "what medications am I on?", input.Value())
}

func TestChatInput_FocusAndBlur(t *testing.T) {
	input := NewChatInput(nil)
	assert.True(t, input.Focused())

	input.Blur()
	assert.False(t, input.Focused())

	cmd := input.Focus()
	assert.NotNil(t, cmd)
	assert.True(t, input.Focused())
}

func TestChatInput_SetWidth(t *testing.T) {
	input := NewChatInput(nil)

	input.SetWidth(100)
	assert.Equal(t, 100, input.Width())
	assert.Equal(t, 88, input.textinput.Width)
}

func TestChatInput_SetWidth_Minimum(t *testing.T) {
	input := NewChatInput(nil)

	input.SetWidth(10)

	assert.Equal(t, 10, input.Width())
	assert.Equal(t, 20, input.textinput.Width)
}

func TestChatInput_Width_Default(t *testing.T) {
	assert.Equal(t, 50, NewChatInput(nil).Width())
}

func TestChatInput_Reset(t *testing.T) {
	input := NewChatInput(nil)
	input.SetValue("some text")

	input.Reset()

	assert.Equal(t, "", input.Value())
}

func TestChatInput_Update_Backspace(t *testing.T) {
	input := NewChatInput(nil)
	input.SetValue("test")

	input.Update(tea.KeyMsg{Type: tea.KeyBackspace})

	assert.Equal(t, "tes", input.Value())
}
