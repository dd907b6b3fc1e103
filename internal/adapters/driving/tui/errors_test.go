package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrMissingAssistantService_Message(t *testing.T) {
	assert.Contains(t, ErrMissingAssistantService.Error(), "assistant service")
	assert.Contains(t, ErrMissingAssistantService.Error(), "tui:")
}
