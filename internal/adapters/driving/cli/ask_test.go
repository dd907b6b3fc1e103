package cli

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/medivault/internal/core/domain"
)

func TestAskCmd_RequiresQuestion(t *testing.T) {
	_, _, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute("ask")

	assert.Error(t, err)
}

func TestAskCmd_Grounded(t *testing.T) {
	assistant, _, cleanup := setupTestServices()
	defer cleanup()

	var asked string
	assistant.QueryFunc = func(_ context.Context, q string) (*domain.Answer, error) {
		asked = q
		return &domain.Answer{
			Text:     "You take metformin 500mg twice daily.",
			Sources:  []string{"visit_2024-03-02.txt", "pharmacy.txt"},
			Grounded: true,
		}, nil
	}

	out, err := execute("ask", "what medications am I on?")

	require.NoError(t, err)
	assert.Equal(t, "what medications am I on?", asked)
	assert.Contains(t, out, "You take metformin 500mg twice daily.")
	assert.Contains(t, out, "Sources: visit_2024-03-02.txt, pharmacy.txt")
	assert.NotContains(t, out, "Not found in your records.")
}

func TestAskCmd_Ungrounded(t *testing.T) {
	assistant, _, cleanup := setupTestServices()
	defer cleanup()

	assistant.QueryFunc = func(context.Context, string) (*domain.Answer, error) {
		return &domain.Answer{Text: "Generally, adults need 7 to 9 hours of sleep.", NeedsFollowup: true}, nil
	}

	out, err := execute("ask", "how much sleep do I need?")

	require.NoError(t, err)
	assert.Contains(t, out, "Not found in your records.")
	assert.Contains(t, out, "medivault recommend")
}

func TestAskCmd_JSON(t *testing.T) {
	assistant, _, cleanup := setupTestServices()
	defer cleanup()

	assistant.QueryFunc = func(context.Context, string) (*domain.Answer, error) {
		return &domain.Answer{Text: "O+", Sources: []string{"labs.txt"}, Grounded: true}, nil
	}

	out, err := execute("ask", "--json", "blood type?")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "O+", got["answer"])
	assert.Equal(t, true, got["has_records"])
}

func TestAskCmd_Error(t *testing.T) {
	assistant, _, cleanup := setupTestServices()
	defer cleanup()

	assistant.QueryFunc = func(context.Context, string) (*domain.Answer, error) {
		return nil, domain.ErrInvalidInput
	}

	_, err := execute("ask", " ")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "query failed")
}
