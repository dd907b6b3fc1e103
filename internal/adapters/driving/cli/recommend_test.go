package cli

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/medivault/internal/core/domain"
)

func TestRecommendCmd_Flags(t *testing.T) {
	flag := recommendCmd.Flags().Lookup("general")
	require.NotNil(t, flag)
	assert.Equal(t, "g", flag.Shorthand)
	assert.NotNil(t, recommendCmd.Flags().Lookup("json"))
}

func TestRecommendCmd_FromRecords(t *testing.T) {
	assistant, _, cleanup := setupTestServices()
	defer cleanup()

	var fromRecords bool
	assistant.RecommendFunc = func(_ context.Context, _ string, fr bool) (*domain.Recommendations, error) {
		fromRecords = fr
		return &domain.Recommendations{
			Items:   []string{"Recheck HbA1c in three months", "Keep a food diary"},
			Sources: []string{"labs_2024-05-01.txt"},
		}, nil
	}

	out, err := execute("recommend", "how do I manage my diabetes?")

	require.NoError(t, err)
	assert.True(t, fromRecords)
	assert.Contains(t, out, "Recommendations:")
	assert.Contains(t, out, "1. Recheck HbA1c in three months")
	assert.Contains(t, out, "2. Keep a food diary")
	assert.Contains(t, out, "Based on: labs_2024-05-01.txt")
}

func TestRecommendCmd_General(t *testing.T) {
	assistant, _, cleanup := setupTestServices()
	defer cleanup()

	fromRecords := true
	assistant.RecommendFunc = func(_ context.Context, _ string, fr bool) (*domain.Recommendations, error) {
		fromRecords = fr
		return &domain.Recommendations{Items: []string{"Stay hydrated throughout the day"}}, nil
	}

	out, err := execute("recommend", "-g", "tips for a cold?")

	require.NoError(t, err)
	assert.False(t, fromRecords)
	assert.NotContains(t, out, "Based on:")
}

func TestRecommendCmd_JSON(t *testing.T) {
	_, _, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("recommend", "--json", "question")
	require.NoError(t, err)

	var got domain.Recommendations
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, []string{"Consult your doctor"}, got.Items)
}

func TestRecommendCmd_Error(t *testing.T) {
	assistant, _, cleanup := setupTestServices()
	defer cleanup()

	assistant.RecommendFunc = func(context.Context, string, bool) (*domain.Recommendations, error) {
		return nil, errors.New("quota exceeded")
	}

	_, err := execute("recommend", "question")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "recommendation failed: quota exceeded")
}
