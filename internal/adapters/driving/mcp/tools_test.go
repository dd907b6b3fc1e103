package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/medivault/internal/core/domain"
)

func newTestServer(t *testing.T, assistant *mockAssistantService) *Server {
	t.Helper()
	server, err := NewServer(&Ports{Assistant: assistant})
	require.NoError(t, err)
	return server
}

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("returns grounded answer", func(t *testing.T) {
		assistant := &mockAssistantService{
			answer: &domain.Answer{
				Text:            "Your blood pressure was 120/80.",
				Recommendations: []string{},
				Sources:         []string{"checkup_2024-01-10.txt"},
				Grounded:        true,
			},
		}
		server := newTestServer(t, assistant)

		_, output, err := server.handleAsk(ctx, nil, AskInput{Question: "What was my blood pressure?"})

		require.NoError(t, err)
		assert.Equal(t, "What was my blood pressure?", assistant.lastQuestion)
		assert.Equal(t, "Your blood pressure was 120/80.", output.Answer)
		assert.Equal(t, []string{"checkup_2024-01-10.txt"}, output.Sources)
		assert.True(t, output.Grounded)
		assert.False(t, output.NeedsFollowup)
	})

	t.Run("returns error on failure", func(t *testing.T) {
		server := newTestServer(t, &mockAssistantService{err: domain.ErrInvalidInput})

		_, _, err := server.handleAsk(ctx, nil, AskInput{})

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestServer_handleRecommend(t *testing.T) {
	ctx := context.Background()

	t.Run("uses records by default", func(t *testing.T) {
		assistant := &mockAssistantService{
			recs: &domain.Recommendations{
				Items:   []string{"Reduce salt intake to lower blood pressure"},
				Sources: []string{"checkup_2024-01-10.txt"},
			},
		}
		server := newTestServer(t, assistant)

		_, output, err := server.handleRecommend(ctx, nil, RecommendInput{Question: "diet"})

		require.NoError(t, err)
		assert.True(t, assistant.lastFromRecords)
		assert.Equal(t, []string{"Reduce salt intake to lower blood pressure"}, output.Recommendations)
		assert.Equal(t, []string{"checkup_2024-01-10.txt"}, output.Sources)
	})

	t.Run("general skips records", func(t *testing.T) {
		assistant := &mockAssistantService{
			recs: &domain.Recommendations{Items: []string{"Stay hydrated throughout the day"}, Sources: []string{}},
		}
		server := newTestServer(t, assistant)

		_, _, err := server.handleRecommend(ctx, nil, RecommendInput{Question: "diet", General: true})

		require.NoError(t, err)
		assert.False(t, assistant.lastFromRecords)
	})

	t.Run("returns error on failure", func(t *testing.T) {
		server := newTestServer(t, &mockAssistantService{err: errors.New("embedder down")})

		_, _, err := server.handleRecommend(ctx, nil, RecommendInput{Question: "diet"})

		assert.EqualError(t, err, "embedder down")
	})
}

func TestServer_handleSummarise(t *testing.T) {
	ctx := context.Background()

	t.Run("returns summary", func(t *testing.T) {
		server := newTestServer(t, &mockAssistantService{
			summary: &domain.Summary{Text: "One checkup, normal results.", HasRecords: true},
		})

		_, output, err := server.handleSummarise(ctx, nil, SummariseInput{})

		require.NoError(t, err)
		assert.Equal(t, "One checkup, normal results.", output.Summary)
		assert.True(t, output.HasRecords)
	})

	t.Run("no records", func(t *testing.T) {
		server := newTestServer(t, &mockAssistantService{
			summary: &domain.Summary{Text: "No medical records found."},
		})

		_, output, err := server.handleSummarise(ctx, nil, SummariseInput{})

		require.NoError(t, err)
		assert.False(t, output.HasRecords)
	})
}

func TestServer_handleIngest(t *testing.T) {
	ctx := context.Background()

	t.Run("passes rebuild flag", func(t *testing.T) {
		assistant := &mockAssistantService{
			result: &domain.IngestResult{
				Status:             domain.IngestStatusSuccess,
				Message:            "Successfully ingested 2 documents",
				DocumentsProcessed: 2,
				ChunksCreated:      5,
				IndexCount:         5,
			},
		}
		server := newTestServer(t, assistant)

		_, output, err := server.handleIngest(ctx, nil, IngestInput{Rebuild: true})

		require.NoError(t, err)
		assert.True(t, assistant.lastRebuild)
		assert.Equal(t, "success", output.Status)
		assert.Equal(t, 2, output.DocumentsProcessed)
		assert.Equal(t, 5, output.ChunksCreated)
		assert.Equal(t, 5, output.IndexCount)
	})

	t.Run("ingestion already running", func(t *testing.T) {
		server := newTestServer(t, &mockAssistantService{err: domain.ErrIngestionInProgress})

		_, _, err := server.handleIngest(ctx, nil, IngestInput{})

		assert.ErrorIs(t, err, domain.ErrIngestionInProgress)
	})
}
