package mcp

import (
	"context"
	"fmt"

	"github.com/custodia-labs/medivault/internal/core/domain"
)

// mockAssistantService is a mock implementation of driving.AssistantService.
type mockAssistantService struct {
	answer  *domain.Answer
	recs    *domain.Recommendations
	summary *domain.Summary
	result  *domain.IngestResult
	status  *domain.IndexStatus
	err     error

	lastQuestion    string
	lastFromRecords bool
	lastRebuild     bool
}

func (m *mockAssistantService) Ingest(_ context.Context, rebuild bool) (*domain.IngestResult, error) {
	m.lastRebuild = rebuild
	return m.result, m.err
}

func (m *mockAssistantService) Query(_ context.Context, question string) (*domain.Answer, error) {
	m.lastQuestion = question
	return m.answer, m.err
}

func (m *mockAssistantService) Recommend(
	_ context.Context, question string, fromRecords bool,
) (*domain.Recommendations, error) {
	m.lastQuestion = question
	m.lastFromRecords = fromRecords
	return m.recs, m.err
}

func (m *mockAssistantService) Summarise(_ context.Context) (*domain.Summary, error) {
	return m.summary, m.err
}

func (m *mockAssistantService) Status(_ context.Context) (*domain.IndexStatus, error) {
	return m.status, m.err
}

// mockRecords is a mock implementation of RecordReader.
type mockRecords struct {
	docs []domain.Document
	err  error
}

func (m *mockRecords) ListRecords(_ context.Context) ([]domain.Document, error) {
	return m.docs, m.err
}

func (m *mockRecords) Get(_ context.Context, name string) (*domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.docs {
		if m.docs[i].ID == name {
			return &m.docs[i], nil
		}
	}
	return nil, fmt.Errorf("%w: record %q", domain.ErrNotFound, name)
}
