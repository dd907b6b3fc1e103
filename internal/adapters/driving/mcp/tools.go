package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question about the user's medical records"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer        string   `json:"answer"`
	Sources       []string `json:"sources"`
	Grounded      bool     `json:"grounded"`
	NeedsFollowup bool     `json:"needs_followup"`
}

// RecommendInput is the input schema for the recommend tool.
type RecommendInput struct {
	Question string `json:"question" jsonschema:"the topic to give recommendations for"`
	General  bool   `json:"general,omitempty" jsonschema:"ignore the records and give general advice only"`
}

// RecommendOutput is the output schema for the recommend tool.
type RecommendOutput struct {
	Recommendations []string `json:"recommendations"`
	Sources         []string `json:"sources"`
}

// SummariseInput is the input schema for the summarise tool.
type SummariseInput struct{}

// SummariseOutput is the output schema for the summarise tool.
type SummariseOutput struct {
	Summary    string `json:"summary"`
	HasRecords bool   `json:"has_records"`
}

// IngestInput is the input schema for the ingest tool.
type IngestInput struct {
	Rebuild bool `json:"rebuild,omitempty" jsonschema:"clear the index before ingesting"`
}

// IngestOutput is the output schema for the ingest tool.
type IngestOutput struct {
	Status             string `json:"status"`
	Message            string `json:"message"`
	DocumentsProcessed int    `json:"documents_processed"`
	ChunksCreated      int    `json:"chunks_created"`
	IndexCount         int    `json:"index_count"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question using the user's medical records, citing the records used",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "recommend",
		Description: "List health recommendations for a question, informed by the records",
	}, s.handleRecommend)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "summarise",
		Description: "Summarise all medical records",
	}, s.handleSummarise)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ingest",
		Description: "Index the medical records directory",
	}, s.handleIngest)
}

func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.ports.Assistant.Query(ctx, input.Question)
	if err != nil {
		return nil, AskOutput{}, err
	}

	return nil, AskOutput{
		Answer:        answer.Text,
		Sources:       answer.Sources,
		Grounded:      answer.Grounded,
		NeedsFollowup: answer.NeedsFollowup,
	}, nil
}

func (s *Server) handleRecommend(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RecommendInput,
) (*mcp.CallToolResult, RecommendOutput, error) {
	recs, err := s.ports.Assistant.Recommend(ctx, input.Question, !input.General)
	if err != nil {
		return nil, RecommendOutput{}, err
	}

	return nil, RecommendOutput{
		Recommendations: recs.Items,
		Sources:         recs.Sources,
	}, nil
}

func (s *Server) handleSummarise(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ SummariseInput,
) (*mcp.CallToolResult, SummariseOutput, error) {
	summary, err := s.ports.Assistant.Summarise(ctx)
	if err != nil {
		return nil, SummariseOutput{}, err
	}

	return nil, SummariseOutput{
		Summary:    summary.Text,
		HasRecords: summary.HasRecords,
	}, nil
}

func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	result, err := s.ports.Assistant.Ingest(ctx, input.Rebuild)
	if err != nil {
		return nil, IngestOutput{}, err
	}

	return nil, IngestOutput{
		Status:             string(result.Status),
		Message:            result.Message,
		DocumentsProcessed: result.DocumentsProcessed,
		ChunksCreated:      result.ChunksCreated,
		IndexCount:         result.IndexCount,
	}, nil
}
