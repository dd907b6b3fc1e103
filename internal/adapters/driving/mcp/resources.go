package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/medivault/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for medivault resources.
	uriScheme = "medivault://"

	recordsURI = uriScheme + "records"
)

// recordInfo is one entry of the record list resource.
type recordInfo struct {
	Name        string `json:"name"`
	Date        string `json:"date,omitempty"`
	URI         string `json:"uri"`
	ContentHash string `json:"content_hash"`
	Size        int    `json:"size"`
}

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         recordsURI,
		Name:        "records",
		Description: "List of all medical records",
		MIMEType:    "application/json",
	}, s.handleRecordsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: recordsURI + "/{name}",
		Name:        "record-content",
		Description: "Content of a single medical record",
		MIMEType:    "text/plain",
	}, s.handleRecordContentResource)
}

// handleRecordsResource returns every readable record.
func (s *Server) handleRecordsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	infos := []recordInfo{}

	if s.ports.Records != nil {
		docs, err := s.ports.Records.ListRecords(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing records: %w", err)
		}
		for i := range docs {
			infos = append(infos, recordInfo{
				Name:        docs[i].ID,
				Date:        docs[i].DateString(),
				URI:         recordURI(docs[i].ID),
				ContentHash: docs[i].ContentHash,
				Size:        len(docs[i].Content),
			})
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling records: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleRecordContentResource returns the text of one record.
func (s *Server) handleRecordContentResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Records == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	name := extractRecordName(req.Params.URI)
	if name == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	doc, err := s.ports.Records.Get(ctx, name)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("reading record: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     doc.Content,
		}},
	}, nil
}

// recordURI builds medivault://records/{name}.
func recordURI(name string) string {
	return recordsURI + "/" + url.PathEscape(name)
}

// extractRecordName extracts the filename from medivault://records/{name}.
// Names containing a path separator are rejected.
func extractRecordName(uri string) string {
	const prefix = recordsURI + "/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	name, err := url.PathUnescape(strings.TrimPrefix(uri, prefix))
	if err != nil || name == "" || strings.ContainsAny(name, `/\`) {
		return ""
	}
	return name
}
