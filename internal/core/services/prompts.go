package services

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/custodia-labs/medivault/internal/core/domain"
	"github.com/custodia-labs/medivault/internal/core/ports/driven"
)

// promptData holds the fields available to prompt templates.
type promptData struct {
	Question string
	Context  string
	Records  string
}

// renderPrompt loads the named template and executes it with data.
func renderPrompt(store driven.PromptStore, name string, data promptData) (string, error) {
	raw, err := store.Load(name)
	if err != nil {
		return "", fmt.Errorf("load prompt %s: %w", name, err)
	}

	tmpl, err := template.New(name).Option("missingkey=error").Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse prompt %s: %w", name, err)
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", name, err)
	}
	return sb.String(), nil
}

// buildContext labels each hit with its source file and collects the
// distinct sources in first-seen order.
func buildContext(hits []domain.SearchHit) (string, []string) {
	parts := make([]string, 0, len(hits))
	sources := make([]string, 0, len(hits))
	seen := make(map[string]bool, len(hits))

	for _, hit := range hits {
		source := hit.Chunk.Source()
		parts = append(parts, fmt.Sprintf("[From %s]\n%s", source, hit.Chunk.Content))
		if !seen[source] {
			seen[source] = true
			sources = append(sources, source)
		}
	}

	return strings.Join(parts, "\n\n"), sources
}

// recommendationContext appends the full corpus to the retrieved context so
// advice can draw on every record.
func recommendationContext(retrieved, allRecords string) string {
	switch {
	case allRecords == "":
		return retrieved
	case retrieved == "":
		return "All Medical Records:\n" + allRecords
	case strings.Contains(allRecords, retrieved):
		return retrieved
	default:
		return retrieved + "\n\nAll Medical Records:\n" + allRecords
	}
}
