// Package tui provides an interactive chat interface for medivault.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/medivault/internal/core/ports/driving"
)

// Ports aggregates the driving ports required by the TUI.
type Ports struct {
	// Assistant answers questions about the records.
	Assistant driving.AssistantService
}

// NewPorts creates a new Ports aggregate.
func NewPorts(assistant driving.AssistantService) *Ports {
	return &Ports{Assistant: assistant}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Assistant == nil {
		return ErrMissingAssistantService
	}
	return nil
}
