// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// AssistantService is the retrieval orchestrator: it ingests the corpus
// into the vector index and answers questions, recommendation requests and
// summaries against it. SettingsService reads and writes configuration.
//
// Services are pure Go with no CGO or external dependencies.
package services
