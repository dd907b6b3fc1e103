package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names used throughout the application.
// Templates use text/template syntax with the fields documented below.
const (
	// PromptAnswerSystem is the system instruction for answering questions.
	// This prompt has no placeholders.
	PromptAnswerSystem = "answer_system"

	// PromptAnswerGrounded is used when retrieval found record sections.
	// Fields: .Question, .Context.
	PromptAnswerGrounded = "answer_grounded"

	// PromptAnswerUngrounded is used when nothing relevant was retrieved.
	// Fields: .Question.
	PromptAnswerUngrounded = "answer_ungrounded"

	// PromptRecommendSystem is the system instruction for recommendations.
	PromptRecommendSystem = "recommend_system"

	// PromptRecommendRecords asks for record-informed recommendations.
	// Fields: .Question, .Context.
	PromptRecommendRecords = "recommend_records"

	// PromptRecommendGeneral asks for general recommendations only.
	// Fields: .Question.
	PromptRecommendGeneral = "recommend_general"

	// PromptSummariseSystem is the system instruction for summaries.
	PromptSummariseSystem = "summarise_system"

	// PromptSummarise wraps the full corpus text.
	// Fields: .Records.
	PromptSummarise = "summarise"
)

// AllPromptNames lists every prompt the application loads.
func AllPromptNames() []string {
	return []string{
		PromptAnswerSystem,
		PromptAnswerGrounded,
		PromptAnswerUngrounded,
		PromptRecommendSystem,
		PromptRecommendRecords,
		PromptRecommendGeneral,
		PromptSummariseSystem,
		PromptSummarise,
	}
}
