package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/medivault/internal/core/ports/driven"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads LLM prompts from user-editable files on disk.
// Prompts are loaded from a configurable directory with fallback to embedded defaults.
//
// Files are only created on first Load, not in the constructor.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// defaultPrompts contains embedded default prompts.
// These are used when user files don't exist and as the initial content for new files.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptAnswerSystem: `You are a medical assistant helping patients understand their medical records and general health questions.
When answering questions:
1. If the question can be answered from the patient's medical records, use that information and mention it came from their records
2. If the question is NOT in the medical records, inform the user clearly: "This information is not found in your medical records." Then IMMEDIATELY provide general medical information to answer the question - don't ask permission, just provide it
3. For diet plan questions, use the patient's medical records (if available) to provide personalized diet recommendations based on their health conditions
4. DO NOT provide recommendations directly in the answer - instead, at the end ask ONCE: "Would you like me to provide recommendations based on this information?"
5. Be conversational, helpful, and empathetic
6. Always include medical disclaimers that this is not a substitute for professional medical advice
7. Cite which document the information came from when using specific records
8. Answer questions directly and completely - don't ask multiple questions

Format your response:
- First, state whether the information is in their records or not (if not in records, say so but then immediately provide the answer)
- Provide the complete answer (from records if available, or general medical information if not)
- At the end, ask ONCE: "Would you like me to provide recommendations based on this information?"
- Include a medical disclaimer`,

	driven.PromptAnswerGrounded: `Please answer this question: {{.Question}}

Relevant Medical Records Sections:
{{.Context}}

Instructions:
1. First confirm that this information is found in the patient's medical records
2. Provide the complete answer based on the records above
3. If the question is about diet plans, use the patient's health conditions from the records to provide personalized diet recommendations
4. At the end, ask ONCE: "Would you like me to provide recommendations based on your medical records?"
5. Include a medical disclaimer`,

	driven.PromptAnswerUngrounded: `Please answer this question: {{.Question}}

IMPORTANT: This information is NOT found in the patient's medical records.

Instructions:
1. First inform the user: "This information is not found in your medical records."
2. Then IMMEDIATELY provide the complete general medical information to answer the question - don't ask permission, just provide it
3. If the question is about diet plans, provide a general diet plan that could help with the topic
4. At the end, ask ONCE: "Would you like me to provide recommendations based on this information?"
5. Include a medical disclaimer
6. Be helpful and provide complete information`,

	driven.PromptRecommendSystem: `You are a medical assistant providing recommendations.
Provide TWO types of recommendations:
1. Medical record-based recommendations (specific to the patient's records and health conditions, if available)
2. General health recommendations (best practices, lifestyle advice)

For diet plan questions, provide personalized diet recommendations based on the patient's specific health conditions from their records.

Format as a clear list. Always include a medical disclaimer.`,

	driven.PromptRecommendRecords: `Based on the following question and medical records, provide recommendations:

Question: {{.Question}}

Medical Records Sections:
{{.Context}}

Please provide:
1. Medical record-based recommendations (specific to this patient's health conditions)
2. General health recommendations
3. If this is about diet plans, provide a personalized diet plan based on the patient's health conditions
4. Medical disclaimer`,

	driven.PromptRecommendGeneral: `Based on the following question, provide general health recommendations:

Question: {{.Question}}

Please provide:
1. General health recommendations
2. If this is about diet plans, provide a general diet plan
3. Medical disclaimer`,

	driven.PromptSummariseSystem: `You are a medical assistant helping to summarize medical records.
Provide a clear, concise summary that includes:
- Key findings and diagnoses
- Important dates and examinations
- Current prescriptions or treatments
- Any recommendations from doctors
- Overall health status

Keep the summary organized and easy to understand.`,

	driven.PromptSummarise: `Please summarize the following medical records:

{{.Records}}`,
}

// DefaultPrompt returns the embedded default for name.
func DefaultPrompt(name string) (string, bool) {
	p, ok := defaultPrompts[name]
	return p, ok
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to <home>/prompts where home is DefaultHome.
//
// The constructor does not perform any I/O - directory creation and
// file writes happen lazily on first Load() call.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		home, err := DefaultHome()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(home, "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name.
// On first call, initialises the prompt directory and creates default files.
// Returns cached value if available, otherwise loads from file.
// Falls back to embedded default if file doesn't exist.
func (s *PromptStore) Load(name string) (string, error) {
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		if prompt, ok := defaultPrompts[name]; ok {
			return prompt, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	// No lock held during I/O
	prompt, err := s.loadFromFile(name)
	if err != nil || prompt == "" {
		if defaultPrompt, ok := defaultPrompts[name]; ok {
			return defaultPrompt, nil
		}
		if err == nil {
			err = fmt.Errorf("empty prompt file")
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	// Double-check so concurrent loads agree on one value
	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		prompt = cached
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// initialise creates the prompt directory and default files.
func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	// Never overwrite user edits
	for name, content := range defaultPrompts {
		path := filepath.Join(s.promptDir, name+".txt")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content+"\n"), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

// loadFromFile reads a prompt from disk.
func (s *PromptStore) loadFromFile(name string) (string, error) {
	path := filepath.Join(s.promptDir, name+".txt")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// createReadme writes a README file explaining the prompts directory.
func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil
	}

	content := `# Medivault Prompts

This directory contains the prompts medivault sends to the language model.

## Files

- ` + "`answer_system.txt`" + ` - System instruction for answering questions
- ` + "`answer_grounded.txt`" + ` - Question prompt when matching record sections were found
- ` + "`answer_ungrounded.txt`" + ` - Question prompt when nothing relevant was found
- ` + "`recommend_system.txt`" + ` - System instruction for recommendations
- ` + "`recommend_records.txt`" + ` - Recommendations informed by the records
- ` + "`recommend_general.txt`" + ` - General recommendations only
- ` + "`summarise_system.txt`" + ` - System instruction for record summaries
- ` + "`summarise.txt`" + ` - Summary prompt wrapping all records

## Placeholders

Prompts are Go text/template templates:
- ` + "`{{.Question}}`" + ` - the user's question
- ` + "`{{.Context}}`" + ` - retrieved record sections, each labelled with its file
- ` + "`{{.Records}}`" + ` - the full text of every record

Delete a file to restore its default on the next run.
`
	return os.WriteFile(path, []byte(content), 0600)
}
