// Package chunker splits record text into overlapping windows that prefer
// to end on paragraph, line, sentence or word boundaries.
package chunker

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/custodia-labs/medivault/internal/core/domain"
)

// DefaultChunkSize is the default window length in characters.
const DefaultChunkSize = 500

// DefaultChunkOverlap is the default number of characters shared by consecutive windows.
const DefaultChunkOverlap = 50

// boundaryRatio is the fraction of the window after which a cut point is searched for.
const boundaryRatio = 0.8

// boundaries are tried in priority order; the cut lands just after the match.
var boundaries = [][]rune{[]rune("\n\n"), []rune("\n"), []rune(". "), []rune(" ")}

// Processor splits document content into overlapping chunks.
// It implements the driven.Chunker interface.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the window length in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between windows in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the effective window length.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Overlap returns the effective overlap after clamping.
func (p *Processor) Overlap() int {
	return p.overlap
}

// Process splits the document content and stamps every chunk with the
// document's metadata.
func (p *Processor) Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, errors.New("document is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	chunks := p.Split(doc.Content)
	meta := domain.MetadataFor(*doc)
	for i := range chunks {
		chunks[i].DocumentID = doc.ID
		chunks[i].Metadata = meta
	}
	return chunks, nil
}

// Split cuts text into windows. Lengths and offsets count characters (runes)
// of the whitespace-trimmed text; the last chunk always ends at its length.
func (p *Processor) Split(text string) []domain.Chunk {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	runes := []rune(text)
	n := len(runes)
	if n <= p.chunkSize {
		return []domain.Chunk{{
			Content:     text,
			Position:    0,
			Total:       1,
			StartOffset: 0,
			EndOffset:   n,
		}}
	}

	estimated := n/(p.chunkSize-p.overlap) + 1
	chunks := make([]domain.Chunk, 0, estimated)

	start := 0
	for start < n {
		end := start + p.chunkSize
		if end >= n {
			end = n
		} else {
			end = p.cutPoint(runes, start, end)
		}

		if content := strings.TrimSpace(string(runes[start:end])); content != "" {
			chunks = append(chunks, domain.Chunk{
				Content:     content,
				Position:    len(chunks),
				StartOffset: start,
				EndOffset:   end,
			})
		}

		if end == n {
			break
		}

		next := end - p.overlap
		if next <= start {
			// Cut landed inside the overlap; drop the overlap for this step.
			next = end
		}
		start = next
	}

	for i := range chunks {
		chunks[i].Total = len(chunks)
	}
	return chunks
}

// cutPoint returns where the window [start, end) should end. It looks for the
// last boundary starting in the final fifth of the window, falling back to end.
func (p *Processor) cutPoint(runes []rune, start, end int) int {
	window := runes[start:end]
	from := int(float64(p.chunkSize) * boundaryRatio)
	if from > len(window) {
		return end
	}

	for _, b := range boundaries {
		if idx := lastIndex(window[from:], b); idx >= 0 {
			return start + from + idx + len(b)
		}
	}
	return end
}

// lastIndex is strings.LastIndex over runes.
func lastIndex(s, sep []rune) int {
	for i := len(s) - len(sep); i >= 0; i-- {
		if slices.Equal(s[i:i+len(sep)], sep) {
			return i
		}
	}
	return -1
}
