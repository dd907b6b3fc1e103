package domain

// IndexEntry pairs a stored vector, addressed by Position, with the
// metadata of the chunk it was produced from.
type IndexEntry struct {
	// Position is the entry's offset in the vector array and its only identity.
	Position int `json:"position"`

	// Chunk is the chunk the vector was embedded from.
	Chunk Chunk `json:"chunk"`
}

// SearchHit is a single nearest-neighbour result.
type SearchHit struct {
	IndexEntry

	// Distance is the squared Euclidean distance to the query vector.
	Distance float32
}

// Answer is the result of a question against the corpus.
type Answer struct {
	// Text is the generated answer. Never empty.
	Text string `json:"answer"`

	// Recommendations is always empty here; they come from a separate request.
	Recommendations []string `json:"recommendations"`

	// Sources are the distinct filenames of retrieved chunks in first-seen order.
	Sources []string `json:"sources"`

	// NeedsFollowup is set when the answer offers further help.
	NeedsFollowup bool `json:"needs_followup"`

	// Grounded is set when the answer was built from retrieved chunks.
	Grounded bool `json:"has_records"`
}

// Recommendations is the result of an explicit recommendation request.
type Recommendations struct {
	// Items holds at least one recommendation.
	Items []string `json:"recommendations"`

	// Sources are the distinct filenames of retrieved chunks.
	Sources []string `json:"sources"`
}

// Summary is the result of summarising the whole corpus.
type Summary struct {
	// Text is the generated summary, or a fixed message when no records exist.
	Text string `json:"summary"`

	// HasRecords is false when the corpus was empty.
	HasRecords bool `json:"has_records"`
}
