// File path: internal/learn/types.go
package learn

import "time"

// Chunk is a retrieved passage from the vector index together with its
// similarity score and source metadata. Chunks retained during coverage
// resolution are reused as grounding context for generation.
type Chunk struct {
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
	Source     string  `json:"source"`
	SourceType string  `json:"source_type,omitempty"`
	URL        string  `json:"url,omitempty"`
	Chapter    string  `json:"chapter,omitempty"`
	Topic      string  `json:"topic,omitempty"`
	Namespace  string  `json:"namespace,omitempty"`
}

// SourceTypeBook and SourceTypeWeb are the two origins tracked per source.
const (
	SourceTypeBook = "book"
	SourceTypeWeb  = "web"
)

// Topic is a single skill extracted from a job description.
type Topic struct {
	Name     string   `json:"name"`
	Keywords []string `json:"keywords,omitempty"`
	Context  string   `json:"context,omitempty"`
}

// JobProfile is the structured result of analyzing a job description.
// Immutable after creation except for RoleType backfill.
type JobProfile struct {
	RoleType       string  `json:"role_type"`
	Seniority      string  `json:"seniority,omitempty"`
	ExplicitTopics []Topic `json:"explicit_topics"`
	ImplicitTopics []Topic `json:"implicit_topics,omitempty"`
}

// Topics returns the explicit and implicit topics as one ordered list.
func (p JobProfile) Topics() []Topic {
	out := make([]Topic, 0, len(p.ExplicitTopics)+len(p.ImplicitTopics))
	out = append(out, p.ExplicitTopics...)
	out = append(out, p.ImplicitTopics...)
	return out
}

// CoverageSource aggregates the retrieved chunks for one source (a book title
// or a web domain).
type CoverageSource struct {
	SourceName           string  `json:"source_name"`
	SourceType           string  `json:"source_type"`
	Confidence           float64 `json:"confidence"`
	URL                  string  `json:"url,omitempty"`
	Chapter              string  `json:"chapter,omitempty"`
	ChunksAboveThreshold int     `json:"chunks_above_threshold"`
	ChunkRefs            []Chunk `json:"chunk_refs,omitempty"`
}

// CoverageResult is the resolver's verdict for one topic.
type CoverageResult struct {
	TopicName  string           `json:"topic_name"`
	Covered    bool             `json:"covered"`
	Confidence float64          `json:"confidence"`
	BestSource *CoverageSource  `json:"best_source,omitempty"`
	AllSources []CoverageSource `json:"all_sources,omitempty"`
}

// RetainedChunks flattens the chunk refs of every source in ranked order.
func (r CoverageResult) RetainedChunks() []Chunk {
	var out []Chunk
	for _, src := range r.AllSources {
		out = append(out, src.ChunkRefs...)
	}
	return out
}

// Resource is an externally curated learning resource attached to topics the
// index cannot ground.
type Resource struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Type  string `json:"type,omitempty"`
}

// Stage is one ordered phase of a learning path.
type Stage struct {
	Name          string   `json:"name"`
	DurationWeeks int      `json:"duration_weeks"`
	Topics        []string `json:"topics"`
}

// UncoveredTopic pairs an uncovered topic with its fallback resources.
type UncoveredTopic struct {
	Name      string     `json:"name"`
	Resources []Resource `json:"resources,omitempty"`
}

// TopicFailure marks a topic whose structure generation failed. Paths carry
// these so the caller can render a retry placeholder instead of dropping the
// topic silently.
type TopicFailure struct {
	Topic  string `json:"topic"`
	Reason string `json:"reason"`
}

// LearningPath is the full sequenced plan for one user. One active path per
// user; regenerating replaces the prior path outright.
type LearningPath struct {
	ID                 string           `json:"id"`
	UserID             string           `json:"user_id,omitempty"`
	JobDescription     string           `json:"job_description"`
	RoleType           string           `json:"role_type"`
	Stages             []Stage          `json:"stages"`
	CoveredTopics      []string         `json:"covered_topics"`
	UncoveredTopics    []UncoveredTopic `json:"uncovered_topics,omitempty"`
	FailedTopics       []TopicFailure   `json:"failed_topics,omitempty"`
	CoveragePercentage int              `json:"coverage_percentage"`
	CreatedAt          time.Time        `json:"created_at"`
}

// StructureSection is a single section inside a study week.
type StructureSection struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Summary string `json:"summary,omitempty"`
}

// StructureWeek is one week of a generated topic outline.
type StructureWeek struct {
	Number   int                `json:"number"`
	Theme    string             `json:"theme,omitempty"`
	Sections []StructureSection `json:"sections"`
}

// StructureEntry is a cached weekly outline for one topic.
type StructureEntry struct {
	CacheKey        string          `json:"cache_key"`
	Topic           string          `json:"topic"`
	Weeks           []StructureWeek `json:"weeks"`
	EstimatedHours  int             `json:"estimated_hours,omitempty"`
	DifficultyLevel string          `json:"difficulty_level,omitempty"`
	SourceBooks     []string        `json:"source_books,omitempty"`
	GenerationModel string          `json:"generation_model,omitempty"`
	ContentVersion  int             `json:"content_version"`
	AccessCount     int64           `json:"access_count"`
	Cached          bool            `json:"cached"`
}

// ContentSection is a rich explanatory section of generated study content.
type ContentSection struct {
	Title      string `json:"title"`
	Body       string `json:"body"`
	KeyFormula string `json:"key_formula,omitempty"`
}

// PracticeProblem is a graded exercise attached to section content.
type PracticeProblem struct {
	Question   string `json:"question"`
	Difficulty string `json:"difficulty,omitempty"`
	Hint       string `json:"hint,omitempty"`
}

// ContentDoc is the long-form document generated for one section.
type ContentDoc struct {
	Introduction  string            `json:"introduction"`
	Sections      []ContentSection  `json:"sections"`
	KeyTakeaways  []string          `json:"key_takeaways,omitempty"`
	PracticalTips []string          `json:"practical_tips,omitempty"`
	Problems      []PracticeProblem `json:"practice_problems,omitempty"`
	Attributions  []string          `json:"source_attributions,omitempty"`
}

// ContentEntry is a cached long-form content document for one section.
type ContentEntry struct {
	CacheKey        string     `json:"cache_key"`
	Topic           string     `json:"topic"`
	SectionID       string     `json:"section_id"`
	SectionTitle    string     `json:"section_title"`
	Doc             ContentDoc `json:"doc"`
	GenerationModel string     `json:"generation_model,omitempty"`
	ContentVersion  int        `json:"content_version"`
	AccessCount     int64      `json:"access_count"`
	Cached          bool       `json:"cached"`
}
