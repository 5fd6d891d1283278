// File path: internal/learn/errors.go
package learn

import "errors"

var (
	// ErrAnalysisParse indicates the generative tier returned topic
	// extraction output that could not be parsed into a JobProfile. The
	// analyzer never fabricates a partial profile around it.
	ErrAnalysisParse = errors.New("job analysis output unparsable")

	// ErrCoverageUnavailable indicates the retrieval service was
	// unreachable or erroring. A topic is never reported uncovered on the
	// back of a transient retrieval failure; callers decide retry versus
	// fallback.
	ErrCoverageUnavailable = errors.New("coverage resolution unavailable")

	// ErrStructureGeneration indicates outline generation produced
	// malformed output after one retry.
	ErrStructureGeneration = errors.New("topic structure generation failed")

	// ErrContentGeneration indicates section content generation produced
	// malformed output after one retry.
	ErrContentGeneration = errors.New("section content generation failed")
)
