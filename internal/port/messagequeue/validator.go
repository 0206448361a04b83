package messagequeue

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/brandloom/brandloom/internal/domain/reviewitem"
)

// Validate checks whether data is valid JSON matching the payload shape
// carried on the given subject. Unknown subjects pass validation
// (future-proof for new message types).
func Validate(subject string, data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON on subject %s", subject)
	}

	// Map subject to payload struct for structural validation.
	var target any
	switch {
	case subject == SubjectReviewEnqueued:
		target = &reviewitem.ReviewItem{}
	case subject == SubjectReviewDecided:
		target = &reviewitem.ReviewDecision{}
	case strings.HasPrefix(subject, SubjectReviewGenerated+"."):
		// reviews.generated.{brandId} carries the generator envelope.
		target = &reviewitem.GeneratorResult{}
	default:
		return nil
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("schema validation failed for %s: %w", subject, err)
	}
	return nil
}
