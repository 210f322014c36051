package usecase

import (
	"strings"

	"github.com/visionops/camsight/internal/core/domain"
)

// KeywordFollowUpClassifier is the default follow-up detection strategy: a
// case-insensitive phrase match against linguistic back-references. Queries
// that only ask to re-present stored fields (coordinates, maps, listings)
// classify as direct and never reach the worker pool.
type KeywordFollowUpClassifier struct {
	followUpMarkers []string
	directMarkers   []string
}

func NewKeywordFollowUpClassifier() *KeywordFollowUpClassifier {
	return &KeywordFollowUpClassifier{
		followUpMarkers: []string{
			"these", "those", "them", "previous", "above", "earlier",
			"same", "which of", "from the", "based on",
			"map", "visualize", "show me", "list", "filter", "sort",
		},
		directMarkers: []string{
			"map", "visualize", "show me", "list", "coordinates",
			"latitude", "longitude", "export", "filter", "sort",
		},
	}
}

func (c *KeywordFollowUpClassifier) Classify(query string, hasPrior bool) domain.QueryKind {
	if !hasPrior {
		return domain.QueryFull
	}

	lower := strings.ToLower(query)
	if !containsAny(lower, c.followUpMarkers) {
		return domain.QueryFull
	}
	if containsAny(lower, c.directMarkers) {
		return domain.QueryDirect
	}
	return domain.QueryContextual
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
