package domain

// QueryAnalysis is the classifier's reading of what the user wants to find.
type QueryAnalysis struct {
	SearchCriteria string `json:"search_criteria"`
	AnalysisType   string `json:"analysis_type"`
	Category       string `json:"category"`
}

// DefaultQueryAnalysis is the fallback when query understanding fails; the
// raw query text becomes the search criteria.
func DefaultQueryAnalysis(query string) QueryAnalysis {
	return QueryAnalysis{
		SearchCriteria: query,
		AnalysisType:   "detection",
		Category:       "general",
	}
}

// AnalysisResult aggregates a completed AnalysisJob. Immutable once built.
type AnalysisResult struct {
	TotalImages     int       `json:"total_images"`
	MatchesFound    int       `json:"matches_found"`
	UniqueLocations int       `json:"unique_locations"`
	DetailedResults []Verdict `json:"detailed_results"`
	FinalAnswer     string    `json:"final_answer"`
	IsContextual    bool      `json:"is_contextual"`
}

// MatchedVerdicts returns the verdicts with match=true in stored order.
func (r *AnalysisResult) MatchedVerdicts() []Verdict {
	matched := make([]Verdict, 0, r.MatchesFound)
	for _, v := range r.DetailedResults {
		if v.Match {
			matched = append(matched, v)
		}
	}
	return matched
}
