package usecase

import (
	"fmt"
	"sort"
	"strings"

	"github.com/visionops/camsight/internal/core/domain"
)

// ResultAggregator folds per-image verdicts into an AnalysisResult and
// composes the narrative answer. Fold is pure: any permutation of the same
// verdict set yields the same result modulo detailed-results ordering, which
// is normalized by image id.
type ResultAggregator struct{}

func (ResultAggregator) Fold(verdicts []domain.Verdict, contextual bool) domain.AnalysisResult {
	detailed := make([]domain.Verdict, len(verdicts))
	copy(detailed, verdicts)
	sort.Slice(detailed, func(i, j int) bool { return detailed[i].ImageID < detailed[j].ImageID })

	matches := 0
	locations := make(map[string]struct{})
	for _, v := range detailed {
		if !v.Match {
			continue
		}
		matches++
		if v.LocationName != "" {
			locations[v.LocationName] = struct{}{}
		}
	}

	return domain.AnalysisResult{
		TotalImages:     len(detailed),
		MatchesFound:    matches,
		UniqueLocations: len(locations),
		DetailedResults: detailed,
		IsContextual:    contextual,
	}
}

// ComposeNarrative builds final_answer: the model summary first, then the
// programmatic per-district breakdown, then the statistics footer. The
// breakdown is built without the model so result size is unbounded.
func (a ResultAggregator) ComposeNarrative(result domain.AnalysisResult, summary string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(summary))
	b.WriteString("\n\n---\n\n")
	b.WriteString(a.detailedLocationSection(result))
	b.WriteString("\n---\n\n")
	b.WriteString(a.statisticsSection(result))
	return b.String()
}

// FallbackSummary replaces the model summary when generation fails.
func (ResultAggregator) FallbackSummary(query string, result domain.AnalysisResult) string {
	return fmt.Sprintf(`**Introduction**

Analysis completed for: %q

**Key Findings**

- Total images analyzed: %d
- Matching locations: %d
- Unique locations: %d

**Conclusion**

Detailed location analysis provided below.`,
		query, result.TotalImages, result.MatchesFound, result.UniqueLocations)
}

func (ResultAggregator) detailedLocationSection(result domain.AnalysisResult) string {
	matched := result.MatchedVerdicts()
	if len(matched) == 0 {
		return "**Detailed Analysis by Location**\n\nNo matching locations found.\n"
	}

	byDistrict := make(map[string][]domain.Verdict)
	for _, v := range matched {
		byDistrict[v.District] = append(byDistrict[v.District], v)
	}
	districts := make([]string, 0, len(byDistrict))
	for d := range byDistrict {
		districts = append(districts, d)
	}
	sort.Strings(districts)

	var b strings.Builder
	fmt.Fprintf(&b, "**Detailed Analysis by Location**\n\nFound %d locations matching your query.\n\n", len(matched))
	for _, district := range districts {
		entries := byDistrict[district]
		fmt.Fprintf(&b, "### %s (%d locations)\n\n", district, len(entries))
		for idx, v := range entries {
			fmt.Fprintf(&b, "**%d. %s**\n\n", idx+1, v.LocationName)
			fmt.Fprintf(&b, "- District: %s\n", v.District)
			fmt.Fprintf(&b, "- Mandal: %s\n", v.Mandal)
			fmt.Fprintf(&b, "- Camera IP: %s\n", v.CameraIP)
			if v.Latitude != "" && v.Longitude != "" {
				fmt.Fprintf(&b, "- Coordinates: %s, %s\n", v.Latitude, v.Longitude)
			}
			if v.Count != nil {
				fmt.Fprintf(&b, "- Count: %d\n", *v.Count)
			}
			if v.Confidence != "" {
				fmt.Fprintf(&b, "- Confidence: %s\n", v.Confidence)
			}
			fmt.Fprintf(&b, "- Details: %s\n", v.Description)
			if v.Details != "" {
				fmt.Fprintf(&b, "- Observations: %s\n", v.Details)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (ResultAggregator) statisticsSection(result domain.AnalysisResult) string {
	// Guard the ratio: a zero-image job still aggregates cleanly.
	rate := 0.0
	if result.TotalImages > 0 {
		rate = float64(result.MatchesFound) / float64(result.TotalImages) * 100
	}
	return fmt.Sprintf(`**Analysis Statistics**

- Total Images Analyzed: %d
- Matching Locations: %d
- Match Rate: %.1f%%
`, result.TotalImages, result.MatchesFound, rate)
}
