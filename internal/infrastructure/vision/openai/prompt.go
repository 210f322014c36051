package openai

import (
	"fmt"
	"sort"
	"strings"

	"github.com/visionops/camsight/internal/core/domain"
)

func buildQueryAnalysisPrompt(query string) string {
	var b strings.Builder
	b.WriteString("Analyze this surveillance query and respond with a JSON object only.\n\n")
	fmt.Fprintf(&b, "Query: %q\n\n", query)
	b.WriteString("Return exactly this structure:\n")
	b.WriteString(`{"search_criteria": "<what to look for in each CCTV frame>", `)
	b.WriteString(`"analysis_type": "<detection|counting|description>", `)
	b.WriteString(`"category": "<people|vehicles|animals|objects|events|general>"}`)
	return b.String()
}

func buildImagePrompt(qa domain.QueryAnalysis, meta domain.CameraMetadata) string {
	var b strings.Builder
	b.WriteString("You are analyzing a CCTV camera frame.\n\n")
	fmt.Fprintf(&b, "Search criteria: %s\n", qa.SearchCriteria)
	fmt.Fprintf(&b, "Analysis type: %s\n", qa.AnalysisType)
	if meta.LocationName != "" {
		fmt.Fprintf(&b, "Camera location: %s, %s district\n", meta.LocationName, meta.District)
	}
	b.WriteString("\nExamine the image carefully and respond with a JSON object only:\n")
	b.WriteString(`{"match": true/false, "count": <number or "N/A">, `)
	b.WriteString(`"description": "<one sentence describing what is visible>", `)
	b.WriteString(`"confidence": "<low|medium|high>", `)
	b.WriteString(`"details": "<relevant specifics, or empty string>"}`)
	b.WriteString("\n\nSet match to true only if the search criteria are clearly satisfied.")
	return b.String()
}

func buildSummaryPrompt(query string, result *domain.AnalysisResult) string {
	var b strings.Builder
	b.WriteString("Summarize the findings of a CCTV image analysis for the user.\n\n")
	fmt.Fprintf(&b, "User query: %q\n", query)
	fmt.Fprintf(&b, "Images analyzed: %d\n", result.TotalImages)
	fmt.Fprintf(&b, "Matches found: %d\n", result.MatchesFound)
	fmt.Fprintf(&b, "Unique locations: %d\n\n", result.UniqueLocations)

	matched := result.MatchedVerdicts()
	if len(matched) > 0 {
		b.WriteString("Matched cameras by district:\n")
		for _, line := range districtLines(matched) {
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString("\nSample observations:\n")
		for i, v := range matched {
			if i >= 10 {
				break
			}
			fmt.Fprintf(&b, "- %s: %s\n", v.LocationName, v.Description)
		}
	}

	b.WriteString("\nWrite a concise natural-language summary (3-5 sentences) answering the query. ")
	b.WriteString("Do not invent locations or counts that are not listed above.")
	return b.String()
}

func buildContextAnswerPrompt(query, priorJSON string) string {
	var b strings.Builder
	b.WriteString("Previous analysis results (JSON):\n")
	b.WriteString(priorJSON)
	b.WriteString("\n\nFollow-up question: ")
	b.WriteString(query)
	b.WriteString("\n\nAnswer using only the data above. If the question asks for locations or ")
	b.WriteString("coordinates, list them explicitly from the results.")
	return b.String()
}

func districtLines(matched []domain.Verdict) []string {
	counts := make(map[string]int)
	for _, v := range matched {
		district := v.District
		if district == "" {
			district = "Unknown"
		}
		counts[district]++
	}
	districts := make([]string, 0, len(counts))
	for d := range counts {
		districts = append(districts, d)
	}
	sort.Strings(districts)

	lines := make([]string, 0, len(districts))
	for _, d := range districts {
		lines = append(lines, fmt.Sprintf("- %s: %d camera(s)", d, counts[d]))
	}
	return lines
}
