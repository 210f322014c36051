package domain

import "testing"

func TestSessionTitle(t *testing.T) {
	cases := []struct {
		query string
		want  string
	}{
		{"find stray dogs", "Find stray dogs"},
		{"  find, stray: dogs!!  ", "Find stray dogs"},
		{"", "New Analysis Session"},
		{"?!...", "New Analysis Session"},
		{
			"find all the cameras that show stray dogs near schools in the old city",
			"Find all the cameras that show stray dog...",
		},
	}
	for _, tc := range cases {
		if got := SessionTitle(tc.query); got != tc.want {
			t.Errorf("SessionTitle(%q) = %q, want %q", tc.query, got, tc.want)
		}
	}
}

func TestPriorResult(t *testing.T) {
	session := &Session{}
	if session.PriorResult() != nil {
		t.Error("fresh session should have no prior result")
	}

	session.Queries = []QueryRecord{
		{QueryNum: 1, Result: AnalysisResult{MatchesFound: 1}},
		{QueryNum: 2, Result: AnalysisResult{MatchesFound: 7}},
	}
	prior := session.PriorResult()
	if prior == nil || prior.MatchesFound != 7 {
		t.Errorf("prior = %+v, want the latest result", prior)
	}
}
