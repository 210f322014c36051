package domain

import (
	"strings"
	"time"
	"unicode"
)

// QueryRecord is one completed query appended to a session's log.
type QueryRecord struct {
	QueryNum  int            `json:"query_num"`
	QueryText string         `json:"query_text"`
	Timestamp time.Time      `json:"timestamp"`
	Result    AnalysisResult `json:"result"`
}

// Session is an append-only conversation of analysis queries. Records are
// never edited retroactively.
type Session struct {
	ID        string        `json:"session_id"`
	Title     string        `json:"title"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Queries   []QueryRecord `json:"queries"`
}

// PriorResult returns the most recent query's result, or nil for a fresh
// session. Contextual resolution is defined against this value.
func (s *Session) PriorResult() *AnalysisResult {
	if len(s.Queries) == 0 {
		return nil
	}
	result := s.Queries[len(s.Queries)-1].Result
	return &result
}

type SessionSummary struct {
	ID         string    `json:"session_id"`
	Title      string    `json:"title"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	QueryCount int       `json:"query_count"`
}

const sessionTitleMaxLen = 40

// SessionTitle derives a readable session title from the first query.
func SessionTitle(query string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' {
			return r
		}
		return ' '
	}, query)
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	if cleaned == "" {
		return "New Analysis Session"
	}

	runes := []rune(cleaned)
	runes[0] = unicode.ToUpper(runes[0])
	if len(runes) > sessionTitleMaxLen {
		return string(runes[:sessionTitleMaxLen]) + "..."
	}
	return string(runes)
}
