package domain

import "fmt"

// EventType tags the streaming event variants delivered to a live client.
type EventType string

const (
	EventStart         EventType = "start"
	EventLog           EventType = "log"
	EventQueryAnalysis EventType = "query_analysis"
	EventProgress      EventType = "progress"
	EventMatch         EventType = "match"
	EventComplete      EventType = "complete"
	EventError         EventType = "error"
)

// Event is one frame of the analysis stream. Data holds the typed payload for
// the variant; consumers dispatch on Type.
type Event struct {
	Type EventType `json:"type"`
	Data any       `json:"data"`
}

type MessagePayload struct {
	Message string `json:"message"`
	Query   string `json:"query,omitempty"`
}

type QueryAnalysisPayload struct {
	Message  string        `json:"message"`
	Analysis QueryAnalysis `json:"analysis"`
}

type ProgressPayload struct {
	Current int `json:"current"`
	Total   int `json:"total"`
	Percent int `json:"percent"`
}

type MatchPayload struct {
	Message string  `json:"message"`
	Result  Verdict `json:"result"`
}

func StartEvent(query string) Event {
	return Event{Type: EventStart, Data: MessagePayload{Message: "Starting analysis...", Query: query}}
}

func LogEvent(format string, args ...any) Event {
	return Event{Type: EventLog, Data: MessagePayload{Message: fmt.Sprintf(format, args...)}}
}

func QueryAnalysisEvent(qa QueryAnalysis) Event {
	return Event{Type: EventQueryAnalysis, Data: QueryAnalysisPayload{
		Message:  fmt.Sprintf("Query understood: looking for %q", qa.SearchCriteria),
		Analysis: qa,
	}}
}

func ProgressEvent(current, total int) Event {
	percent := 0
	if total > 0 {
		percent = current * 100 / total
	}
	return Event{Type: EventProgress, Data: ProgressPayload{Current: current, Total: total, Percent: percent}}
}

func MatchEvent(matchNum int, v Verdict) Event {
	return Event{Type: EventMatch, Data: MatchPayload{
		Message: fmt.Sprintf("Match #%d: %s (%s, %s) - IP: %s", matchNum, v.LocationName, v.Mandal, v.District, v.CameraIP),
		Result:  v,
	}}
}

func CompleteEvent(result AnalysisResult) Event {
	return Event{Type: EventComplete, Data: result}
}

func ErrorEvent(message string) Event {
	return Event{Type: EventError, Data: MessagePayload{Message: message}}
}
