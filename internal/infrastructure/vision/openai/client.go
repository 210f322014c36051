package openai

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/visionops/camsight/internal/core/domain"
	"github.com/visionops/camsight/internal/infrastructure/resilience"
)

const (
	defaultBaseURL     = "https://api.openai.com/v1"
	defaultModel       = "gpt-4o"
	defaultCallTimeout = 60 * time.Second
)

type Config struct {
	BaseURL           string
	APIKey            string
	Model             string
	CallTimeout       time.Duration
	RequestsPerSecond float64
	Resilience        resilience.Config
}

// Client implements the vision classifier against an OpenAI-compatible chat
// completions API. Every call is rate limited client-side and runs under the
// resilience executor: transient failures (timeouts, rate-limit responses,
// network errors) are retried with backoff, terminal ones are not.
type Client struct {
	baseURL     string
	apiKey      string
	model       string
	callTimeout time.Duration
	httpClient  httpDoer
	limiter     *rate.Limiter
	executor    *resilience.Executor
}

func New(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	callTimeout := cfg.CallTimeout
	if callTimeout <= 0 {
		callTimeout = defaultCallTimeout
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		baseURL:     baseURL,
		apiKey:      cfg.APIKey,
		model:       model,
		callTimeout: callTimeout,
		httpClient:  newHTTPClient(callTimeout),
		limiter:     rate.NewLimiter(rate.Limit(rps), int(rps)+1),
		executor:    resilience.NewExecutor(cfg.Resilience),
	}
}

func (c *Client) AnalyzeQuery(ctx context.Context, query string) (domain.QueryAnalysis, error) {
	content, err := c.chat(ctx, "openai.analyze_query", []chatMessage{
		{Role: "user", Content: buildQueryAnalysisPrompt(query)},
	}, 200, 0.3)
	if err != nil {
		return domain.QueryAnalysis{}, err
	}

	var qa domain.QueryAnalysis
	if err := json.Unmarshal([]byte(extractJSONObject(content)), &qa); err != nil || qa.SearchCriteria == "" {
		// Unparseable understanding is not fatal; the raw query works.
		return domain.DefaultQueryAnalysis(query), nil
	}
	return qa, nil
}

func (c *Client) ClassifyImage(ctx context.Context, img domain.ImageRef, meta domain.CameraMetadata, qa domain.QueryAnalysis) (domain.Verdict, error) {
	content, err := c.chat(ctx, "openai.classify_image", []chatMessage{
		{Role: "user", Content: []contentPart{
			{Type: "text", Text: buildImagePrompt(qa, meta)},
			{Type: "image_url", ImageURL: &imageURL{URL: img.Locator, Detail: "auto"}},
		}},
	}, 500, 0.3)
	if err != nil {
		return domain.Verdict{}, err
	}
	return parseVerdict(img, meta, content), nil
}

func (c *Client) SummarizeFindings(ctx context.Context, query string, result *domain.AnalysisResult) (string, error) {
	return c.chat(ctx, "openai.summarize", []chatMessage{
		{Role: "user", Content: buildSummaryPrompt(query, result)},
	}, 800, 0.7)
}

func (c *Client) AnswerFromPrior(ctx context.Context, query string, prior *domain.AnalysisResult) (string, error) {
	priorJSON, err := json.Marshal(prior)
	if err != nil {
		return "", err
	}
	return c.chat(ctx, "openai.contextual_answer", []chatMessage{
		{Role: "system", Content: "You are a helpful assistant analyzing CCTV camera data. Use the conversation context to answer follow-up questions."},
		{Role: "user", Content: buildContextAnswerPrompt(query, string(priorJSON))},
	}, 0, 0.5)
}

func (c *Client) chat(ctx context.Context, operation string, messages []chatMessage, maxTokens int, temperature float64) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	request := chatRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}

	var content string
	err := c.executor.Execute(ctx, operation, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
		defer cancel()

		var response chatResponse
		if err := c.postJSON(attemptCtx, "/chat/completions", request, &response, operation); err != nil {
			return err
		}
		if len(response.Choices) == 0 {
			return &MalformedResponseError{Operation: operation, Reason: "no choices in response"}
		}
		content = strings.TrimSpace(response.Choices[0].Message.Content)
		return nil
	}, classifyOpenAIError)
	if err != nil {
		return "", wrapTemporaryIfNeeded(operation, err)
	}
	return content, nil
}

func parseVerdict(img domain.ImageRef, meta domain.CameraMetadata, content string) domain.Verdict {
	verdict := domain.Verdict{
		ImageID:    img.ID,
		ImageName:  img.DisplayName,
		CameraIP:   domain.CameraIPFromName(img.DisplayName),
		Status:     domain.VerdictSuccess,
		AnalyzedAt: time.Now().UTC(),
	}
	verdict.ApplyMetadata(meta)

	var parsed struct {
		Match       bool            `json:"match"`
		Count       json.RawMessage `json:"count"`
		Description string          `json:"description"`
		Confidence  string          `json:"confidence"`
		Details     string          `json:"details"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(content)), &parsed); err != nil {
		verdict.Description = content
		verdict.Confidence = domain.ConfidenceLow
		verdict.Details = "could not parse classifier response"
		return verdict
	}

	verdict.Match = parsed.Match
	verdict.Description = parsed.Description
	verdict.Details = parsed.Details
	verdict.Confidence = domain.ParseConfidence(parsed.Confidence)

	// The model reports count as a number or the literal "N/A".
	var count int
	if err := json.Unmarshal(parsed.Count, &count); err == nil {
		verdict.Count = &count
	}
	return verdict
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
