package ollama

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/chronomed/chronology-service/internal/core/domain"
	"github.com/chronomed/chronology-service/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	limiter    *rate.Limiter
	executor   *resilience.Executor
}

type Options struct {
	RequestTimeout     time.Duration
	RequestsPerMinute  int
	ResilienceExecutor *resilience.Executor
}

func New(baseURL, model string) *Client {
	return NewWithOptions(baseURL, model, Options{})
}

func NewWithOptions(baseURL, model string, options Options) *Client {
	timeout := options.RequestTimeout
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	var limiter *rate.Limiter
	if options.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(options.RequestsPerMinute)/60.0), 1)
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
		executor:   options.ResilienceExecutor,
	}
}

// ProseGenerator is the stage-1 capability adapter: document in, cited
// narrative prose out. PDF and image payloads ride along as base64
// attachments; plain text is inlined into the prompt.
type ProseGenerator struct {
	client *Client
}

func NewProseGenerator(client *Client) *ProseGenerator {
	return &ProseGenerator{client: client}
}

func (g *ProseGenerator) GenerateProse(ctx context.Context, content []byte, mimeType string) (string, error) {
	request := map[string]any{
		"model":  g.client.model,
		"stream": false,
	}
	if strings.HasPrefix(mimeType, "text/") {
		request["prompt"] = buildProsePrompt() + "\n\nDocument:\n" + string(content)
	} else {
		request["prompt"] = buildProsePrompt()
		request["images"] = []string{base64.StdEncoding.EncodeToString(content)}
	}

	prose, err := g.client.generate(ctx, request, "generate_prose")
	if err != nil {
		return "", err
	}
	return prose, nil
}

// FactExtractor is the stage-2 capability adapter: cited prose in,
// date-grouped entries out. The JSON payload is decoded as emitted; the
// strict schema enforcement happens at the usecase boundary.
type FactExtractor struct {
	client *Client
}

func NewFactExtractor(client *Client) *FactExtractor {
	return &FactExtractor{client: client}
}

type factPayload struct {
	TimeOfDay  string `json:"time_of_day"`
	Category   string `json:"category"`
	Detail     string `json:"detail"`
	PageNumber int    `json:"page_number"`
	Quote      string `json:"quote"`
}

type entryPayload struct {
	Date    string        `json:"date"`
	Summary string        `json:"summary"`
	Tags    []string      `json:"tags"`
	Facts   []factPayload `json:"facts"`
}

func (e *FactExtractor) ExtractEntries(ctx context.Context, prose string) ([]domain.DailyEntry, error) {
	request := map[string]any{
		"model":  e.client.model,
		"prompt": buildExtractionPrompt(prose),
		"stream": false,
		"format": "json",
	}
	raw, err := e.client.generate(ctx, request, "extract_entries")
	if err != nil {
		return nil, err
	}

	var payload struct {
		Entries []entryPayload `json:"entries"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &payload); err != nil {
		return nil, fmt.Errorf("parse extraction json: %w", err)
	}

	entries := make([]domain.DailyEntry, 0, len(payload.Entries))
	for _, entry := range payload.Entries {
		facts := make([]domain.Fact, 0, len(entry.Facts))
		for _, fact := range entry.Facts {
			facts = append(facts, domain.Fact{
				TimeOfDay:  fact.TimeOfDay,
				Category:   domain.FactCategory(fact.Category),
				Detail:     fact.Detail,
				PageNumber: fact.PageNumber,
				Quote:      fact.Quote,
			})
		}
		entries = append(entries, domain.DailyEntry{
			Date:    entry.Date,
			Summary: entry.Summary,
			Tags:    entry.Tags,
			Facts:   facts,
		})
	}
	return entries, nil
}

func (c *Client) generate(ctx context.Context, request map[string]any, operation string) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limit wait: %w", err)
		}
	}

	var response struct {
		Response string `json:"response"`
	}
	call := func(callCtx context.Context) error {
		return c.postJSON(callCtx, "/api/generate", request, &response, operation)
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "ollama."+operation, call, classifyOllamaError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", wrapTemporaryIfNeeded(operation, err)
	}
	return strings.TrimSpace(response.Response), nil
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
