package interpreter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"mhmd-mcp/backend/internal/browser"
)

const systemPrompt = `You are an expert at planning web automation for a consent-preference site.
Translate the user's command into a JSON array of action steps. Each step is an object:
  {"action": "navigate", "url": "<absolute or site-relative URL>"}
  {"action": "click", "selector": "<CSS selector>"} or {"action": "click", "text": "<visible link/button text>"}
  {"action": "fill", "selector": "<CSS selector>", "value": "<text>"}
  {"action": "set_radio", "value": "OPT_IN"} or {"action": "set_radio", "value": "OPT_OUT"}
  {"action": "wait_visible", "selector": "<CSS selector>"}
  {"action": "screenshot"}

Steps run strictly in order. If the command asks for nothing actionable, return [].
CRITICAL: Respond ONLY with the JSON array. No explanations, no markdown, no extra text.`

// Config controls the Gemini-backed interpreter client.
type Config struct {
	Endpoint   string
	APIKey     string
	Model      string
	Timeout    time.Duration
	MaxElapsed time.Duration
}

// GeminiClient implements Interpreter against the Gemini generateContent API.
type GeminiClient struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
	maxElapsed time.Duration
	logger     *zap.Logger
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}

type geminiRequest struct {
	Contents          []geminiContent `json:"contents"`
	SystemInstruction *struct {
		Parts []geminiPart `json:"parts"`
	} `json:"system_instruction,omitempty"`
	GenerationConfig struct {
		Temperature      float64 `json:"temperature"`
		ResponseMimeType string  `json:"response_mime_type,omitempty"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
}

// NewGeminiClient initializes the client.
func NewGeminiClient(cfg Config, logger *zap.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent", cfg.Model)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxElapsed <= 0 {
		cfg.MaxElapsed = 2 * time.Minute
	}

	return &GeminiClient{
		apiKey:     cfg.APIKey,
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		maxElapsed: cfg.MaxElapsed,
		logger:     logger.Named("interpreter"),
	}, nil
}

// Interpret sends the command to the model and validates the returned plan.
// Transport errors and 5xx/429 responses are retried with exponential
// backoff; an unparseable or invalid plan is ErrInterpretationFailed.
func (c *GeminiClient) Interpret(ctx context.Context, command, baseURL string) (Plan, error) {
	raw, err := c.generate(ctx, fmt.Sprintf("Site entry point: %s\nCommand: %s", baseURL, command))
	if err != nil {
		return nil, err
	}

	plan, err := parsePlan(raw, baseURL)
	if err != nil {
		c.logger.Warn("model returned an unusable plan",
			zap.String("command", command),
			zap.Error(err),
		)
		return nil, err
	}

	c.logger.Info("command interpreted",
		zap.String("command", command),
		zap.Int("steps", len(plan)),
	)
	return plan, nil
}

func (c *GeminiClient) generate(ctx context.Context, userPrompt string) (string, error) {
	payload := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: userPrompt}}},
		},
	}
	payload.SystemInstruction = &struct {
		Parts []geminiPart `json:"parts"`
	}{Parts: []geminiPart{{Text: systemPrompt}}}
	payload.GenerationConfig.Temperature = 0.1
	payload.GenerationConfig.ResponseMimeType = "application/json"

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request payload: %w", err)
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = c.maxElapsed
	b.MaxInterval = 30 * time.Second

	var responseText string

	operation := func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create HTTP request: %w", err))
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("x-goog-api-key", c.apiKey)

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			c.logger.Warn("network error during LLM request, retrying", zap.Error(err))
			return fmt.Errorf("failed to execute HTTP request: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("gemini API error: status %d, body: %s", resp.StatusCode, string(respBody))
			switch resp.StatusCode {
			case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusInternalServerError:
				return err
			default:
				return backoff.Permanent(err)
			}
		}

		var parsed geminiResponse
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode response payload: %w", err))
		}
		if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
			return backoff.Permanent(fmt.Errorf("gemini API returned no content"))
		}

		responseText = parsed.Candidates[0].Content.Parts[0].Text
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return "", err
	}
	return responseText, nil
}

type planStep struct {
	Action   string `json:"action"`
	URL      string `json:"url,omitempty"`
	Selector string `json:"selector,omitempty"`
	Text     string `json:"text,omitempty"`
	Value    string `json:"value,omitempty"`
}

// parsePlan extracts and validates the JSON plan from the model output.
func parsePlan(raw, baseURL string) (Plan, error) {
	content := strings.TrimSpace(raw)

	// Models occasionally wrap the array in markdown fences or prose.
	if start, end := strings.Index(content, "["), strings.LastIndex(content, "]"); start >= 0 && end > start {
		content = content[start : end+1]
	}

	var steps []planStep
	if err := json.Unmarshal([]byte(content), &steps); err != nil {
		return nil, fmt.Errorf("%w: response is not a JSON action array: %v", ErrInterpretationFailed, err)
	}

	plan := make(Plan, 0, len(steps))
	for i, step := range steps {
		action, err := validateStep(step, baseURL)
		if err != nil {
			return nil, fmt.Errorf("%w: step %d: %v", ErrInterpretationFailed, i+1, err)
		}
		plan = append(plan, action)
	}
	return plan, nil
}

func validateStep(step planStep, baseURL string) (browser.Action, error) {
	switch browser.ActionKind(step.Action) {
	case browser.ActionNavigate:
		if step.URL == "" {
			return browser.Action{}, fmt.Errorf("navigate step missing url")
		}
		resolved, err := resolveURL(step.URL, baseURL)
		if err != nil {
			return browser.Action{}, err
		}
		return browser.Action{Kind: browser.ActionNavigate, URL: resolved}, nil
	case browser.ActionClick:
		if step.Selector == "" && step.Text == "" {
			return browser.Action{}, fmt.Errorf("click step needs a selector or text")
		}
		return browser.Action{Kind: browser.ActionClick, Selector: step.Selector, Text: step.Text}, nil
	case browser.ActionFill:
		if step.Selector == "" {
			return browser.Action{}, fmt.Errorf("fill step missing selector")
		}
		return browser.Action{Kind: browser.ActionFill, Selector: step.Selector, Value: step.Value}, nil
	case browser.ActionSetRadio:
		if step.Value == "" {
			return browser.Action{}, fmt.Errorf("set_radio step missing value")
		}
		return browser.Action{Kind: browser.ActionSetRadio, Value: step.Value}, nil
	case browser.ActionWaitVisible:
		if step.Selector == "" {
			return browser.Action{}, fmt.Errorf("wait_visible step missing selector")
		}
		return browser.Action{Kind: browser.ActionWaitVisible, Selector: step.Selector}, nil
	case browser.ActionScreenshot:
		return browser.Action{Kind: browser.ActionScreenshot}, nil
	default:
		return browser.Action{}, fmt.Errorf("unsupported action %q", step.Action)
	}
}

func resolveURL(raw, baseURL string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid url %q", raw)
	}
	if u.IsAbs() {
		return u.String(), nil
	}
	base, err := url.Parse(baseURL)
	if err != nil || !base.IsAbs() {
		return "", fmt.Errorf("cannot resolve relative url %q without a base", raw)
	}
	return base.ResolveReference(u).String(), nil
}
