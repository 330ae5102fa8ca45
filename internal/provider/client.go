package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"codexsum/pkg/types"
)

// Per-1K-token cost table used for the run's cost estimate. Rates are rough
// blended input/output figures; unknown providers get the default.
var costPer1K = map[string]float64{
	"openai":     0.0040,
	"anthropic":  0.0060,
	"perplexity": 0.0020,
}

const defaultCostPer1K = 0.02

func estimateCost(providerName string, tokens int) float64 {
	rate, ok := costPer1K[providerName]
	if !ok {
		rate = defaultCostPer1K
	}
	return float64(tokens) / 1000 * rate
}

func containsQuotaMarker(body string) bool {
	b := strings.ToLower(body)
	return strings.Contains(b, "quota") ||
		strings.Contains(b, "billing") ||
		strings.Contains(b, "insufficient")
}

// chatClient speaks the OpenAI-compatible chat completions wire format.
// OpenAI and Perplexity share it; only the endpoint differs.
type chatClient struct {
	name       string
	baseURL    string
	apiKey     string
	spec       types.ProviderSpec
	httpClient *http.Client
	usage      usage
}

func (c *chatClient) Name() string  { return c.name }
func (c *chatClient) Model() string { return c.spec.Model }

func (c *chatClient) Usage() UsageSnapshot { return c.usage.snapshot() }

func (c *chatClient) Summarize(ctx context.Context, req Request) (*Response, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.spec.Timeout)
	defer cancel()

	body, err := json.Marshal(map[string]any{
		"model":       c.spec.Model,
		"temperature": c.spec.Temperature,
		"max_tokens":  c.spec.MaxTokens,
		"messages": []map[string]string{
			{"role": "system", "content": req.System},
			{"role": "user", "content": req.User},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.usage.recordError()
		return nil, c.transportError(ctx, callCtx, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.usage.recordError()
		return nil, &Error{
			Provider: c.name,
			Kind:     classifyStatus(resp.StatusCode, string(raw)),
			Status:   resp.StatusCode,
			Msg:      strings.TrimSpace(string(raw)),
		}
	}

	var apiResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
		} `json:"usage"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		c.usage.recordError()
		return nil, &Error{Provider: c.name, Kind: types.ErrKindTransient, Msg: fmt.Sprintf("decode response: %v", err)}
	}
	if len(apiResp.Choices) == 0 {
		c.usage.recordError()
		return nil, &Error{Provider: c.name, Kind: types.ErrKindTransient, Msg: "empty choices in response"}
	}

	tokens := apiResp.Usage.PromptTokens + apiResp.Usage.CompletionTokens
	if tokens == 0 {
		tokens = types.EstimateTokens(req.User) + types.EstimateTokens(apiResp.Choices[0].Message.Content)
	}
	cost := estimateCost(c.name, tokens)
	c.usage.recordSuccess(tokens, cost)

	return &Response{
		Summary:   strings.TrimSpace(apiResp.Choices[0].Message.Content),
		TokensIn:  apiResp.Usage.PromptTokens,
		TokensOut: apiResp.Usage.CompletionTokens,
		Cost:      cost,
		Model:     c.spec.Model,
	}, nil
}

// transportError normalizes a client-side failure. A tripped per-call
// deadline is a Timeout; a cancelled parent context is Cancelled.
func (c *chatClient) transportError(parent, call context.Context, err error) error {
	switch {
	case parent.Err() == context.Canceled:
		return &Error{Provider: c.name, Kind: types.ErrKindCancelled, Msg: err.Error()}
	case call.Err() != nil:
		return &Error{Provider: c.name, Kind: types.ErrKindTimeout, Msg: err.Error()}
	default:
		return &Error{Provider: c.name, Kind: Classify(err), Msg: err.Error()}
	}
}
