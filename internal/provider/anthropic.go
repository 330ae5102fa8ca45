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

const (
	anthropicBaseURL = "https://api.anthropic.com/v1"
	anthropicVersion = "2023-06-01"

	EnvAnthropicAPIKey = "ANTHROPIC_API_KEY"
)

// anthropicClient speaks the Anthropic messages API, which differs from the
// chat completions format in auth headers, body shape, and usage fields.
type anthropicClient struct {
	baseURL    string
	apiKey     string
	spec       types.ProviderSpec
	httpClient *http.Client
	usage      usage
}

// NewAnthropic creates an adapter for the Anthropic messages API.
func NewAnthropic(spec types.ProviderSpec, apiKey string) Provider {
	return &anthropicClient{
		baseURL:    baseURLOr(spec, anthropicBaseURL),
		apiKey:     apiKey,
		spec:       spec,
		httpClient: &http.Client{},
	}
}

func (c *anthropicClient) Name() string  { return "anthropic" }
func (c *anthropicClient) Model() string { return c.spec.Model }

func (c *anthropicClient) Usage() UsageSnapshot { return c.usage.snapshot() }

func (c *anthropicClient) Summarize(ctx context.Context, req Request) (*Response, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.spec.Timeout)
	defer cancel()

	body, err := json.Marshal(map[string]any{
		"model":       c.spec.Model,
		"max_tokens":  c.spec.MaxTokens,
		"temperature": c.spec.Temperature,
		"system":      req.System,
		"messages": []map[string]string{
			{"role": "user", "content": req.User},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost,
		c.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.usage.recordError()
		switch {
		case ctx.Err() == context.Canceled:
			return nil, &Error{Provider: "anthropic", Kind: types.ErrKindCancelled, Msg: err.Error()}
		case callCtx.Err() != nil:
			return nil, &Error{Provider: "anthropic", Kind: types.ErrKindTimeout, Msg: err.Error()}
		default:
			return nil, &Error{Provider: "anthropic", Kind: Classify(err), Msg: err.Error()}
		}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.usage.recordError()
		return nil, &Error{
			Provider: "anthropic",
			Kind:     classifyStatus(resp.StatusCode, string(raw)),
			Status:   resp.StatusCode,
			Msg:      strings.TrimSpace(string(raw)),
		}
	}

	var apiResp struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
		Usage struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"usage"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		c.usage.recordError()
		return nil, &Error{Provider: "anthropic", Kind: types.ErrKindTransient, Msg: fmt.Sprintf("decode response: %v", err)}
	}
	if len(apiResp.Content) == 0 {
		c.usage.recordError()
		return nil, &Error{Provider: "anthropic", Kind: types.ErrKindTransient, Msg: "empty content in response"}
	}

	tokens := apiResp.Usage.InputTokens + apiResp.Usage.OutputTokens
	if tokens == 0 {
		tokens = types.EstimateTokens(req.User) + types.EstimateTokens(apiResp.Content[0].Text)
	}
	cost := estimateCost("anthropic", tokens)
	c.usage.recordSuccess(tokens, cost)

	return &Response{
		Summary:   strings.TrimSpace(apiResp.Content[0].Text),
		TokensIn:  apiResp.Usage.InputTokens,
		TokensOut: apiResp.Usage.OutputTokens,
		Cost:      cost,
		Model:     c.spec.Model,
	}, nil
}
