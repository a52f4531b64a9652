// Package vision asks a multimodal chat model to describe screenshots and
// locate their interactive elements.
package vision

import (
	"context"
	"net/http"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

var (
	// ErrInvalidKey means the provider rejected the API key.
	ErrInvalidKey = errors.New("vision provider rejected the API key")
	// ErrRateLimited means the provider throttled the request.
	ErrRateLimited = errors.New("vision provider rate limit exceeded")
	// ErrUnavailable means the provider failed on its side.
	ErrUnavailable = errors.New("vision provider unavailable")
	// ErrEmptyResponse means the model returned no content.
	ErrEmptyResponse = errors.New("vision provider returned no content")
	// ErrUnparsable means the detection output was not a JSON array.
	ErrUnparsable = errors.New("failed to parse vision response")
)

const (
	analyzeMaxTokens   = 300
	analyzeTemperature = 0.7
	detectMaxTokens    = 2000
	detectTemperature  = 0.3
)

// Usage is the token accounting of one call.
type Usage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
}

// Detection is the filtered result of an element detection call.
type Detection struct {
	Elements []Element `json:"elements"`
	RawCount int       `json:"raw_count"`
	Usage    Usage     `json:"usage"`
}

// Observer receives call outcomes, for metrics.
type Observer interface {
	ObserveVisionCall(operation, outcome string)
}

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	api      openai.Client
	model    string
	observer Observer
}

// Option customises a Client.
type Option func(*clientOptions)

type clientOptions struct {
	baseURL    string
	httpClient *http.Client
	observer   Observer
}

func WithBaseURL(u string) Option {
	return func(o *clientOptions) { o.baseURL = u }
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = c }
}

func WithObserver(obs Observer) Option {
	return func(o *clientOptions) { o.observer = obs }
}

// NewClient builds a client. Requests are not retried.
func NewClient(apiKey, model string, opts ...Option) *Client {
	var co clientOptions
	for _, opt := range opts {
		opt(&co)
	}
	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if co.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(co.baseURL))
	}
	if co.httpClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(co.httpClient))
	}
	return &Client{
		api:      openai.NewClient(reqOpts...),
		model:    model,
		observer: co.observer,
	}
}

// Analyze generates a title and description for the screenshot at imageURL.
func (c *Client) Analyze(ctx context.Context, imageURL string, siblings []ContextScreen) (*Analysis, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(analyzeSystem(siblings)),
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(analyzeUserPrompt),
				imagePart(imageURL),
			}),
		},
		MaxTokens:   openai.Int(analyzeMaxTokens),
		Temperature: openai.Float(analyzeTemperature),
	}

	content, _, err := c.complete(ctx, "analyze", params)
	if err != nil {
		return nil, err
	}
	analysis, ok := parseAnalysis(content)
	if !ok {
		log.Warn().Str("content", content).Msg("unparsable screen analysis, using fallback")
	}
	return &analysis, nil
}

// DetectElements locates clickable elements in the screenshot at imageURL.
func (c *Client) DetectElements(ctx context.Context, imageURL string) (*Detection, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(detectPrompt),
				imagePart(imageURL),
			}),
		},
		MaxTokens:   openai.Int(detectMaxTokens),
		Temperature: openai.Float(detectTemperature),
	}

	content, usage, err := c.complete(ctx, "detect", params)
	if err != nil {
		return nil, err
	}
	elements, rawCount, err := parseElements(content)
	if err != nil {
		log.Warn().Err(err).Str("content", content).Msg("unparsable element detection")
		return nil, errors.Wrap(ErrUnparsable, err.Error())
	}
	return &Detection{Elements: elements, RawCount: rawCount, Usage: usage}, nil
}

func (c *Client) complete(ctx context.Context, operation string, params openai.ChatCompletionNewParams) (string, Usage, error) {
	resp, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		mapped := mapError(err)
		c.observe(operation, outcomeOf(mapped))
		return "", Usage{}, mapped
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		c.observe(operation, "empty")
		return "", Usage{}, ErrEmptyResponse
	}
	c.observe(operation, "ok")
	usage := Usage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	return resp.Choices[0].Message.Content, usage, nil
}

func (c *Client) observe(operation, outcome string) {
	if c.observer != nil {
		c.observer.ObserveVisionCall(operation, outcome)
	}
}

func imagePart(url string) openai.ChatCompletionContentPartUnionParam {
	return openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
		URL:    url,
		Detail: "high",
	})
}

// mapError converts provider status codes into the package sentinels.
func mapError(err error) error {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	switch {
	case apiErr.StatusCode == http.StatusUnauthorized:
		return errors.Wrap(ErrInvalidKey, err.Error())
	case apiErr.StatusCode == http.StatusTooManyRequests:
		return errors.Wrap(ErrRateLimited, err.Error())
	case apiErr.StatusCode >= 500:
		return errors.Wrap(ErrUnavailable, err.Error())
	}
	return err
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, ErrInvalidKey):
		return "invalid_key"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	}
	return "error"
}
