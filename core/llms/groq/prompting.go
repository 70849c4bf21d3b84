package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/koscakluka/ema-voice/core/llms"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	url = "https://api.groq.com/openai/v1/chat/completions"

	DefaultModel = "llama-3.3-70b-versatile"
)

type Client struct {
	apiKey       string
	model        string
	instructions string
	url          string
	httpClient   *http.Client
}

type ClientOption func(*Client)

func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

func WithInstructions(instructions string) ClientOption {
	return func(c *Client) { c.instructions = instructions }
}

func WithURL(endpoint string) ClientOption {
	return func(c *Client) {
		if endpoint != "" {
			c.url = endpoint
		}
	}
}

func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		apiKey: apiKey,
		model:  DefaultModel,
		url:    url,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(operationName string, request *http.Request) string {
				return operationName + " " + request.URL.Path
			}),
		)},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func Factory(opts ...ClientOption) llms.GeneratorFactory {
	return func(_ context.Context, apiKey string) (llms.Generator, error) {
		return NewClient(apiKey, opts...), nil
	}
}

func (c *Client) do(ctx context.Context, span trace.Span, prompt string, stream bool) (*http.Response, error) {
	requestBodyBytes, err := json.Marshal(requestBody{
		Model:    c.model,
		Messages: toMessages(c.instructions, prompt),
		Stream:   stream,
	})
	if err != nil {
		return nil, fmt.Errorf("error marshalling JSON: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewBuffer(requestBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("error creating HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	span.SetAttributes(attribute.String("request.model", c.model))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %w", err)
	}

	span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		span.SetAttributes(attribute.String("response.error", string(errorBody)))

		var parsed errorResponseBody
		if json.Unmarshal(errorBody, &parsed) == nil && parsed.Error.Message != "" {
			return nil, fmt.Errorf("non-OK HTTP status: %s: %s", resp.Status, parsed.Error.Message)
		}
		return nil, fmt.Errorf("non-OK HTTP status: %s", resp.Status)
	}

	return resp, nil
}

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, span := tracer.Start(ctx, "prompt llm")
	defer span.End()

	resp, err := c.do(ctx, span, prompt, false)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	defer resp.Body.Close()

	var body responseBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		err = fmt.Errorf("error unmarshalling response body: %w", err)
		span.RecordError(err)
		return "", err
	}
	recordUsage(span, body.Usage)

	if len(body.Choices) == 0 {
		return "", nil
	}
	return body.Choices[0].Message.Content, nil
}

func recordUsage(span trace.Span, usage *usage) {
	if usage == nil {
		return
	}
	span.SetAttributes(
		attribute.Int("usage.prompt", usage.PromptTokens),
		attribute.Int("usage.completion", usage.CompletionTokens),
		attribute.Int("usage.total", usage.TotalTokens),
		attribute.Float64("usage.queue_time", usage.QueueTime),
		attribute.Float64("usage.prompt_time", usage.PromptTime),
		attribute.Float64("usage.completion_time", usage.CompletionTime),
		attribute.Float64("usage.total_time", usage.TotalTime),
	)
}
