// Package gemini implements the inference backend on top of the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"

	"github.com/koscakluka/ema-voice/core/llms"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/genai"
)

const DefaultModel = "gemini-flash-latest"

type Client struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig

	httpClient *http.Client
	baseURL    string
}

type ClientOption func(*Client)

func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithSystemInstruction sets instructions sent along with every prompt.
func WithSystemInstruction(instruction string) ClientOption {
	return func(c *Client) {
		if instruction == "" {
			return
		}
		if c.config == nil {
			c.config = &genai.GenerateContentConfig{}
		}
		c.config.SystemInstruction = genai.NewContentFromText(instruction, genai.RoleUser)
	}
}

func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = client }
}

// WithBaseURL points the client at a different endpoint, such as a proxy.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) { c.baseURL = baseURL }
}

func NewClient(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	c := &Client{
		model:      DefaultModel,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
	for _, opt := range opts {
		opt(c)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.httpClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: c.baseURL,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	c.client = client

	return c, nil
}

// Factory builds a fresh client for every connection.
func Factory(opts ...ClientOption) llms.GeneratorFactory {
	return func(ctx context.Context, apiKey string) (llms.Generator, error) {
		return NewClient(ctx, apiKey, opts...)
	}
}

func (c *Client) Model() string { return c.model }

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, span := tracer.Start(ctx, "generate")
	defer span.End()
	span.SetAttributes(attribute.String("gemini.model", c.model))

	response, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), c.config)
	if err != nil {
		span.RecordError(fmt.Errorf("gemini generate content: %w", err))
		span.SetStatus(codes.Error, err.Error())
		return "", apiMessage(err)
	}

	text := response.Text()
	span.SetAttributes(attribute.Int("gemini.response_length", len(text)))
	return text, nil
}

func (c *Client) GenerateStream(ctx context.Context, prompt string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		ctx, span := tracer.Start(ctx, "generate stream")
		defer span.End()
		span.SetAttributes(attribute.String("gemini.model", c.model))

		chunks := 0
		for response, err := range c.client.Models.GenerateContentStream(ctx, c.model, genai.Text(prompt), c.config) {
			if err != nil {
				span.RecordError(fmt.Errorf("gemini stream content: %w", err))
				span.SetStatus(codes.Error, err.Error())
				yield("", apiMessage(err))
				return
			}

			chunks++
			if !yield(response.Text(), nil) {
				return
			}
		}
		span.SetAttributes(attribute.Int("gemini.chunks", chunks))
	}
}

// apiError reads as the message the API returned, without the status
// preamble of [genai.APIError].
type apiError struct {
	message string
	err     error
}

func (e *apiError) Error() string { return e.message }
func (e *apiError) Unwrap() error { return e.err }

func apiMessage(err error) error {
	var value genai.APIError
	if errors.As(err, &value) && value.Message != "" {
		return &apiError{message: value.Message, err: err}
	}
	var pointer *genai.APIError
	if errors.As(err, &pointer) && pointer != nil && pointer.Message != "" {
		return &apiError{message: pointer.Message, err: err}
	}
	return err
}
