package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/koscakluka/ema-voice/core/llms"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	url = "https://api.openai.com/v1/responses"

	DefaultModel = "gpt-4.1-mini"
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

// WithURL overrides the Responses API endpoint.
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
		apiKey:     apiKey,
		model:      DefaultModel,
		url:        url,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
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

func (c *Client) newRequest(ctx context.Context, prompt string, stream bool) (*http.Request, error) {
	reqBody := requestBody{
		Model:  c.model,
		Input:  toOpenAIMessages(c.instructions, prompt),
		Stream: stream,
	}

	requestBodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("error marshalling JSON: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewBuffer(requestBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("error creating HTTP request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	return req, nil
}

func (c *Client) Generate(ctx context.Context, prompt string) (text string, err error) {
	ctx, span := tracer.Start(ctx, "generate")
	defer span.End()
	span.SetAttributes(attribute.String("openai.model", c.model))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	req, err := c.newRequest(ctx, prompt, false)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", statusError(resp)
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response body: %w", err)
	}

	return parseResponseText(bodyBytes)
}

func parseResponseText(bodyBytes []byte) (string, error) {
	var responseBody generalResponseBody
	if err := json.Unmarshal(bodyBytes, &responseBody); err != nil {
		return "", fmt.Errorf("error unmarshalling response body: %w", err)
	}

	text := strings.Builder{}
	for _, output := range responseBody.Output {
		var outputType generalResponseBodyOutputType
		if err := json.Unmarshal(output, &outputType); err != nil {
			return "", fmt.Errorf("error unmarshalling output type: %w", err)
		}

		switch outputType.Type {
		case generalResponseBodyOutputTypeMessage:
			var outputMessage generalResponseBodyOutputMessage
			if err := json.Unmarshal(output, &outputMessage); err != nil {
				return "", fmt.Errorf("error unmarshalling output message: %w", err)
			}
			for _, content := range outputMessage.Content {
				var contentType generalResponseBodyOutputMessageType
				if err := json.Unmarshal(content, &contentType); err != nil {
					return "", fmt.Errorf("error unmarshalling output message content: %w", err)
				}
				switch contentType.Type {
				case "output_text":
					var outputText generalResponseBodyOutputMessageContentOutputText
					if err := json.Unmarshal(content, &outputText); err != nil {
						return "", fmt.Errorf("error unmarshalling output message content output text: %w", err)
					}
					text.WriteString(outputText.Text)
				case "refusal":
					var outputRefusal generalResponseBodyOutputMessageContentRefusal
					if err := json.Unmarshal(content, &outputRefusal); err != nil {
						return "", fmt.Errorf("error unmarshalling output message content refusal: %w", err)
					}
					text.WriteString(outputRefusal.Refusal)
				}
			}

		case generalResponseBodyOutputTypeReasoning:
			// Reasoning items are not spoken.
		}
	}

	return text.String(), nil
}
