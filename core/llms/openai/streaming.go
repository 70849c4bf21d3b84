package openai

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	eventPrefix = "event:"
	chunkPrefix = "data:"
)

func (c *Client) GenerateStream(ctx context.Context, prompt string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		ctx, span := tracer.Start(ctx, "generate stream")
		defer span.End()
		span.SetAttributes(attribute.String("openai.model", c.model))

		fail := func(err error) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			yield("", err)
		}

		req, err := c.newRequest(ctx, prompt, true)
		if err != nil {
			fail(err)
			return
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			fail(fmt.Errorf("error sending request: %w", err))
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			fail(statusError(resp))
			return
		}

		lapTime := time.Now()
		scanner := bufio.NewScanner(resp.Body)
		var event streamingEventType
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			switch {
			case line == "":
				continue
			case strings.HasPrefix(line, eventPrefix):
				event = streamingEventType(strings.TrimSpace(strings.TrimPrefix(line, eventPrefix)))
				continue
			case !strings.HasPrefix(line, chunkPrefix):
				continue
			}
			chunk := strings.TrimSpace(strings.TrimPrefix(line, chunkPrefix))

			switch event {
			case streamingEventResponseCreated, streamingEventResponseQueued:
				lapTime = time.Now()

			case streamingEventResponseOutputItemAdded:
				span.SetAttributes(attribute.Float64("openai.time_to_output", time.Since(lapTime).Seconds()))

			case streamingEventResponseOutputTextDelta:
				var responseBody streamingBodyResponseTextDelta
				if err := json.Unmarshal([]byte(chunk), &responseBody); err != nil {
					fail(fmt.Errorf("error unmarshalling JSON: %w", err))
					return
				}
				if !yield(responseBody.Delta, nil) {
					return
				}

			case streamingEventResponseFailed, streamingEventError:
				var responseBody streamingBodyError
				if err := json.Unmarshal([]byte(chunk), &responseBody); err != nil {
					fail(fmt.Errorf("error unmarshalling JSON: %w", err))
					return
				}
				fail(fmt.Errorf("response failed: %s", responseBody.message()))
				return

			case streamingEventResponseCompleted:
				span.SetAttributes(attribute.Float64("openai.completion_time", time.Since(lapTime).Seconds()))
				return
			}
		}

		if err := scanner.Err(); err != nil {
			fail(fmt.Errorf("error reading streamed response: %w", err))
		}
	}
}

type streamingEventType string

const (
	streamingEventResponseOutputTextDelta streamingEventType = "response.output_text.delta"
	streamingEventResponseOutputItemAdded streamingEventType = "response.output_item.added"
	streamingEventResponseCreated         streamingEventType = "response.created"
	streamingEventResponseQueued          streamingEventType = "response.queued"
	streamingEventResponseCompleted       streamingEventType = "response.completed"
	streamingEventResponseFailed          streamingEventType = "response.failed"
	streamingEventError                   streamingEventType = "error"
)

type streamingBodyResponseTextDelta struct {
	Delta string `json:"delta"`
}

// streamingBodyError covers both the top level error event and a failed
// response.
type streamingBodyError struct {
	Message  string `json:"message"`
	Response struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	} `json:"response"`
}

func (b streamingBodyError) message() string {
	if b.Response.Error != nil && b.Response.Error.Message != "" {
		return b.Response.Error.Message
	}
	if b.Message != "" {
		return b.Message
	}
	return "unknown error"
}
