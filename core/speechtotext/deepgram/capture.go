package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-voice/core/failures"
	"github.com/koscakluka/ema-voice/core/speechtotext"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var errAlreadyStarted = errors.New("capture already started")

type capture struct {
	client   *TranscriptionClient
	options  speechtotext.CaptureOptions
	encoding listenEncoding

	conn   *websocket.Conn
	connMu sync.Mutex

	span trace.Span

	started  atomic.Bool
	closing  atomic.Bool
	aborted  atomic.Bool
	endOnce  sync.Once
	stopOnce sync.Once
	done     chan struct{}

	// callbackMu orders result callbacks before the end callback.
	callbackMu sync.Mutex
	finished   bool
}

func (c *capture) Begin(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return errAlreadyStarted
	}

	ctx, c.span = tracer.Start(ctx, "capture speech", trace.WithAttributes(
		attribute.String("capture.language", c.options.Language),
		attribute.Int("capture.sample_rate", c.encoding.sampleRate),
	))

	conn, err := c.connect(ctx)
	if err != nil {
		c.span.RecordError(err)
		c.span.SetStatus(codes.Error, err.Error())
		c.span.End()
		return err
	}
	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()

	go c.readMessages(conn)

	if c.client.source != nil {
		if err := c.client.source.StartCapture(ctx, c.sendAudio); err != nil {
			c.Abort()
			return fmt.Errorf("failed to start audio capture: %w", err)
		}
	}

	return nil
}

func (c *capture) connect(ctx context.Context) (*websocket.Conn, error) {
	if c.client.apiKey == "" {
		return nil, failures.Configuration("Deepgram API key not found. Please set it in your environment or .env file.")
	}

	listenURL, err := url.Parse(c.client.url)
	if err != nil {
		return nil, fmt.Errorf("invalid listen url: %w", err)
	}
	queryParams := listenURL.Query()
	c.encoding.apply(queryParams)
	queryParams.Set("model", c.client.model)
	queryParams.Set("language", c.options.Language)
	queryParams.Set("smart_format", "true")
	queryParams.Set("interim_results", "true")
	queryParams.Set("endpointing", "300")
	listenURL.RawQuery = queryParams.Encode()

	conn, _, err := c.client.dialer.DialContext(ctx, listenURL.String(),
		http.Header{"Authorization": {"Token " + c.client.apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}
	return conn, nil
}

func (c *capture) sendAudio(audio []byte) {
	if c.closing.Load() {
		return
	}

	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.conn == nil {
		return
	}
	if err := c.conn.WriteMessage(websocket.BinaryMessage, audio); err != nil {
		logger.Debug("failed to write audio to deepgram", "error", err)
	}
}

// End stops the microphone and asks Deepgram to flush. The end callback
// follows when the socket closes or the grace period runs out.
func (c *capture) End() error {
	if !c.started.Load() || !c.closing.CompareAndSwap(false, true) {
		return nil
	}
	c.stopSource()

	c.connMu.Lock()
	if c.conn == nil {
		c.connMu.Unlock()
		return nil
	}
	err := c.conn.WriteJSON(struct {
		Type string `json:"type"`
	}{Type: string(api.TypeCloseStreamResponse)})
	c.connMu.Unlock()

	go func() {
		timer := time.NewTimer(c.client.endGrace)
		defer timer.Stop()
		select {
		case <-timer.C:
			c.finish(nil)
		case <-c.done:
		}
	}()

	if err != nil {
		return fmt.Errorf("failed to close deepgram stream: %w", err)
	}
	return nil
}

func (c *capture) Abort() {
	if !c.started.Load() {
		return
	}
	c.aborted.Store(true)
	c.closing.Store(true)
	c.finish(nil)
}

func (c *capture) stopSource() {
	c.stopOnce.Do(func() {
		if c.client.source == nil {
			return
		}
		if err := c.client.source.StopCapture(); err != nil {
			logger.Warn("failed to stop audio capture", "error", err)
		}
	})
}

// finish tears the capture down once. A non-nil err is reported before the
// end callback.
func (c *capture) finish(err error) {
	c.endOnce.Do(func() {
		c.closing.Store(true)
		c.stopSource()

		c.connMu.Lock()
		if c.conn != nil {
			c.conn.Close()
		}
		c.connMu.Unlock()
		close(c.done)

		if err != nil {
			c.span.RecordError(err)
			c.span.SetStatus(codes.Error, err.Error())
		}
		c.span.End()

		c.callbackMu.Lock()
		defer c.callbackMu.Unlock()
		c.finished = true
		if c.aborted.Load() {
			return
		}
		if err != nil {
			c.options.ErrorCallback(failures.Capture(speechtotext.MessageRecognitionFailed, err))
		}
		c.options.EndCallback()
	})
}

func (c *capture) readMessages(conn *websocket.Conn) {
	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if c.closing.Load() || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				c.finish(nil)
			} else {
				c.finish(fmt.Errorf("failed to read deepgram message: %w", err))
			}
			return
		}
		if msgType == websocket.TextMessage {
			c.processMessage(msg)
		}
	}
}

func (c *capture) processMessage(msg []byte) {
	if c.aborted.Load() {
		return
	}

	var parsedMsg struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(msg, &parsedMsg); err != nil {
		logger.Warn("failed to unmarshal deepgram message", "error", err)
		return
	}

	if api.TypeResponse(parsedMsg.Type) != api.TypeMessageResponse {
		return
	}

	var msgResp api.MessageResponse
	if err := json.Unmarshal(msg, &msgResp); err != nil {
		logger.Warn("failed to unmarshal deepgram results", "error", err)
		return
	}
	if len(msgResp.Channel.Alternatives) == 0 {
		return
	}

	transcript := strings.TrimSpace(msgResp.Channel.Alternatives[0].Transcript)
	if transcript == "" {
		return
	}

	c.callbackMu.Lock()
	defer c.callbackMu.Unlock()
	if c.finished {
		return
	}
	if msgResp.IsFinal {
		c.span.AddEvent("final transcript")
		c.options.PartialCallback(speechtotext.Partial{FinalText: transcript})
	} else {
		c.options.PartialCallback(speechtotext.Partial{InterimText: transcript})
	}
}
