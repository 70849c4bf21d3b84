package deepgram

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-voice/core/texttospeech"
)

const endMark = "utterance-end"

type utterance struct {
	ws   *websocket.Conn
	wsMu sync.Mutex

	sink    AudioSink
	options texttospeech.SpeakOptions

	started   atomic.Bool
	cancelled atomic.Bool
	closed    atomic.Bool
	// finishOnce guards the terminal callback, either end or error.
	finishOnce sync.Once
}

func newUtterance(ws *websocket.Conn, sink AudioSink, options texttospeech.SpeakOptions) *utterance {
	return &utterance{ws: ws, sink: sink, options: options}
}

type websocketMessage struct {
	Type string `json:"type"`
}

type speakMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

var (
	flushMsg = websocketMessage{Type: "Flush"}
	clearMsg = websocketMessage{Type: "Clear"}
	closeMsg = websocketMessage{Type: "Close"}
)

// speak sends the whole text followed by a flush. The end of the utterance is
// the point where the sink plays past the audio received before "Flushed".
func (u *utterance) speak(text string) error {
	for _, chunk := range splitText(text, maxSpeakChars) {
		if err := u.sendWebsocketMessage(speakMessage{Type: "Speak", Text: chunk}); err != nil {
			return fmt.Errorf("failed to send text: %w", err)
		}
	}
	if err := u.sendWebsocketMessage(flushMsg); err != nil {
		return fmt.Errorf("failed to flush text: %w", err)
	}
	return nil
}

func (u *utterance) processIncomingMessages() {
	for {
		msgType, msg, err := u.ws.ReadMessage()
		if err != nil {
			if !u.closed.Load() && !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				u.fail(fmt.Errorf("failed to read deepgram speech: %w", err))
			}
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			if len(msg) == 0 || u.cancelled.Load() {
				continue
			}
			if u.started.CompareAndSwap(false, true) {
				u.options.StartCallback()
			}
			if err := u.sink.SendAudio(msg); err != nil {
				u.fail(fmt.Errorf("failed to play speech: %w", err))
				return
			}

		case websocket.TextMessage:
			var parsedMsg websocketMessage
			if err := json.Unmarshal(msg, &parsedMsg); err != nil {
				logger.Warn("failed to unmarshal deepgram message", "error", err)
				continue
			}

			switch parsedMsg.Type {
			case "Flushed":
				u.close()
				if err := u.sink.Mark(endMark, func(string) { u.end() }); err != nil {
					u.fail(fmt.Errorf("failed to mark end of speech: %w", err))
				}
				return
			case "Warning", "Error":
				logger.Warn("deepgram speak message", "message", string(msg))
			}
		}
	}
}

func (u *utterance) end() {
	if u.cancelled.Load() {
		return
	}
	u.finishOnce.Do(func() {
		if u.started.CompareAndSwap(false, true) {
			u.options.StartCallback()
		}
		u.options.EndCallback()
	})
}

func (u *utterance) fail(err error) {
	u.close()
	if u.cancelled.Load() {
		return
	}
	u.finishOnce.Do(func() { u.options.ErrorCallback(err) })
}

// Cancel drops queued audio and closes the socket. The mark callback that the
// cleared sink fires is ignored.
func (u *utterance) Cancel() {
	if !u.cancelled.CompareAndSwap(false, true) {
		return
	}
	if !u.closed.Load() {
		if err := u.sendWebsocketMessage(clearMsg); err != nil {
			logger.Debug("failed to clear deepgram speech", "error", err)
		}
	}
	u.close()
	u.sink.ClearBuffer()
}

func (u *utterance) close() {
	if !u.closed.CompareAndSwap(false, true) {
		return
	}
	u.wsMu.Lock()
	defer u.wsMu.Unlock()
	if err := u.ws.WriteJSON(closeMsg); err != nil {
		logger.Debug("failed to send deepgram close message", "error", err)
	}
	u.ws.Close()
}

func (u *utterance) sendWebsocketMessage(msg any) error {
	u.wsMu.Lock()
	defer u.wsMu.Unlock()
	if u.closed.Load() {
		return fmt.Errorf("websocket connection closed")
	}
	if err := u.ws.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to write to websocket: %w", err)
	}
	return nil
}
