package orchestration

import (
	"time"

	"github.com/koscakluka/ema-voice/core/audio"
	"github.com/koscakluka/ema-voice/core/events"
	"github.com/koscakluka/ema-voice/core/speechtotext"
)

type OrchestratorOption func(*Orchestrator)

// WithRecognizer sets the speech recognizer used for capture. Without one
// every capture fails as unsupported.
func WithRecognizer(recognizer speechtotext.Recognizer) OrchestratorOption {
	return func(o *Orchestrator) { o.effects.recognizer = recognizer }
}

func WithInference(inference InferenceGateway) OrchestratorOption {
	return func(o *Orchestrator) {
		o.inference = inference
		o.effects.inference = inference
	}
}

func WithPlayback(playback PlaybackGateway) OrchestratorOption {
	return func(o *Orchestrator) { o.effects.playback = playback }
}

// WithPermissionGateway enables the microphone probe made after connecting.
func WithPermissionGateway(gateway audio.PermissionGateway) OrchestratorOption {
	return func(o *Orchestrator) { o.permissions = gateway }
}

// WithCredential sets the API key handed to the inference gateway on connect.
func WithCredential(credential string) OrchestratorOption {
	return func(o *Orchestrator) { o.credential = credential }
}

func WithGreetingPolicy(policy GreetingPolicy) OrchestratorOption {
	return func(o *Orchestrator) { o.greetingPolicy = policy }
}

func WithGreetingDelay(delay time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		if delay >= 0 {
			o.greetingDelay = delay
		}
	}
}

// WithEventHandler registers an observer for turn state events. It is called
// from the event loop and must not block.
func WithEventHandler(handler func(events.Event)) OrchestratorOption {
	return func(o *Orchestrator) {
		if handler != nil {
			o.eventHandler = handler
		}
	}
}

// WithShutdown registers a function run by Close after the session is torn
// down, such as closing an audio device.
func WithShutdown(shutdown func() error) OrchestratorOption {
	return func(o *Orchestrator) {
		if shutdown != nil {
			o.shutdown = append(o.shutdown, shutdown)
		}
	}
}
