// Package events defines the typed event contract of the turn orchestrator.
//
// Every input reaches the orchestrator as one of these events and is handled
// by a single dispatch function. Event kinds are grouped by namespace:
//
//   - capture.*
//   - user_input.*
//   - delivery.*
//   - playback.*
//   - session.*
//   - turn_state.*
//
// Turn and utterance sequence numbers tie asynchronous results to the request
// that produced them. Results carrying a stale number are ignored.
//
// capture events
//
//   - CaptureRequested (capture.requested): the user asked to start talking.
//   - CaptureStopRequested (capture.stop_requested): the user asked to stop.
//   - CapturePartial (capture.partial): interim and finalized recognition text.
//   - CaptureFailed (capture.failed): the recognizer reported an error. At most
//     one is delivered and always before CaptureEnded.
//   - CaptureEnded (capture.ended): the recognizer finished the attempt.
//
// user_input events
//
//   - UserTextSubmitted (user_input.text_submitted): typed message.
//
// delivery events
//
//   - DeliveryReceived (delivery.received): one inference notification, either
//     a partial chunk or the final text.
//   - InferenceFailed (delivery.failed): the submission failed, nothing else
//     follows for that turn.
//
// playback events
//
//   - PlaybackCancelRequested (playback.cancel_requested): stop speaking now.
//   - PlaybackStarted (playback.started): the utterance became audible.
//   - PlaybackEnded (playback.ended): the utterance finished or was cancelled.
//   - PlaybackFailed (playback.failed): the utterance could not be spoken.
//
// session events
//
//   - GreetingDue (session.greeting_due): the greeting delay elapsed.
//
// turn_state events are emitted by the orchestrator for observers:
//
//   - TurnStateChanged (turn_state.changed)
//   - TurnRejected (turn_state.rejected)
package events
