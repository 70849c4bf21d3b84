package orchestration

import (
	"time"

	"github.com/koscakluka/ema-voice/core/events"
	"github.com/koscakluka/ema-voice/core/store"
)

type GreetingPolicy string

const (
	GreetingOff GreetingPolicy = "off"
	// GreetingEverySession greets whenever a session starts with an empty
	// transcript.
	GreetingEverySession GreetingPolicy = "every_session"
	// GreetingFirstSessionOnly greets once per user, remembered through the
	// greeted preference.
	GreetingFirstSessionOnly GreetingPolicy = "first_session_only"
)

func (p GreetingPolicy) IsValid() bool {
	switch p {
	case GreetingOff, GreetingEverySession, GreetingFirstSessionOnly:
		return true
	}
	return false
}

const (
	GreetingText         = "Hello! How can I assist you today?"
	DefaultGreetingDelay = time.Second
)

// TimeOfDayGreeting returns the salutation shown above the transcript.
func TimeOfDayGreeting(now time.Time) string {
	switch hour := now.Hour(); {
	case hour < 12:
		return "Good Morning"
	case hour < 18:
		return "Good Afternoon"
	default:
		return "Good Evening"
	}
}

func (o *Orchestrator) shouldGreet(state store.State) bool {
	switch o.greetingPolicy {
	case GreetingOff:
		return false
	case GreetingFirstSessionOnly:
		if state.UI.Greeted {
			return false
		}
	}
	return state.UI.OnboardingComplete &&
		state.UI.Connection == store.ConnectionConnected &&
		len(state.Chat.Messages) == 0
}

// maybeGreet schedules the greeting when the session qualifies for one. The
// conditions are checked again when the greeting is due.
func (o *Orchestrator) maybeGreet() {
	if !o.shouldGreet(o.store.Snapshot()) {
		return
	}

	o.greetingMu.Lock()
	defer o.greetingMu.Unlock()
	if o.greetingTimer != nil || o.loop.isClosed() {
		return
	}
	o.greetingTimer = time.AfterFunc(o.greetingDelay, func() {
		o.greetingMu.Lock()
		o.greetingTimer = nil
		o.greetingMu.Unlock()

		if o.shouldGreet(o.store.Snapshot()) {
			o.loop.enqueue(events.NewGreetingDue(GreetingText))
		}
	})
}

func (o *Orchestrator) stopGreeting() {
	o.greetingMu.Lock()
	defer o.greetingMu.Unlock()
	if o.greetingTimer != nil {
		o.greetingTimer.Stop()
		o.greetingTimer = nil
	}
}

func (o *Orchestrator) markGreeted() {
	if o.greetingPolicy != GreetingFirstSessionOnly {
		return
	}
	if err := o.store.SetGreeted(true); err != nil {
		logger.Warn("failed to remember greeting", "error", err)
	}
}
