package tui

import (
	"context"
	"errors"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/koscakluka/ema-voice/core/store"
)

// Run shows the UI until the user quits or ctx is done.
func Run(ctx context.Context, controller Controller, s *store.Store, opts ...Option) error {
	program := tea.NewProgram(New(ctx, controller, s, opts...),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	stop := forwardState(s, program.Send)
	defer stop()

	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

// forwardState sends store changes to the program without blocking the
// store. Changes arriving faster than they are sent collapse into the latest
// state.
func forwardState(s *store.Store, send func(tea.Msg)) (stop func()) {
	var (
		latest  store.State
		pending bool
		mu      sync.Mutex
	)
	wake := make(chan struct{}, 1)
	done := make(chan struct{})
	finished := make(chan struct{})

	unsubscribe := s.Subscribe(func(state store.State) {
		mu.Lock()
		latest, pending = state, true
		mu.Unlock()
		select {
		case wake <- struct{}{}:
		default:
		}
	})

	go func() {
		defer close(finished)
		for {
			select {
			case <-done:
				return
			case <-wake:
			}
			mu.Lock()
			state, ok := latest, pending
			pending = false
			mu.Unlock()
			if ok {
				send(stateMsg(state))
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			unsubscribe()
			close(done)
			<-finished
		})
	}
}
