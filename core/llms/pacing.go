package llms

import (
	"context"
	"strings"
	"time"
)

// DefaultWordInterval is the pause after each delivered word.
const DefaultWordInterval = 30 * time.Millisecond

// Pacer turns a complete response into partial deliveries. It must deliver in
// order and stop early when ctx is done. The final delivery is not its
// concern.
type Pacer interface {
	Pace(ctx context.Context, response string, deliver func(Delivery)) error
}

// WordPacer delivers one word at a time with Interval between deliveries.
type WordPacer struct {
	Interval time.Duration
}

func NewWordPacer() WordPacer {
	return WordPacer{Interval: DefaultWordInterval}
}

func (p WordPacer) Pace(ctx context.Context, response string, deliver func(Delivery)) error {
	words := strings.Fields(response)

	var timer *time.Timer
	if p.Interval > 0 {
		timer = time.NewTimer(p.Interval)
		defer timer.Stop()
	}

	accumulated := strings.Builder{}
	for i, word := range words {
		if err := ctx.Err(); err != nil {
			return err
		}

		if i > 0 {
			accumulated.WriteByte(' ')
		}
		accumulated.WriteString(word)

		delta := word
		if i < len(words)-1 {
			delta += " "
		}
		deliver(Delivery{Delta: delta, Text: accumulated.String()})

		if timer == nil {
			continue
		}
		timer.Reset(p.Interval)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return nil
}
