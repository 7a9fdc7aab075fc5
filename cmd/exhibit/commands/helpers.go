package commands

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/wushici/exhibit-kit/cmd/exhibit/ui"
	"github.com/wushici/exhibit-kit/internal/domain"
	"github.com/wushici/exhibit-kit/internal/llm"
)

// errItemsFailed makes the process exit non-zero after a summary was printed.
var errItemsFailed = errors.New("some items failed")

func newClient() *llm.Client {
	return llm.NewClient(cfg.Extraction, llm.WithLogger(logger))
}

// eventBar drives a progress bar from run events until the channel closes.
type eventBar struct {
	events chan domain.RunEvent
	wg     sync.WaitGroup
}

func startEventBar(description string) *eventBar {
	eb := &eventBar{events: make(chan domain.RunEvent, 64)}
	eb.wg.Add(1)
	go func() {
		defer eb.wg.Done()

		var bar *ui.ProgressBar
		for ev := range eb.events {
			switch ev.Type {
			case domain.EventStart:
				bar = ui.NewProgressBar(int64(ev.Total), description)
			case domain.EventItemComplete, domain.EventItemSkipped, domain.EventError:
				if bar != nil && ev.Index > 0 {
					bar.Describe(fmt.Sprintf("%s %s", description, ev.Item))
					bar.Set(int64(ev.Index))
				}
			case domain.EventComplete:
				if bar != nil {
					bar.Finish()
					bar = nil
				}
			}
		}
		if bar != nil {
			bar.Finish()
		}
	}()
	return eb
}

// stop closes the channel and waits for the bar to finish rendering.
func (eb *eventBar) stop() {
	close(eb.events)
	eb.wg.Wait()
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
