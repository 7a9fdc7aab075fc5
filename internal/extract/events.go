package extract

import (
	"time"

	"github.com/wushici/exhibit-kit/internal/domain"
	"github.com/wushici/exhibit-kit/internal/observability"
)

// emitEvent sends an event without blocking the run.
func emitEvent(eventCh chan<- domain.RunEvent, logger *observability.Logger, event domain.RunEvent) {
	if eventCh == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case eventCh <- event:
	default:
		logger.Warn().Str("event", string(event.Type)).Msg("event channel full, dropping event")
	}
}
