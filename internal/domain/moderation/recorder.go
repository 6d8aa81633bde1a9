package moderation

import (
	evbus "github.com/asaskevich/EventBus"

	"sketchwall-server-go/internal/domain/events"
	"sketchwall-server-go/internal/platform/logging"
)

// AuditSink receives moderation decisions for persistence. The storage
// package's AuditStore implements it.
type AuditSink interface {
	RecordFlagged(drawingID string, reasons []string) error
	RecordRemoved(drawingID, reason string) error
	RecordPardoned(drawingID string) error
}

// Recorder subscribes to the lifecycle topics and appends every
// moderation decision to the audit trail. Persistence failures are
// logged and never propagate into the pipeline.
type Recorder struct {
	sink   AuditSink
	logger *logging.Logger
}

func NewRecorder(sink AuditSink, logger *logging.Logger) *Recorder {
	return &Recorder{sink: sink, logger: logger}
}

// Bind subscribes the recorder to the moderation topics.
func (r *Recorder) Bind(bus evbus.Bus) error {
	subs := map[string]interface{}{
		events.TopicDrawingFlagged: func(e events.DrawingFlagged) {
			if err := r.sink.RecordFlagged(e.ID, e.Reasons); err != nil {
				r.logger.WarnTag("Audit", "record flag for %s: %v", e.ID, err)
			}
		},
		events.TopicDrawingRemoved: func(e events.DrawingRemoved) {
			if err := r.sink.RecordRemoved(e.ID, e.Reason); err != nil {
				r.logger.WarnTag("Audit", "record removal for %s: %v", e.ID, err)
			}
		},
		events.TopicDrawingPardoned: func(e events.DrawingPardoned) {
			if err := r.sink.RecordPardoned(e.ID); err != nil {
				r.logger.WarnTag("Audit", "record pardon for %s: %v", e.ID, err)
			}
		},
	}
	for topic, fn := range subs {
		if err := bus.Subscribe(topic, fn); err != nil {
			return err
		}
	}
	return nil
}
