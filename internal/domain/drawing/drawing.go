package drawing

import "time"

// Drawing is one submitted image tracked through its display and
// moderation lifecycle. The payload is an opaque base64 blob; it is never
// interpreted here beyond thumbnail generation at ingestion.
type Drawing struct {
	ID          string
	Payload     string
	DisplayHint interface{}
	Thumbnail   string
	Flagged     bool
	Reason      string
	CreatedAt   time.Time
}
