package notifications

import (
	"fmt"
	"strings"
)

// Event identifies a notification type.
type Event string

const (
	EventArtifactReady     Event = "artifact_ready"
	EventAnalysisCompleted Event = "analysis_completed"
	EventError             Event = "error"
	EventTest              Event = "test"
)

// Payload carries event fields. Known keys: dataset, job, frames, geometry,
// bytes, lines, context, error.
type Payload map[string]any

func (p Payload) text(key string) string {
	if p == nil {
		return ""
	}
	value, ok := p[key]
	if !ok || value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case error:
		return strings.TrimSpace(v.Error())
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

// render formats an event for human-facing transports.
func render(event Event, payload Payload) (message, bool) {
	dataset := payload.text("dataset")
	switch event {
	case EventArtifactReady:
		body := fmt.Sprintf("🎞️ GIF ready: %s", dataset)
		frames, geometry := payload.text("frames"), payload.text("geometry")
		switch {
		case frames != "" && geometry != "":
			body = fmt.Sprintf("%s (%s frames, %s)", body, frames, geometry)
		case frames != "":
			body = fmt.Sprintf("%s (%s frames)", body, frames)
		}
		return message{
			title: "Framereel - GIF Ready",
			body:  body,
			tags:  []string{"framereel", "gif", "ready"},
		}, true
	case EventAnalysisCompleted:
		body := fmt.Sprintf("📈 Analysis complete: %s", dataset)
		if lines, ok := payload["lines"].([]string); ok && len(lines) > 0 {
			body = fmt.Sprintf("%s\n%s", body, strings.Join(lines, "\n"))
		}
		return message{
			title: "Framereel - Analysis Complete",
			body:  body,
			tags:  []string{"framereel", "analysis", "completed"},
		}, true
	case EventError:
		var b strings.Builder
		b.WriteString("❌ Error")
		if label := payload.text("context"); label != "" {
			b.WriteString(" with ")
			b.WriteString(label)
		}
		if dataset != "" {
			b.WriteString(" for ")
			b.WriteString(dataset)
		}
		b.WriteString(": ")
		if msg := payload.text("error"); msg != "" {
			b.WriteString(msg)
		} else {
			b.WriteString("unknown")
		}
		return message{
			title:    "Framereel - Error",
			body:     b.String(),
			tags:     []string{"framereel", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "Framereel - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"framereel", "test"},
			priority: "low",
		}, true
	}
	return message{}, false
}
