package taskrunner

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"text/template"

	"github.com/retrack-dev/retrack/internal/domain/model"
)

// renderedEmail is the subject/body triple handed to the mail transport.
type renderedEmail struct {
	Subject string
	Text    string
	HTML    *string
}

// trackerChangesText is the body of the built-in tracker-changes template.
var trackerChangesText = template.Must(template.New("tracker_changes").Parse(
	`{{- if .Failed -}}
Tracker "{{.TrackerName}}" failed to fetch a new revision.

Error: {{.Error}}
{{- else -}}
Tracker "{{.TrackerName}}" recorded a new revision.

{{.Value}}
{{- end}}

Tracker id: {{.TrackerID}}
`))

type trackerChangesData struct {
	TrackerID   string
	TrackerName string
	Failed      bool
	Error       string
	Value       string
}

// renderEmailContent resolves the content union into a sendable message.
func renderEmailContent(content model.EmailContent) (renderedEmail, error) {
	switch {
	case content.Custom != nil:
		return renderedEmail{
			Subject: content.Custom.Subject,
			Text:    content.Custom.Text,
			HTML:    content.Custom.HTML,
		}, nil
	case content.Template != nil:
		if content.Template.TrackerChanges == nil {
			return renderedEmail{}, errors.New("email template payload is not set")
		}
		return renderTrackerChanges(*content.Template.TrackerChanges)
	default:
		return renderedEmail{}, errors.New("email content is empty")
	}
}

func renderTrackerChanges(data model.TrackerChangesTemplate) (renderedEmail, error) {
	fields := trackerChangesData{
		TrackerID:   data.TrackerID.String(),
		TrackerName: data.TrackerName,
	}

	var subject string
	if data.Result.Err != nil {
		fields.Failed = true
		fields.Error = *data.Result.Err
		subject = fmt.Sprintf("Retrack: tracker %q failed", data.TrackerName)
	} else {
		fields.Value = prettyValue(data.Result.OK)
		subject = fmt.Sprintf("Retrack: tracker %q changed", data.TrackerName)
	}

	var body bytes.Buffer
	if err := trackerChangesText.Execute(&body, fields); err != nil {
		return renderedEmail{}, fmt.Errorf("render tracker changes template: %w", err)
	}
	return renderedEmail{Subject: subject, Text: body.String()}, nil
}

// prettyValue indents the revision value for the text body; malformed values
// are passed through raw rather than dropped.
func prettyValue(raw json.RawMessage) string {
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		return string(raw)
	}
	return out.String()
}
