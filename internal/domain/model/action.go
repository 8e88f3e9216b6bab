package model

import (
	"encoding/json"
	"fmt"
)

// ActionType discriminates tracker action variants.
type ActionType string

const (
	// ActionTypeServerLog writes the revision (or failure) to the server log.
	ActionTypeServerLog ActionType = "log"
	// ActionTypeEmail queues an email task for the revision.
	ActionTypeEmail ActionType = "email"
	// ActionTypeWebhook queues an HTTP task for the revision.
	ActionTypeWebhook ActionType = "webhook"
)

// Valid returns true if the action type is a known variant.
func (t ActionType) Valid() bool {
	switch t {
	case ActionTypeServerLog, ActionTypeEmail, ActionTypeWebhook:
		return true
	default:
		return false
	}
}

// String returns the string representation of the action type.
func (t ActionType) String() string {
	return string(t)
}

// TrackerAction is the tagged union of tracker actions. The Email and Webhook
// payloads are set only for their respective types.
type TrackerAction struct {
	Type    ActionType
	Email   *EmailAction
	Webhook *WebhookAction
	// Formatter is an optional JS script run against the revision value before
	// the action payload is built.
	Formatter *string
}

// EmailAction carries the recipient list for an email action.
type EmailAction struct {
	To []string `json:"to"`
}

// WebhookAction carries the request shape for a webhook action.
type WebhookAction struct {
	URL     string            `json:"url"`
	Method  *string           `json:"method,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

type serverLogActionEnvelope struct {
	Type      ActionType `json:"type"`
	Formatter *string    `json:"formatter,omitempty"`
}

type emailActionEnvelope struct {
	Type ActionType `json:"type"`
	*EmailAction
	Formatter *string `json:"formatter,omitempty"`
}

type webhookActionEnvelope struct {
	Type ActionType `json:"type"`
	*WebhookAction
	Formatter *string `json:"formatter,omitempty"`
}

// MarshalJSON flattens the active variant alongside the type tag.
func (a TrackerAction) MarshalJSON() ([]byte, error) {
	switch a.Type {
	case ActionTypeServerLog:
		return json.Marshal(serverLogActionEnvelope{Type: a.Type, Formatter: a.Formatter})
	case ActionTypeEmail:
		if a.Email == nil {
			return nil, fmt.Errorf("email action payload is not set")
		}
		return json.Marshal(emailActionEnvelope{Type: a.Type, EmailAction: a.Email, Formatter: a.Formatter})
	case ActionTypeWebhook:
		if a.Webhook == nil {
			return nil, fmt.Errorf("webhook action payload is not set")
		}
		return json.Marshal(webhookActionEnvelope{Type: a.Type, WebhookAction: a.Webhook, Formatter: a.Formatter})
	default:
		return nil, fmt.Errorf("unknown action type %q", a.Type)
	}
}

// UnmarshalJSON peeks at the type tag and decodes the matching variant.
func (a *TrackerAction) UnmarshalJSON(data []byte) error {
	var tag struct {
		Type      ActionType `json:"type"`
		Formatter *string    `json:"formatter"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return err
	}

	switch tag.Type {
	case ActionTypeServerLog:
		*a = TrackerAction{Type: tag.Type, Formatter: tag.Formatter}
		return nil
	case ActionTypeEmail:
		var email EmailAction
		if err := json.Unmarshal(data, &email); err != nil {
			return err
		}
		*a = TrackerAction{Type: tag.Type, Email: &email, Formatter: tag.Formatter}
		return nil
	case ActionTypeWebhook:
		var webhook WebhookAction
		if err := json.Unmarshal(data, &webhook); err != nil {
			return err
		}
		*a = TrackerAction{Type: tag.Type, Webhook: &webhook, Formatter: tag.Formatter}
		return nil
	default:
		return fmt.Errorf("unknown action type %q", tag.Type)
	}
}
