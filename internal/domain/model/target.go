package model

import (
	"encoding/json"
	"fmt"
)

// TargetType discriminates tracker target variants.
type TargetType string

const (
	// TargetTypePage fetches a web page through the headless-browser component.
	TargetTypePage TargetType = "page"
	// TargetTypeAPI issues one or more plain HTTP requests.
	TargetTypeAPI TargetType = "api"
)

// Valid returns true if the target type is a known variant.
func (t TargetType) Valid() bool {
	switch t {
	case TargetTypePage, TargetTypeAPI:
		return true
	default:
		return false
	}
}

// String returns the string representation of the target type.
func (t TargetType) String() string {
	return string(t)
}

// TrackerTarget is the tagged union of tracker target variants. Exactly one
// of Page or API is set, matching Type.
type TrackerTarget struct {
	Type TargetType
	Page *PageTarget
	API  *APITarget
}

// PageTarget describes a scripted page fetch executed by the web scraper
// component.
type PageTarget struct {
	// Extractor is the JS source executed in the page context; its return
	// value is the candidate revision content.
	Extractor string `json:"extractor"`
	// Params is an optional JSON value passed to the extractor.
	Params json.RawMessage `json:"params,omitempty"`
	// Engine optionally selects the browser engine used by the scraper.
	Engine *string `json:"engine,omitempty"`
	// UserAgent optionally overrides the scraper's user agent.
	UserAgent *string `json:"userAgent,omitempty"`
	// AcceptInvalidCertificates relaxes TLS verification for the page fetch.
	AcceptInvalidCertificates bool `json:"acceptInvalidCertificates,omitempty"`
}

// APITarget describes a sequence of HTTP requests plus optional configurator
// and extractor scripts.
type APITarget struct {
	Requests []APIRequest `json:"requests"`
	// Configurator optionally rewrites the declared requests or synthesizes a
	// response before any HTTP is issued.
	Configurator *string `json:"configurator,omitempty"`
	// Extractor optionally reduces the collected response bodies to a single
	// candidate body.
	Extractor *string `json:"extractor,omitempty"`
}

// APIRequest is a single declared HTTP request of an API target.
type APIRequest struct {
	URL     string            `json:"url"`
	Method  *string           `json:"method,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    json.RawMessage   `json:"body,omitempty"`
	// MediaType overrides the response media type used for parsing. When
	// absent, the response Content-Type header is used.
	MediaType *string `json:"mediaType,omitempty"`
	// AcceptStatuses lists response status codes treated as success in
	// addition to 2xx.
	AcceptStatuses []int `json:"acceptStatuses,omitempty"`
	// AcceptInvalidCertificates relaxes TLS verification for this request.
	AcceptInvalidCertificates bool `json:"acceptInvalidCertificates,omitempty"`
}

type pageTargetEnvelope struct {
	Type TargetType `json:"type"`
	*PageTarget
}

type apiTargetEnvelope struct {
	Type TargetType `json:"type"`
	*APITarget
}

// MarshalJSON flattens the active variant alongside the type tag.
func (t TrackerTarget) MarshalJSON() ([]byte, error) {
	switch t.Type {
	case TargetTypePage:
		if t.Page == nil {
			return nil, fmt.Errorf("page target payload is not set")
		}
		return json.Marshal(pageTargetEnvelope{Type: t.Type, PageTarget: t.Page})
	case TargetTypeAPI:
		if t.API == nil {
			return nil, fmt.Errorf("api target payload is not set")
		}
		return json.Marshal(apiTargetEnvelope{Type: t.Type, APITarget: t.API})
	default:
		return nil, fmt.Errorf("unknown target type %q", t.Type)
	}
}

// UnmarshalJSON peeks at the type tag and decodes the matching variant.
func (t *TrackerTarget) UnmarshalJSON(data []byte) error {
	var tag struct {
		Type TargetType `json:"type"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return err
	}

	switch tag.Type {
	case TargetTypePage:
		var page PageTarget
		if err := json.Unmarshal(data, &page); err != nil {
			return err
		}
		*t = TrackerTarget{Type: TargetTypePage, Page: &page}
		return nil
	case TargetTypeAPI:
		var api APITarget
		if err := json.Unmarshal(data, &api); err != nil {
			return err
		}
		*t = TrackerTarget{Type: TargetTypeAPI, API: &api}
		return nil
	default:
		return fmt.Errorf("unknown target type %q", tag.Type)
	}
}
