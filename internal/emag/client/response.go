package client

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Envelope is the wire shape of every marketplace response. IsError is the
// mandatory success indicator: a pointer so that an omitted field is
// distinguishable from an explicit false. Unknown or missing fields fail
// closed at this boundary.
type Envelope struct {
	IsError  *bool             `json:"isError"`
	Messages []string          `json:"messages"`
	Results  json.RawMessage   `json:"results"`
	Errors   []json.RawMessage `json:"errors"`
}

// Err validates the success indicator. Absence is treated as a failed call
// even when the transport status looked fine.
func (e *Envelope) Err() error {
	if e.IsError == nil {
		return ErrMissingSuccessFlag
	}
	if !*e.IsError {
		return nil
	}
	msg := strings.Join(e.Messages, "; ")
	if msg == "" {
		msg = "marketplace flagged the call as failed without a message"
	}
	return &ValidationError{Reason: msg}
}

// DecodeResults unmarshals the results payload into out.
func (e *Envelope) DecodeResults(out interface{}) error {
	if len(e.Results) == 0 {
		return nil
	}
	if err := json.Unmarshal(e.Results, out); err != nil {
		return fmt.Errorf("decoding results: %w", err)
	}
	return nil
}

// ResultItems splits an array-shaped results payload into raw items.
func (e *Envelope) ResultItems() ([]json.RawMessage, error) {
	if len(e.Results) == 0 {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(e.Results, &items); err != nil {
		return nil, fmt.Errorf("results payload is not an array: %w", err)
	}
	return items, nil
}
