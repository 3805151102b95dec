// Package events carries host runner lifecycle notifications over a wire format
// and replays them, in order, against a reporter.
package events

import (
	"errors"
	"fmt"

	"github.com/ethereum-optimism/infra/jenkins-reporter/types"
)

// Type names a lifecycle notification.
type Type string

const (
	TypeRunStart        Type = "run_start"
	TypeBrowserStart    Type = "browser_start"
	TypeSpecComplete    Type = "spec_complete"
	TypeSpecSuccess     Type = "spec_success"
	TypeSpecSkipped     Type = "spec_skipped"
	TypeSpecFailure     Type = "spec_failure"
	TypeBrowserComplete Type = "browser_complete"
	TypeRunComplete     Type = "run_complete"
	TypeMessage         Type = "message"
)

var (
	ErrUnknownEvent   = errors.New("unknown event type")
	ErrMalformedEvent = errors.New("malformed event")
)

// Event is the JSON envelope of one notification.
type Event struct {
	Type     Type              `json:"type"`
	Browsers []*types.Browser  `json:"browsers,omitempty"`
	Browser  *types.Browser    `json:"browser,omitempty"`
	Result   *types.SpecResult `json:"result,omitempty"`
	Message  string            `json:"message,omitempty"`
}

// Validate checks that the fields required by the event type are present.
func (e *Event) Validate() error {
	switch e.Type {
	case TypeRunStart, TypeRunComplete, TypeMessage:
		return nil
	case TypeBrowserStart, TypeBrowserComplete:
		if e.Browser == nil {
			return fmt.Errorf("%w: %s without browser", ErrMalformedEvent, e.Type)
		}
		return nil
	case TypeSpecComplete, TypeSpecSuccess, TypeSpecSkipped, TypeSpecFailure:
		if e.Browser == nil || e.Result == nil {
			return fmt.Errorf("%w: %s requires browser and result", ErrMalformedEvent, e.Type)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, e.Type)
	}
}
