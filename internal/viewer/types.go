package viewer

import (
	"context"
	"time"

	"github.com/studiowebux/proxyview/internal/pipeline"
	"github.com/studiowebux/proxyview/internal/render"
)

// State is the controller's lifecycle position
type State string

const (
	StateIdle      State = "idle"
	StateSubmitted State = "submitted"
	StateAwaiting  State = "awaiting"
	StateRendered  State = "rendered"
	StateFailed    State = "failed"
)

const (
	// LoadingText is shown while a submission is in flight
	LoadingText = "Loading..."
	// ErrorPrefix precedes the failure message in the display
	ErrorPrefix = "Error: "
)

// Form holds the user-editable inputs
type Form struct {
	URL     string         `json:"url" yaml:"url"`
	Method  string         `json:"method" yaml:"method"`
	Headers string         `json:"headers" yaml:"headers"`
	Body    string         `json:"body" yaml:"body"`
	Toggles render.Toggles `json:"toggles" yaml:"toggles"`
}

// Display is what the output area shows. FrameVisible and Text are never
// both populated.
type Display struct {
	Text         string `json:"text" yaml:"text"`
	FrameURL     string `json:"frame_url,omitempty" yaml:"frame_url,omitempty"`
	FrameVisible bool   `json:"frame_visible" yaml:"frame_visible"`
}

// Submission is the synchronous part of a submit, ready to be awaited
type Submission struct {
	ID         string
	Generation uint64
	Descriptor pipeline.Descriptor
	Toggles    render.Toggles
	Started    time.Time

	// done is cancelled when a newer submission or a reset supersedes this one
	done context.Context
}

// Result is the network outcome of a submission
type Result struct {
	Submission Submission
	Outcome    render.Outcome
	Meta       pipeline.Meta
	Err        error
	// Superseded is set when the request was cancelled by a newer submission
	Superseded bool
}

// Snapshot is a consistent copy of the controller for rendering
type Snapshot struct {
	State      State          `json:"state" yaml:"state"`
	Form       Form           `json:"form" yaml:"form"`
	Display    Display        `json:"display" yaml:"display"`
	Generation uint64         `json:"generation" yaml:"generation"`
	LastMeta   *pipeline.Meta `json:"last_meta,omitempty" yaml:"last_meta,omitempty"`
	LastError  string         `json:"last_error,omitempty" yaml:"last_error,omitempty"`
	History    []string       `json:"history" yaml:"history"`
	Bookmarks  []string       `json:"bookmarks" yaml:"bookmarks"`
}
