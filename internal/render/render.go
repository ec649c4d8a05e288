// Package render decides how a proxied response is displayed: as an embedded
// frame pointing at the proxied URL, or as a block of text.
package render

import (
	"fmt"
	"strings"
)

// Class is the coarse content class derived from a Content-Type header
type Class string

const (
	ClassHTML  Class = "html"
	ClassJSON  Class = "json"
	ClassOther Class = "other"
)

// Mode is how an outcome is shown
type Mode string

const (
	ModeFrame Mode = "frame"
	ModeText  Mode = "text"
)

// Toggles are the user's display overrides
type Toggles struct {
	ForceFrame bool `json:"force_frame" yaml:"force_frame"`
	ForceRaw   bool `json:"force_raw" yaml:"force_raw"`
}

// Outcome is exactly one of a frame (FrameURL set) or a text block
type Outcome struct {
	Mode     Mode   `json:"mode" yaml:"mode"`
	FrameURL string `json:"frame_url,omitempty" yaml:"frame_url,omitempty"`
	Text     string `json:"text,omitempty" yaml:"text,omitempty"`
}

// Frame builds a frame outcome
func Frame(url string) Outcome {
	return Outcome{Mode: ModeFrame, FrameURL: url}
}

// TextOutcome builds a text outcome
func TextOutcome(text string) Outcome {
	return Outcome{Mode: ModeText, Text: text}
}

func (o Outcome) IsFrame() bool {
	return o.Mode == ModeFrame
}

// Classify maps a Content-Type value to a class using plain substring checks
func Classify(contentType string) Class {
	switch {
	case strings.Contains(contentType, "text/html"):
		return ClassHTML
	case strings.Contains(contentType, "application/json"):
		return ClassJSON
	default:
		return ClassOther
	}
}

// Decide picks the display mode. ForceFrame always wins; otherwise HTML
// goes to the frame unless ForceRaw is set.
func Decide(t Toggles, contentType string) Mode {
	if t.ForceFrame || (Classify(contentType) == ClassHTML && !t.ForceRaw) {
		return ModeFrame
	}
	return ModeText
}

// Text renders a text-mode body. JSON is parsed and re-serialized with two
// spaces unless ForceRaw is set; invalid JSON is an error.
func Text(t Toggles, contentType, body string) (string, error) {
	if t.ForceRaw || Classify(contentType) != ClassJSON {
		return body, nil
	}

	text, err := Reformat(body)
	if err != nil {
		return "", fmt.Errorf("invalid JSON response: %w", err)
	}
	return text, nil
}
