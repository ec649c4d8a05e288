package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/studiowebux/proxyview/internal/filter"
	"github.com/studiowebux/proxyview/internal/render"
	"github.com/studiowebux/proxyview/internal/viewer"
	"gopkg.in/yaml.v3"
)

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// SubmissionError is returned when a submission reaches the failed state.
// Its message is the one the display shows after the error prefix.
type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string { return e.Err.Error() }
func (e *SubmissionError) Unwrap() error { return e.Err }

// FetchOptions contains options for a one-shot submission
type FetchOptions struct {
	URL          string
	Method       string
	Headers      []string // "Name: value" lines from -H
	Body         string   // literal, @file or @- for stdin
	ForceFrame   bool
	ForceRaw     bool
	OutputFormat string // text, json, yaml
	Query        string // JMESPath applied to text output
	ShowFull     bool
}

// fetchResult is the machine-readable form of a submission
type fetchResult struct {
	ID          string        `json:"id" yaml:"id"`
	URL         string        `json:"url" yaml:"url"`
	ProxiedURL  string        `json:"proxied_url" yaml:"proxied_url"`
	Method      string        `json:"method" yaml:"method"`
	Mode        render.Mode   `json:"mode,omitempty" yaml:"mode,omitempty"`
	StatusCode  int           `json:"status_code,omitempty" yaml:"status_code,omitempty"`
	Status      string        `json:"status,omitempty" yaml:"status,omitempty"`
	ContentType string        `json:"content_type,omitempty" yaml:"content_type,omitempty"`
	Size        int64         `json:"size" yaml:"size"`
	Duration    time.Duration `json:"duration" yaml:"duration"`
	Text        string        `json:"text,omitempty" yaml:"text,omitempty"`
	FrameURL    string        `json:"frame_url,omitempty" yaml:"frame_url,omitempty"`
	Error       string        `json:"error,omitempty" yaml:"error,omitempty"`
}

// Fetch runs one submission through ctrl and writes the outcome to w. A
// failed submission returns a *SubmissionError after the outcome has been
// written for json and yaml.
func Fetch(ctx context.Context, ctrl *viewer.Controller, opts FetchOptions, stdin io.Reader, w io.Writer) error {
	format := opts.OutputFormat
	if format == "" {
		format = FormatText
	}
	if format != FormatText && format != FormatJSON && format != FormatYAML {
		return fmt.Errorf("unknown output format: %s (use text, json or yaml)", format)
	}
	if opts.Query != "" && !filter.IsValidJMESPath(opts.Query) {
		return fmt.Errorf("invalid JMESPath expression: %s", opts.Query)
	}

	body, err := readBody(opts.Body, stdin)
	if err != nil {
		return err
	}

	result := ctrl.Submit(ctx, viewer.Form{
		URL:     opts.URL,
		Method:  opts.Method,
		Headers: strings.Join(opts.Headers, "\n"),
		Body:    body,
		Toggles: render.Toggles{ForceFrame: opts.ForceFrame, ForceRaw: opts.ForceRaw},
	})

	out := fetchResult{
		ID:          result.Submission.ID,
		URL:         result.Submission.Descriptor.TargetURL,
		ProxiedURL:  result.Submission.Descriptor.ProxiedURL,
		Method:      result.Submission.Descriptor.Method,
		StatusCode:  result.Meta.StatusCode,
		Status:      result.Meta.Status,
		ContentType: result.Meta.ContentType,
		Size:        result.Meta.Size,
		Duration:    result.Meta.Duration,
	}

	if result.Err != nil {
		out.Error = result.Err.Error()
	} else {
		out.Mode = result.Outcome.Mode
		out.FrameURL = result.Outcome.FrameURL
		out.Text = result.Outcome.Text

		if opts.Query != "" {
			if result.Outcome.IsFrame() {
				return fmt.Errorf("--query needs a text response, got a frame")
			}
			queried, err := filter.Apply(out.Text, opts.Query)
			if err != nil {
				return err
			}
			out.Text = queried
		}
	}

	formatted, err := formatOutput(out, format, opts.ShowFull)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	if formatted != "" {
		fmt.Fprint(w, formatted)
	}

	if result.Err != nil {
		return &SubmissionError{Err: result.Err}
	}
	return nil
}

// readBody resolves curl-style @file and @- references
func readBody(body string, stdin io.Reader) (string, error) {
	if !strings.HasPrefix(body, "@") {
		return body, nil
	}

	path := body[1:]
	if path == "-" {
		if stdin == nil {
			return "", fmt.Errorf("no stdin to read the body from")
		}
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read body from stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read body file: %w", err)
	}
	return string(data), nil
}

// formatOutput formats a submission for display. Text mode without --full
// prints only the display content, so it pipes cleanly.
func formatOutput(result fetchResult, format string, showFull bool) (string, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return "", err
		}
		return string(data) + "\n", nil

	case FormatYAML:
		data, err := yaml.Marshal(result)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	var sb strings.Builder

	if showFull && result.Error == "" {
		statusColor := getStatusColor(result.StatusCode)
		sb.WriteString(fmt.Sprintf("%s%s%s\n", statusColor, result.Status, colorReset))
		sb.WriteString(fmt.Sprintf("%s %s\n", result.Method, result.ProxiedURL))
		sb.WriteString(fmt.Sprintf("Duration: %s | Size: %s | Type: %s\n\n",
			result.Duration.Round(time.Millisecond),
			humanize.Bytes(uint64(result.Size)),
			result.ContentType))
	}

	switch {
	case result.Error != "":
		// Left to the caller, which prints "Error: ..." on stderr
	case result.FrameURL != "":
		if showFull {
			sb.WriteString("Frame: ")
		}
		sb.WriteString(result.FrameURL + "\n")
	case result.Text != "":
		sb.WriteString(result.Text)
		if !strings.HasSuffix(result.Text, "\n") {
			sb.WriteString("\n")
		}
	}

	return sb.String(), nil
}

// ANSI color codes
const (
	colorReset  = "\x1b[0m"
	colorRed    = "\x1b[31m"
	colorGreen  = "\x1b[32m"
	colorYellow = "\x1b[33m"
)

func getStatusColor(status int) string {
	if status >= 200 && status < 300 {
		return colorGreen
	} else if status >= 400 {
		return colorRed
	}
	return colorYellow
}
