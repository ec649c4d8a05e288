package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/studiowebux/proxyview/internal/render"
)

// Meta describes an exchange for status lines and logs
type Meta struct {
	StatusCode  int           `json:"status_code" yaml:"status_code"`
	Status      string        `json:"status" yaml:"status"`
	ContentType string        `json:"content_type" yaml:"content_type"`
	Size        int64         `json:"size" yaml:"size"`
	Duration    time.Duration `json:"duration" yaml:"duration"`
}

// Execute sends d and renders the response. In frame mode the body is never
// read and the frame points at the proxied URL. Transport errors, body read
// errors and invalid JSON in JSON mode are returned as errors.
func Execute(ctx context.Context, doer Doer, d Descriptor, toggles render.Toggles) (render.Outcome, Meta, error) {
	start := time.Now()

	resp, err := doer.Do(ctx, d)
	if err != nil {
		return render.Outcome{}, Meta{Duration: time.Since(start)}, err
	}
	if resp.Body != nil {
		defer resp.Body.Close()
	}

	meta := Meta{
		StatusCode:  resp.StatusCode,
		Status:      resp.Status,
		ContentType: resp.ContentType,
	}

	if render.Decide(toggles, resp.ContentType) == render.ModeFrame {
		meta.Duration = time.Since(start)
		return render.Frame(d.ProxiedURL), meta, nil
	}

	var body []byte
	if resp.Body != nil {
		body, err = io.ReadAll(resp.Body)
		meta.Size = int64(len(body))
		if err != nil {
			meta.Duration = time.Since(start)
			return render.Outcome{}, meta, fmt.Errorf("failed to read response body: %w", err)
		}
	}
	meta.Duration = time.Since(start)

	text, err := render.Text(toggles, resp.ContentType, string(body))
	if err != nil {
		return render.Outcome{}, meta, err
	}

	return render.TextOutcome(text), meta, nil
}
