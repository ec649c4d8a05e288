// Package viewer owns the form state machine shared by every surface:
// idle -> submitted -> awaiting -> rendered | failed, and back to idle on reset.
package viewer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/studiowebux/proxyview/internal/config"
	"github.com/studiowebux/proxyview/internal/liststore"
	"github.com/studiowebux/proxyview/internal/logging"
	"github.com/studiowebux/proxyview/internal/pipeline"
	"go.uber.org/zap"
)

// Options wires a controller to its collaborators
type Options struct {
	Doer          pipeline.Doer
	History       *liststore.Store
	Bookmarks     *liststore.Store
	ProxyTemplate string
	Logger        *logging.Logger
}

// Controller is safe for concurrent use. Every submission bumps a generation
// counter; results from older generations are discarded.
type Controller struct {
	mu sync.Mutex

	doer      pipeline.Doer
	history   *liststore.Store
	bookmarks *liststore.Store
	template  string
	logger    *logging.Logger

	state      State
	form       Form
	display    Display
	generation uint64
	cancel     context.CancelFunc
	lastMeta   *pipeline.Meta
	lastError  string
}

// New creates an idle controller
func New(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	template := opts.ProxyTemplate
	if template == "" {
		template = config.DefaultProxyTemplate
	}

	return &Controller{
		doer:      opts.Doer,
		history:   opts.History,
		bookmarks: opts.Bookmarks,
		template:  template,
		logger:    logger.Named("viewer"),
		state:     StateIdle,
		form:      Form{Method: "GET"},
	}
}

// Begin performs the synchronous half of a submit: it stores the form, shows
// the loading placeholder, records the URL in history and assembles the
// request. Any older in-flight submission is cancelled.
func (c *Controller) Begin(form Form) Submission {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.form = form
	c.state = StateSubmitted

	c.generation++
	if c.cancel != nil {
		c.cancel()
	}
	done, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	descriptor := pipeline.BuildDescriptor(form.URL, form.Method, form.Headers, form.Body, c.template)

	c.display = Display{Text: LoadingText}
	c.lastMeta = nil
	c.lastError = ""

	if c.history != nil {
		if _, err := c.history.Add(form.URL); err != nil {
			c.logger.Warn("failed to persist history", zap.String("url", form.URL), zap.Error(err))
		}
	}

	sub := Submission{
		ID:         uuid.NewString(),
		Generation: c.generation,
		Descriptor: descriptor,
		Toggles:    form.Toggles,
		Started:    time.Now(),
		done:       done,
	}

	c.logger.Debug("submission started",
		zap.String("id", sub.ID),
		zap.Uint64("generation", sub.Generation),
		zap.String("method", descriptor.Method),
		zap.String("target", descriptor.TargetURL),
		zap.Int("headers", descriptor.Headers.Len()),
		zap.Bool("body", descriptor.HasBody),
	)

	return sub
}

// Await sends the submission and waits for the response. It does not touch
// the display and may run on any goroutine.
func (c *Controller) Await(ctx context.Context, sub Submission) Result {
	c.mu.Lock()
	if sub.Generation == c.generation && c.state == StateSubmitted {
		c.state = StateAwaiting
	}
	doer := c.doer
	c.mu.Unlock()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if sub.done != nil {
		stop := context.AfterFunc(sub.done, cancel)
		defer stop()
	}

	result := Result{Submission: sub}
	if doer == nil {
		result.Err = errors.New("no HTTP client configured")
		return result
	}

	outcome, meta, err := pipeline.Execute(ctx, doer, sub.Descriptor, sub.Toggles)
	result.Outcome = outcome
	result.Meta = meta
	result.Err = err
	if err != nil && sub.done != nil && sub.done.Err() != nil {
		result.Superseded = true
	}

	return result
}

// Complete applies a result to the display if it belongs to the current
// generation. It reports whether the result was applied.
func (c *Controller) Complete(result Result) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	sub := result.Submission
	fields := []zap.Field{
		zap.String("id", sub.ID),
		zap.Uint64("generation", sub.Generation),
		zap.String("method", sub.Descriptor.Method),
		zap.String("target", sub.Descriptor.TargetURL),
		zap.Duration("duration", result.Meta.Duration),
	}

	if result.Superseded || sub.Generation != c.generation {
		c.logger.Debug("discarding stale result", append(fields, zap.Uint64("current", c.generation))...)
		return false
	}

	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}

	meta := result.Meta
	c.lastMeta = &meta

	if result.Err != nil {
		c.state = StateFailed
		c.lastError = result.Err.Error()
		c.display = Display{Text: ErrorPrefix + result.Err.Error()}
		c.logger.Warn("submission failed", append(fields, zap.Error(result.Err))...)
		return true
	}

	c.state = StateRendered
	c.lastError = ""
	if result.Outcome.IsFrame() {
		c.display = Display{FrameURL: result.Outcome.FrameURL, FrameVisible: true}
	} else {
		c.display = Display{Text: result.Outcome.Text}
	}

	c.logger.Info("submission rendered", append(fields,
		zap.String("mode", string(result.Outcome.Mode)),
		zap.Int("status", meta.StatusCode),
		zap.String("content_type", meta.ContentType),
		zap.String("size", humanize.Bytes(uint64(meta.Size))),
	)...)

	return true
}

// Submit runs Begin, Await and Complete in sequence
func (c *Controller) Submit(ctx context.Context, form Form) Result {
	sub := c.Begin(form)
	result := c.Await(ctx, sub)
	c.Complete(result)
	return result
}

// Reset clears the URL, headers and body fields and the display, and
// invalidates any in-flight submission. Method, toggles and the lists are
// left alone.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}

	c.form.URL = ""
	c.form.Headers = ""
	c.form.Body = ""
	c.display = Display{}
	c.state = StateIdle
	c.lastMeta = nil
	c.lastError = ""
}

// SetForm replaces the form without submitting
func (c *Controller) SetForm(form Form) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form = form
}

// Form returns the current form
func (c *Controller) Form() Form {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form
}

// Bookmark adds url to the bookmarks. Empty URLs and duplicates are ignored.
func (c *Controller) Bookmark(url string) (bool, error) {
	if url == "" || c.bookmarks == nil {
		return false, nil
	}

	added, err := c.bookmarks.Add(url)
	if err != nil {
		c.logger.Warn("failed to persist bookmarks", zap.String("url", url), zap.Error(err))
		return added, err
	}
	if added {
		c.logger.Info("bookmark added", zap.String("url", url))
	}
	return added, nil
}

// SelectHistory copies history entry i into the URL field
func (c *Controller) SelectHistory(i int) (string, bool) {
	return c.selectFrom(c.history, i)
}

// SelectBookmark copies bookmark entry i into the URL field
func (c *Controller) SelectBookmark(i int) (string, bool) {
	return c.selectFrom(c.bookmarks, i)
}

func (c *Controller) selectFrom(store *liststore.Store, i int) (string, bool) {
	if store == nil {
		return "", false
	}
	url, ok := store.At(i)
	if !ok {
		return "", false
	}

	c.mu.Lock()
	c.form.URL = url
	c.mu.Unlock()

	return url, true
}

// History returns the history store
func (c *Controller) History() *liststore.Store {
	return c.history
}

// Bookmarks returns the bookmark store
func (c *Controller) Bookmarks() *liststore.Store {
	return c.bookmarks
}

// ProxyTemplate returns the configured proxy URL template
func (c *Controller) ProxyTemplate() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.template
}

// SetProxyTemplate changes the template used by later submissions. An empty
// template restores the default.
func (c *Controller) SetProxyTemplate(template string) {
	if template == "" {
		template = config.DefaultProxyTemplate
	}
	c.mu.Lock()
	c.template = template
	c.mu.Unlock()
	c.logger.Info("proxy template changed", zap.String("template", template))
}

// State returns the current lifecycle state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot returns a copy of everything a surface needs to draw
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	snap := Snapshot{
		State:      c.state,
		Form:       c.form,
		Display:    c.display,
		Generation: c.generation,
		LastError:  c.lastError,
	}
	if c.lastMeta != nil {
		meta := *c.lastMeta
		snap.LastMeta = &meta
	}
	c.mu.Unlock()

	snap.History = []string{}
	snap.Bookmarks = []string{}
	if c.history != nil {
		snap.History = c.history.Items()
	}
	if c.bookmarks != nil {
		snap.Bookmarks = c.bookmarks.Items()
	}

	return snap
}
