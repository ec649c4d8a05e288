// Package proxy is the self-hosted CORS proxy behind "serve": GET or POST
// /proxy?url=<target> fetches target and returns it, with pages and
// stylesheets rewritten so their links come back through the proxy.
package proxy

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/go-resty/resty/v2"
	"github.com/studiowebux/proxyview/internal/logging"
	"go.uber.org/zap"
)

// DefaultRoute is where the proxy is mounted
const DefaultRoute = "/proxy"

const (
	defaultMaxLogs   = 200
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	browserAccept    = "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"
)

// Hop-by-hop headers that must not be forwarded
var hopHeaders = map[string]bool{
	"Connection":          true,
	"Keep-Alive":          true,
	"Proxy-Authenticate":  true,
	"Proxy-Authorization": true,
	"Proxy-Connection":    true,
	"Te":                  true,
	"Trailer":             true,
	"Trailers":            true,
	"Transfer-Encoding":   true,
	"Upgrade":             true,
}

// Request headers dropped on top of the hop-by-hop set. The HTTP client
// negotiates compression itself.
var droppedRequestHeaders = map[string]bool{
	"Host":            true,
	"Content-Length":  true,
	"Accept-Encoding": true,
}

// Response headers dropped on top of the hop-by-hop set; the body is
// re-encoded and its length recomputed
var droppedResponseHeaders = map[string]bool{
	"Content-Encoding": true,
	"Content-Length":   true,
	"Content-Type":     true,
}

// Transaction is one proxied exchange
type Transaction struct {
	ID          int           `json:"id"`
	Timestamp   time.Time     `json:"timestamp"`
	Method      string        `json:"method"`
	URL         string        `json:"url"`
	FinalURL    string        `json:"final_url,omitempty"`
	Status      int           `json:"status"`
	ContentType string        `json:"content_type,omitempty"`
	Charset     string        `json:"charset,omitempty"`
	Rewritten   bool          `json:"rewritten"`
	Size        int           `json:"size"`
	Duration    time.Duration `json:"duration"`
	Error       string        `json:"error,omitempty"`
}

// Options configures a Proxy
type Options struct {
	// Client sends the upstream requests; redirects are followed
	Client *resty.Client
	// Route is the mount path used in rewritten links
	Route string
	// MaxLogs bounds the transaction log
	MaxLogs int
	Logger  *logging.Logger
}

// Proxy forwards requests and keeps the most recent transactions
type Proxy struct {
	client   *resty.Client
	rewriter Rewriter
	logger   *logging.Logger

	logMutex sync.RWMutex
	logs     []Transaction
	nextID   int
	maxLogs  int
}

// New creates a proxy. A nil client gets a resty default.
func New(opts Options) *Proxy {
	client := opts.Client
	if client == nil {
		client = resty.New().SetRetryCount(0)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	route := opts.Route
	if route == "" {
		route = DefaultRoute
	}
	maxLogs := opts.MaxLogs
	if maxLogs < 1 {
		maxLogs = defaultMaxLogs
	}

	return &Proxy{
		client:   client,
		rewriter: Rewriter{Route: route},
		logger:   logger.Named("proxy"),
		nextID:   1,
		maxLogs:  maxLogs,
	}
}

// Route returns the mount path
func (p *Proxy) Route() string {
	return p.rewriter.route()
}

// Handle serves one proxied request
func (p *Proxy) Handle(c *gin.Context) {
	start := time.Now()
	raw := c.Query("url")
	tx := Transaction{
		ID:        p.getNextID(),
		Timestamp: start,
		Method:    c.Request.Method,
		URL:       raw,
	}

	target, err := validateTarget(raw)
	if err != nil {
		p.fail(c, &tx, http.StatusBadRequest, err)
		return
	}
	if target.Host == c.Request.Host && strings.HasPrefix(target.Path, p.Route()) {
		p.fail(c, &tx, http.StatusBadRequest, errors.New("refusing to proxy the proxy itself"))
		return
	}

	var reqBody []byte
	if c.Request.Body != nil {
		if reqBody, err = io.ReadAll(c.Request.Body); err != nil {
			p.fail(c, &tx, http.StatusBadRequest, fmt.Errorf("failed to read request body: %w", err))
			return
		}
	}

	req := p.client.R().
		SetContext(c.Request.Context()).
		SetDoNotParseResponse(true)
	req.Header = forwardHeaders(c.Request.Header)
	if len(reqBody) > 0 {
		req.SetBody(reqBody)
	}

	resp, err := req.Execute(c.Request.Method, target.String())
	if err != nil {
		p.fail(c, &tx, http.StatusBadGateway, fmt.Errorf("request error: %w", err))
		return
	}
	rawBody := resp.RawBody()
	defer rawBody.Close()

	body, err := io.ReadAll(rawBody)
	if err != nil {
		p.fail(c, &tx, http.StatusBadGateway, fmt.Errorf("failed to read response: %w", err))
		return
	}

	finalURL := target
	if resp.RawResponse != nil && resp.RawResponse.Request != nil && resp.RawResponse.Request.URL != nil {
		finalURL = resp.RawResponse.Request.URL
	}

	copyResponseHeaders(c.Writer.Header(), resp.Header())

	contentType := resp.Header().Get("Content-Type")
	if contentType == "" {
		contentType = guessContentType(finalURL, body)
	}
	out, contentType, charsetName, rewritten := p.transform(body, contentType, finalURL)

	tx.FinalURL = finalURL.String()
	tx.Status = resp.StatusCode()
	tx.ContentType = contentType
	tx.Charset = charsetName
	tx.Rewritten = rewritten
	tx.Size = len(out)
	tx.Duration = time.Since(start)
	p.addLog(tx)

	p.logger.Debug("proxied",
		zap.String("method", tx.Method),
		zap.String("url", tx.URL),
		zap.String("final_url", tx.FinalURL),
		zap.Int("status", tx.Status),
		zap.String("content_type", contentType),
		zap.Bool("rewritten", rewritten),
		zap.Duration("duration", tx.Duration),
	)

	c.Data(resp.StatusCode(), contentType, out)
}

// transform decodes text bodies to UTF-8 and rewrites pages and stylesheets
func (p *Proxy) transform(body []byte, contentType string, pageURL *url.URL) ([]byte, string, string, bool) {
	mediaType := strings.ToLower(contentType)
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		mediaType = mt
	}

	switch {
	case strings.Contains(mediaType, "text/html"):
		text, name := DecodeText(body, contentType)
		page, err := p.rewriter.HTML(text, pageURL)
		if err != nil {
			p.logger.Warn("failed to rewrite page", zap.String("url", pageURL.String()), zap.Error(err))
			return []byte(text), mediaType + "; charset=utf-8", name, false
		}
		return []byte(page), mediaType + "; charset=utf-8", name, true

	case strings.Contains(mediaType, "text/css"):
		text, name := DecodeText(body, contentType)
		return []byte(p.rewriter.CSS(text, pageURL)), mediaType + "; charset=utf-8", name, true

	case strings.Contains(mediaType, "javascript"), strings.Contains(mediaType, "json"):
		text, name := DecodeText(body, contentType)
		return []byte(text), mediaType + "; charset=utf-8", name, false
	}

	return body, contentType, "", false
}

// validateTarget requires an absolute http(s) URL with a host
func validateTarget(raw string) (*url.URL, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, errors.New("missing url parameter")
	}
	target, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("invalid url %q: scheme and host are required", raw)
	}
	if target.Scheme != "http" && target.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", target.Scheme)
	}
	return target, nil
}

// forwardHeaders copies the end-to-end request headers and fills in browser
// defaults the caller did not set
func forwardHeaders(in http.Header) http.Header {
	out := make(http.Header, len(in))
	connectionScoped := connectionTokens(in)
	for name, values := range in {
		canonical := http.CanonicalHeaderKey(name)
		if hopHeaders[canonical] || droppedRequestHeaders[canonical] || connectionScoped[canonical] {
			continue
		}
		out[canonical] = append([]string(nil), values...)
	}

	for name, value := range map[string]string{
		"User-Agent":      browserUserAgent,
		"Accept":          browserAccept,
		"Accept-Language": "en-US,en;q=0.9",
		"Cache-Control":   "no-cache",
		"Pragma":          "no-cache",
	} {
		if out.Get(name) == "" {
			out.Set(name, value)
		}
	}
	return out
}

// connectionTokens returns the headers a Connection header marks as
// hop-by-hop
func connectionTokens(h http.Header) map[string]bool {
	tokens := make(map[string]bool)
	for _, value := range h.Values("Connection") {
		for _, token := range strings.Split(value, ",") {
			if token = strings.TrimSpace(token); token != "" {
				tokens[http.CanonicalHeaderKey(token)] = true
			}
		}
	}
	return tokens
}

// copyResponseHeaders copies end-to-end headers. Cookies lose their Domain
// so the browser stores them for the proxy host.
func copyResponseHeaders(dst, src http.Header) {
	connectionScoped := connectionTokens(src)
	for name, values := range src {
		canonical := http.CanonicalHeaderKey(name)
		if hopHeaders[canonical] || droppedResponseHeaders[canonical] || connectionScoped[canonical] {
			continue
		}
		for _, value := range values {
			if canonical == "Set-Cookie" {
				value = stripCookieDomain(value)
			}
			dst.Add(canonical, value)
		}
	}
}

func stripCookieDomain(value string) string {
	cookie, err := http.ParseSetCookie(value)
	if err != nil {
		return value
	}
	cookie.Domain = ""
	if s := cookie.String(); s != "" {
		return s
	}
	return value
}

// guessContentType uses the URL extension, then the body's magic numbers
func guessContentType(target *url.URL, body []byte) string {
	if ext := path.Ext(target.Path); ext != "" {
		if ct := mime.TypeByExtension(ext); ct != "" {
			return ct
		}
	}
	if len(body) == 0 {
		return "application/octet-stream"
	}
	return mimetype.Detect(body).String()
}

func (p *Proxy) fail(c *gin.Context, tx *Transaction, status int, err error) {
	tx.Status = status
	tx.Error = err.Error()
	tx.Duration = time.Since(tx.Timestamp)
	p.addLog(*tx)

	p.logger.Warn("proxy request failed",
		zap.String("method", tx.Method),
		zap.String("url", tx.URL),
		zap.Int("status", status),
		zap.Error(err),
	)
	c.Data(status, "text/plain; charset=utf-8", []byte(err.Error()))
}

// getNextID returns the next log ID and increments the counter
func (p *Proxy) getNextID() int {
	p.logMutex.Lock()
	defer p.logMutex.Unlock()
	id := p.nextID
	p.nextID++
	return id
}

// addLog adds a log entry and maintains the maximum log limit
func (p *Proxy) addLog(tx Transaction) {
	p.logMutex.Lock()
	defer p.logMutex.Unlock()

	p.logs = append(p.logs, tx)
	if len(p.logs) > p.maxLogs {
		p.logs = p.logs[len(p.logs)-p.maxLogs:]
	}
}

// Logs returns a copy of the recorded transactions, oldest first
func (p *Proxy) Logs() []Transaction {
	p.logMutex.RLock()
	defer p.logMutex.RUnlock()

	logs := make([]Transaction, len(p.logs))
	copy(logs, p.logs)
	return logs
}

// ClearLogs drops every recorded transaction
func (p *Proxy) ClearLogs() {
	p.logMutex.Lock()
	defer p.logMutex.Unlock()
	p.logs = nil
}

// HandleLogs serves the transaction log as JSON
func (p *Proxy) HandleLogs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"transactions": p.Logs()})
}

// HandleClearLogs empties the transaction log
func (p *Proxy) HandleClearLogs(c *gin.Context) {
	p.ClearLogs()
	c.Status(http.StatusNoContent)
}
