// Package pipeline builds proxied requests, sends them, and turns responses
// into render outcomes.
package pipeline

import (
	"net/url"
	"strings"

	"github.com/studiowebux/proxyview/internal/config"
	"github.com/studiowebux/proxyview/internal/headers"
)

// Methods offered by the form, in cycling order
var Methods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}

// bodyMethods are the only methods that carry a request body.
// The match is case-sensitive.
var bodyMethods = map[string]bool{
	"POST": true,
	"PUT":  true,
}

// Descriptor is a fully assembled outgoing request
type Descriptor struct {
	TargetURL  string          `json:"target_url" yaml:"target_url"`
	ProxiedURL string          `json:"proxied_url" yaml:"proxied_url"`
	Method     string          `json:"method" yaml:"method"`
	Headers    headers.Headers `json:"-" yaml:"-"`
	Body       string          `json:"body,omitempty" yaml:"body,omitempty"`
	HasBody    bool            `json:"has_body" yaml:"has_body"`
}

// AllowsBody reports whether method carries a body
func AllowsBody(method string) bool {
	return bodyMethods[method]
}

// ProxyURL places target, percent-encoded like encodeURIComponent, into the
// {url} placeholder of template. A template without the placeholder gets the
// encoded URL appended.
func ProxyURL(template, target string) string {
	encoded := EncodeURIComponent(target)
	if !strings.Contains(template, config.URLPlaceholder) {
		return template + encoded
	}
	return strings.Replace(template, config.URLPlaceholder, encoded, 1)
}

// EncodeURIComponent escapes everything except A-Z a-z 0-9 - _ . ! ~ * ' ( )
func EncodeURIComponent(s string) string {
	escaped := url.QueryEscape(s)
	// QueryEscape differs from encodeURIComponent on space and a few marks
	return uriComponentFixer.Replace(escaped)
}

var uriComponentFixer = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// BuildDescriptor assembles a request from raw form values. rawHeaders is
// parsed line by line; body is attached only for POST and PUT.
func BuildDescriptor(target, method, rawHeaders, body, template string) Descriptor {
	if method == "" {
		method = "GET"
	}

	d := Descriptor{
		TargetURL:  target,
		ProxiedURL: ProxyURL(template, target),
		Method:     method,
		Headers:    headers.Parse(rawHeaders),
	}

	if AllowsBody(method) {
		d.Body = body
		d.HasBody = true
	}

	return d
}
