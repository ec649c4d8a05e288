package proxy

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/studiowebux/proxyview/internal/pipeline"
	"golang.org/x/net/html"
)

// urlAttributes lists the attributes that can carry a fetchable URL, by tag
var urlAttributes = map[string][]string{
	"a":      {"href"},
	"img":    {"src", "srcset"},
	"link":   {"href"},
	"script": {"src"},
	"iframe": {"src"},
	"form":   {"action"},
	"video":  {"src", "poster"},
	"source": {"src", "srcset"},
	"object": {"data"},
	"embed":  {"src"},
	"audio":  {"src"},
}

// ogProperties are the meta properties whose content is a URL
var ogProperties = map[string]bool{
	"og:image": true,
	"og:url":   true,
	"og:video": true,
}

var (
	cssImportPattern = regexp.MustCompile(`@import\s+['"]([^'"]+)['"]`)
	cssURLPattern    = regexp.MustCompile(`url\(\s*["']?([^)"']+)["']?\s*\)`)
)

// Rewriter points URLs found in pages and stylesheets back at the proxy
// route, so that following a link or loading an asset stays proxied.
type Rewriter struct {
	// Route is the proxy path, "/proxy" by default
	Route string
}

// Link returns the proxied form of ref resolved against base. Fragments and
// data:, mailto:, tel: or javascript: references are returned unchanged.
func (r Rewriter) Link(ref string, base *url.URL) string {
	trimmed := strings.TrimSpace(ref)
	if trimmed == "" || skipReference(trimmed) {
		return ref
	}

	target := resolve(trimmed, base)
	if target == "" {
		return ref
	}
	return r.route() + "?url=" + pipeline.EncodeURIComponent(target)
}

func (r Rewriter) route() string {
	if r.Route == "" {
		return "/proxy"
	}
	return r.Route
}

func skipReference(ref string) bool {
	if strings.HasPrefix(ref, "#") {
		return true
	}
	lower := strings.ToLower(ref)
	for _, prefix := range []string{"data:", "mailto:", "tel:", "javascript:"} {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// resolve makes ref absolute. Protocol-relative references take the scheme
// of base.
func resolve(ref string, base *url.URL) string {
	parsed, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if base == nil {
		if !parsed.IsAbs() {
			return ""
		}
		return parsed.String()
	}
	return base.ResolveReference(parsed).String()
}

// CSS rewrites @import rules and url() references
func (r Rewriter) CSS(css string, base *url.URL) string {
	if css == "" {
		return css
	}

	css = cssImportPattern.ReplaceAllStringFunc(css, func(match string) string {
		ref := cssImportPattern.FindStringSubmatch(match)[1]
		return fmt.Sprintf(`@import "%s"`, r.Link(ref, base))
	})

	return cssURLPattern.ReplaceAllStringFunc(css, func(match string) string {
		ref := strings.TrimSpace(cssURLPattern.FindStringSubmatch(match)[1])
		if strings.HasPrefix(strings.ToLower(ref), "data:") {
			return match
		}
		return "url(" + r.Link(ref, base) + ")"
	})
}

// srcset rewrites each candidate URL of a srcset list, keeping descriptors
func (r Rewriter) srcset(value string, base *url.URL) string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}
		fields[0] = r.Link(fields[0], base)
		out = append(out, strings.Join(fields, " "))
	}
	return strings.Join(out, ", ")
}

// HTML rewrites every URL-bearing attribute, inline styles, <style> blocks,
// meta refresh targets and the <base> element of page, then records the
// original page URL in window.proxyBaseUrl for scripts.
func (r Rewriter) HTML(page string, pageURL *url.URL) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	base := pageURL

	doc.Find("meta[http-equiv]").Each(func(_ int, s *goquery.Selection) {
		equiv, _ := s.Attr("http-equiv")
		if !strings.EqualFold(equiv, "refresh") {
			return
		}
		content, _ := s.Attr("content")
		idx := strings.Index(strings.ToLower(content), "url=")
		if idx < 0 {
			return
		}
		target := strings.Trim(content[idx+4:], `'" `)
		s.SetAttr("content", content[:idx+4]+r.Link(target, base))
	})

	if baseTag := doc.Find("base[href]").First(); baseTag.Length() > 0 {
		href, _ := baseTag.Attr("href")
		if resolved, err := url.Parse(resolve(href, base)); err == nil && resolved.IsAbs() {
			base = resolved
			baseTag.SetAttr("href", r.Link(resolved.String(), nil))
		}
	}

	for tag, attrs := range urlAttributes {
		doc.Find(tag).Each(func(_ int, s *goquery.Selection) {
			for _, attr := range attrs {
				value, ok := s.Attr(attr)
				if !ok || value == "" {
					continue
				}
				if attr == "srcset" {
					s.SetAttr(attr, r.srcset(value, base))
					continue
				}
				s.SetAttr(attr, r.Link(value, base))
			}
		})
	}

	doc.Find("meta[property][content]").Each(func(_ int, s *goquery.Selection) {
		property, _ := s.Attr("property")
		if !ogProperties[property] {
			return
		}
		content, _ := s.Attr("content")
		s.SetAttr("content", r.Link(content, base))
	})

	doc.Find("[style]").Each(func(_ int, s *goquery.Selection) {
		style, _ := s.Attr("style")
		s.SetAttr("style", r.CSS(style, base))
	})

	// <style> is raw text; replace the node so CSS is not entity-escaped
	doc.Find("style").Each(func(_ int, s *goquery.Selection) {
		css := r.CSS(s.Text(), base)
		for _, n := range s.Nodes {
			for child := n.FirstChild; child != nil; {
				next := child.NextSibling
				n.RemoveChild(child)
				child = next
			}
			n.AppendChild(&html.Node{Type: html.TextNode, Data: css})
		}
	})

	original, _ := json.Marshal(pageURL.String())
	doc.Find("head").First().PrependHtml(fmt.Sprintf("<script>window.proxyBaseUrl = %s;</script>", original))

	return doc.Html()
}
