package proxy

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// sampleSize bounds how much of a body is inspected for its encoding
const sampleSize = 4096

// minConfidence is the chardet confidence (0-100) required to trust a guess
const minConfidence = 70

// DecodeText converts body to UTF-8. The encoding comes from, in order, the
// Content-Type charset, a BOM or <meta> declaration for HTML, UTF-8 when the
// bytes are valid UTF-8, and finally a statistical guess. Undecodable bytes
// become U+FFFD. The chosen encoding name is returned.
func DecodeText(body []byte, contentType string) (string, string) {
	name := detectCharset(body, contentType)
	if name == "utf-8" {
		return strings.ToValidUTF8(string(body), "\uFFFD"), name
	}

	enc, _ := charset.Lookup(name)
	if enc == nil {
		return strings.ToValidUTF8(string(body), "\uFFFD"), "utf-8"
	}
	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return strings.ToValidUTF8(string(body), "\uFFFD"), "utf-8"
	}
	return string(decoded), name
}

func detectCharset(body []byte, contentType string) string {
	sample := body
	if len(sample) > sampleSize {
		sample = sample[:sampleSize]
	}

	if name, ok := declaredCharset(contentType); ok && decodes(name, sample) {
		return name
	}

	if strings.Contains(strings.ToLower(contentType), "text/html") {
		// DetermineEncoding is only certain about a BOM here
		_, label, certain := charset.DetermineEncoding(sample, "")
		if !certain {
			label = metaCharset(sample)
		}
		if canonical, ok := canonicalName(label); ok && decodes(canonical, sample) {
			return canonical
		}
	}

	if len(sample) == 0 || utf8.Valid(trimPartialRune(sample)) {
		return "utf-8"
	}

	detector := chardet.NewTextDetector()
	if result, err := detector.DetectBest(sample); err == nil && result != nil && result.Confidence > minConfidence {
		if canonical, ok := canonicalName(result.Charset); ok {
			return canonical
		}
	}

	// windows-1252 decodes any byte sequence
	return "windows-1252"
}

// declaredCharset extracts the charset parameter of a Content-Type value
func declaredCharset(contentType string) (string, bool) {
	for _, param := range strings.Split(contentType, ";") {
		key, value, ok := strings.Cut(strings.TrimSpace(param), "=")
		if !ok || !strings.EqualFold(strings.TrimSpace(key), "charset") {
			continue
		}
		return canonicalName(strings.Trim(strings.TrimSpace(value), `"'`))
	}
	return "", false
}

// metaCharset returns the label of a <meta charset> or
// <meta http-equiv="Content-Type"> element in the sampled page
func metaCharset(sample []byte) string {
	z := html.NewTokenizer(bytes.NewReader(sample))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if string(name) != "meta" || !hasAttr {
				continue
			}
			var content string
			var isContentType bool
			for more := true; more; {
				var key, val []byte
				key, val, more = z.TagAttr()
				switch string(key) {
				case "charset":
					return strings.TrimSpace(string(val))
				case "http-equiv":
					isContentType = strings.EqualFold(strings.TrimSpace(string(val)), "content-type")
				case "content":
					content = string(val)
				}
			}
			if isContentType {
				if name, ok := declaredCharset(content); ok {
					return name
				}
			}
		}
	}
}

// canonicalName maps an encoding label to its WHATWG name
func canonicalName(label string) (string, bool) {
	enc, name := charset.Lookup(label)
	if enc == nil {
		return "", false
	}
	return name, true
}

// decodes reports whether sample is valid in the named encoding
func decodes(name string, sample []byte) bool {
	if name == "utf-8" {
		return utf8.Valid(trimPartialRune(sample))
	}
	enc, _ := charset.Lookup(name)
	if enc == nil {
		return false
	}
	decoded, err := enc.NewDecoder().Bytes(sample)
	if err != nil {
		return false
	}
	// the sample may end inside a multi-byte sequence
	text := strings.TrimSuffix(string(decoded), "\uFFFD")
	return !strings.ContainsRune(text, utf8.RuneError)
}

// trimPartialRune drops a multi-byte sequence cut off by sampling
func trimPartialRune(b []byte) []byte {
	for i := 0; i < utf8.UTFMax && i < len(b); i++ {
		r, size := utf8.DecodeLastRune(b[:len(b)-i])
		if r != utf8.RuneError || size != 1 {
			return b[:len(b)-i]
		}
	}
	return b
}
