package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// jsonMember is one object member; objects keep first-seen key order
type jsonMember struct {
	key   string
	value any
}

type jsonObject []jsonMember

// Reformat parses body and writes it back with two-space indentation, the
// way JSON.stringify(JSON.parse(body), null, 2) does: escapes are decoded,
// numbers are normalised and a repeated key keeps its first position with
// the last value.
func Reformat(body string) (string, error) {
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()

	value, err := decodeValue(dec)
	if err != nil {
		return "", err
	}
	if _, err := dec.Token(); err != io.EOF {
		if err == nil {
			err = errors.New("invalid character after top-level value")
		}
		return "", err
	}

	var buf bytes.Buffer
	writeValue(&buf, value, "")
	return buf.String(), nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err == io.EOF {
		return nil, io.ErrUnexpectedEOF
	}
	if err != nil {
		return nil, err
	}

	switch tok := tok.(type) {
	case json.Delim:
		switch tok {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		}
		return nil, fmt.Errorf("unexpected %q", rune(tok))
	default:
		return tok, nil
	}
}

func decodeObject(dec *json.Decoder) (jsonObject, error) {
	obj := jsonObject{}
	index := make(map[string]int)

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("object key must be a string, got %v", tok)
		}
		value, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		if i, seen := index[key]; seen {
			obj[i].value = value
			continue
		}
		index[key] = len(obj)
		obj = append(obj, jsonMember{key: key, value: value})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	return orderIndexKeys(obj), nil
}

func decodeArray(dec *json.Decoder) ([]any, error) {
	arr := []any{}
	for dec.More() {
		value, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		arr = append(arr, value)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return arr, nil
}

// orderIndexKeys moves array-index keys ("0", "17") to the front in numeric
// order, matching JavaScript's property enumeration order
func orderIndexKeys(obj jsonObject) jsonObject {
	var numeric, named jsonObject
	for _, m := range obj {
		if _, ok := arrayIndex(m.key); ok {
			numeric = append(numeric, m)
		} else {
			named = append(named, m)
		}
	}
	if len(numeric) == 0 {
		return obj
	}

	sort.SliceStable(numeric, func(i, j int) bool {
		a, _ := arrayIndex(numeric[i].key)
		b, _ := arrayIndex(numeric[j].key)
		return a < b
	})
	return append(numeric, named...)
}

func arrayIndex(key string) (uint64, bool) {
	if key == "" || (len(key) > 1 && key[0] == '0') {
		return 0, false
	}
	n, err := strconv.ParseUint(key, 10, 32)
	if err != nil || n == math.MaxUint32 {
		return 0, false
	}
	return n, true
}

func writeValue(buf *bytes.Buffer, value any, indent string) {
	switch v := value.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		buf.WriteString(strconv.FormatBool(v))
	case json.Number:
		buf.WriteString(formatNumber(v))
	case string:
		writeString(buf, v)
	case []any:
		if len(v) == 0 {
			buf.WriteString("[]")
			return
		}
		inner := indent + "  "
		buf.WriteString("[\n")
		for i, item := range v {
			buf.WriteString(inner)
			writeValue(buf, item, inner)
			if i < len(v)-1 {
				buf.WriteByte(',')
			}
			buf.WriteByte('\n')
		}
		buf.WriteString(indent + "]")
	case jsonObject:
		if len(v) == 0 {
			buf.WriteString("{}")
			return
		}
		inner := indent + "  "
		buf.WriteString("{\n")
		for i, m := range v {
			buf.WriteString(inner)
			writeString(buf, m.key)
			buf.WriteString(": ")
			writeValue(buf, m.value, inner)
			if i < len(v)-1 {
				buf.WriteByte(',')
			}
			buf.WriteByte('\n')
		}
		buf.WriteString(indent + "}")
	}
}

// formatNumber prints a number like JavaScript's Number#toString
func formatNumber(n json.Number) string {
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil && (math.IsInf(f, 0) || math.IsNaN(f)) {
		return "null"
	}
	if f == 0 {
		return "0"
	}

	sign := ""
	if f < 0 {
		sign = "-"
		f = -f
	}

	// Shortest round-trip digits as d.ddde±x
	mantissa, expPart, _ := strings.Cut(strconv.FormatFloat(f, 'e', -1, 64), "e")
	digits := strings.Replace(mantissa, ".", "", 1)
	exp, _ := strconv.Atoi(expPart)
	k := len(digits)
	point := exp + 1

	switch {
	case k <= point && point <= 21:
		return sign + digits + strings.Repeat("0", point-k)
	case 0 < point && point <= 21:
		return sign + digits[:point] + "." + digits[point:]
	case -6 < point && point <= 0:
		return sign + "0." + strings.Repeat("0", -point) + digits
	}

	e := point - 1
	expSign := "+"
	if e < 0 {
		expSign = "-"
		e = -e
	}
	out := digits[:1]
	if k > 1 {
		out += "." + digits[1:]
	}
	return sign + out + "e" + expSign + strconv.Itoa(e)
}

// writeString quotes s the way JSON.stringify does: only quote, backslash
// and control characters are escaped
func writeString(buf *bytes.Buffer, s string) {
	const hex = "0123456789abcdef"

	buf.WriteByte('"')
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size

		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if r < 0x20 {
				buf.WriteString(`\u00`)
				buf.WriteByte(hex[r>>4])
				buf.WriteByte(hex[r&0xf])
				continue
			}
			buf.WriteRune(r)
		}
	}
	buf.WriteByte('"')
}
