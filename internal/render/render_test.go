package render

import (
	"encoding/json"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		contentType string
		want        Class
	}{
		{"text/html; charset=utf-8", ClassHTML},
		{"application/json", ClassJSON},
		{"application/json; charset=utf-8", ClassJSON},
		{"application/problem+json", ClassOther},
		{"text/plain", ClassOther},
		{"", ClassOther},
	}

	for _, tt := range tests {
		if got := Classify(tt.contentType); got != tt.want {
			t.Errorf("Classify(%q): expected %s, got %s", tt.contentType, tt.want, got)
		}
	}
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name        string
		toggles     Toggles
		contentType string
		want        Mode
	}{
		{"html frames", Toggles{}, "text/html", ModeFrame},
		{"html raw", Toggles{ForceRaw: true}, "text/html", ModeText},
		{"json text", Toggles{}, "application/json", ModeText},
		{"force frame overrides json", Toggles{ForceFrame: true}, "application/json", ModeFrame},
		{"force frame beats force raw", Toggles{ForceFrame: true, ForceRaw: true}, "text/html", ModeFrame},
		{"missing content type", Toggles{}, "", ModeText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Decide(tt.toggles, tt.contentType); got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestTextPrettyPrintsJSON(t *testing.T) {
	got, err := Text(Toggles{}, "application/json", `{"a":1}`)
	if err != nil {
		t.Fatalf("Text failed: %v", err)
	}
	want := "{\n  \"a\": 1\n}"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestTextRawKeepsJSONVerbatim(t *testing.T) {
	got, err := Text(Toggles{ForceRaw: true}, "application/json", `{"a":1}`)
	if err != nil {
		t.Fatalf("Text failed: %v", err)
	}
	if got != `{"a":1}` {
		t.Errorf("Expected verbatim body, got %q", got)
	}
}

func TestTextInvalidJSON(t *testing.T) {
	if _, err := Text(Toggles{}, "application/json", "{oops"); err == nil {
		t.Error("Expected error for invalid JSON")
	}
}

func TestTextOtherVerbatim(t *testing.T) {
	body := "  plain\ntext  "
	got, _ := Text(Toggles{}, "text/plain", body)
	if got != body {
		t.Errorf("Expected verbatim body, got %q", got)
	}
}

func TestOutcomeConstructors(t *testing.T) {
	if o := Frame("https://p/?u"); !o.IsFrame() || o.FrameURL != "https://p/?u" {
		t.Errorf("Unexpected frame outcome: %+v", o)
	}
	if o := TextOutcome("x"); o.IsFrame() || o.Text != "x" {
		t.Errorf("Unexpected text outcome: %+v", o)
	}
}

func TestTextReserializesJSON(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"decodes escapes", `{"a":"\u003cb\u003e \u00e9\/"}`, "{\n  \"a\": \"<b> é/\"\n}"},
		{"normalises numbers", `{"a":1.50}`, "{\n  \"a\": 1.5\n}"},
		{"last duplicate wins", `{"a":1,"a":2}`, "{\n  \"a\": 2\n}"},
		{"duplicate keeps first position", `{"a":1,"b":2,"a":3}`, "{\n  \"a\": 3,\n  \"b\": 2\n}"},
		{"keeps key order", `{"z":1,"a":2}`, "{\n  \"z\": 1,\n  \"a\": 2\n}"},
		{"index keys first", `{"b":1,"2":2,"1":3}`, "{\n  \"1\": 3,\n  \"2\": 2,\n  \"b\": 1\n}"},
		{"empty containers", `{"o":{},"l":[]}`, "{\n  \"o\": {},\n  \"l\": []\n}"},
		{"nested array", `[1,[true,null]]`, "[\n  1,\n  [\n    true,\n    null\n  ]\n]"},
		{"control characters", `"a\u0001\n"`, `"a\u0001\n"`},
		{"scalar top level", ` 42 `, "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Text(Toggles{}, "application/json", tt.body)
			if err != nil {
				t.Fatalf("Text failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0"},
		{"-0", "0"},
		{"1.0", "1"},
		{"100", "100"},
		{"-2.5", "-2.5"},
		{"1e21", "1e+21"},
		{"123456789012345678901", "123456789012345680000"},
		{"0.000001", "0.000001"},
		{"1.5e-7", "1.5e-7"},
		{"1e400", "null"},
	}

	for _, tt := range tests {
		if got := formatNumber(json.Number(tt.in)); got != tt.want {
			t.Errorf("formatNumber(%s): expected %s, got %s", tt.in, tt.want, got)
		}
	}
}

func TestTextRejectsTrailingData(t *testing.T) {
	for _, body := range []string{`{} 1`, ``, `{"a":}`} {
		if _, err := Text(Toggles{}, "application/json", body); err == nil {
			t.Errorf("Expected error for %q", body)
		}
	}
}
