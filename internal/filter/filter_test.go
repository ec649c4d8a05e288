package filter

import (
	"testing"
)

func TestApply(t *testing.T) {
	body := `{"items":[{"name":"a","ok":true},{"name":"b","ok":false}]}`

	tests := []struct {
		name    string
		query   string
		want    string
		wantErr bool
	}{
		{"empty query", "", body, false},
		{"projection", "items[].name", "[\n  \"a\",\n  \"b\"\n]", false},
		{"filter", "items[?ok].name | [0]", `"a"`, false},
		{"missing", "nothing", "null", false},
		{"invalid expression", "items[", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(body, tt.query)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Apply failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestApplyInvalidJSON(t *testing.T) {
	if _, err := Apply("<html>", "a"); err == nil {
		t.Error("Expected error for non-JSON body")
	}
}

func TestIsValidJMESPath(t *testing.T) {
	if !IsValidJMESPath("a.b") {
		t.Error("Expected a.b to be valid")
	}
	if IsValidJMESPath("a[") {
		t.Error("Expected a[ to be invalid")
	}
}

func TestFuzzy(t *testing.T) {
	urls := []string{"https://github.com", "https://example.com/api", "https://gitlab.com"}

	all := Fuzzy(urls, "")
	if len(all) != 3 || all[2].Index != 2 {
		t.Errorf("Expected every entry in order, got %+v", all)
	}

	matches := Fuzzy(urls, "exapi")
	if len(matches) != 1 {
		t.Fatalf("Expected 1 match, got %d", len(matches))
	}
	if matches[0].Index != 1 || matches[0].Value != urls[1] {
		t.Errorf("Unexpected match %+v", matches[0])
	}

	if got := Fuzzy(urls, "zzz"); len(got) != 0 {
		t.Errorf("Expected no matches, got %+v", got)
	}
}
