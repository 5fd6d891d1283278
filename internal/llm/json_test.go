// File path: internal/llm/json_test.go
package llm

import "testing"

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`, false},
		{"fenced object", "```json\n{\"a\": 1}\n```", `{"a": 1}`, false},
		{"prose wrapped", `Here you go: {"a": {"b": 2}} hope that helps`, `{"a": {"b": 2}}`, false},
		{"array", `result: [1, 2, 3]`, `[1, 2, 3]`, false},
		{"array before object", `[{"a": 1}]`, `[{"a": 1}]`, false},
		{"no document", "sorry, I cannot do that", "", true},
		{"empty", "   ", "", true},
		{"unterminated", `{"a": 1`, "", true},
	}
	for _, tc := range cases {
		got, err := ExtractJSON(tc.input)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%s: expected error, got %q", tc.name, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}
