package llm

import "testing"

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"bare array", `[{"a":1}]`, `[{"a":1}]`},
		{"fenced json", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"fenced without language", "```\n[1,2]\n```", `[1,2]`},
		{"chatty preamble", "Sure, here is the result:\n{\"a\":1}\nHope that helps!", `{"a":1}`},
		{"whitespace", "  \n\t{\"a\":1}\n  ", `{"a":1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtractJSON(tc.in)
			if err != nil {
				t.Fatalf("ExtractJSON(%q): %v", tc.in, err)
			}
			if got != tc.want {
				t.Fatalf("ExtractJSON(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestExtractJSONNoPayload(t *testing.T) {
	for _, in := range []string{"", "no json here", "```\n```"} {
		if _, err := ExtractJSON(in); err == nil {
			t.Fatalf("ExtractJSON(%q): expected error", in)
		}
	}
}
