package llm

import "testing"

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "bare json",
			input: `{"summary": "ok"}`,
			want:  `{"summary": "ok"}`,
		},
		{
			name:  "json fence",
			input: "```json\n{\"summary\": \"ok\"}\n```",
			want:  `{"summary": "ok"}`,
		},
		{
			name:  "plain fence",
			input: "```\n{\"summary\": \"ok\"}\n```",
			want:  `{"summary": "ok"}`,
		},
		{
			name:  "prose around object",
			input: "Here is the plan:\n{\"summary\": \"ok\"}\nLet me know!",
			want:  `{"summary": "ok"}`,
		},
		{
			name:  "nested braces",
			input: `prefix {"a": {"b": 1}} suffix`,
			want:  `{"a": {"b": 1}}`,
		},
		{
			name:  "array payload",
			input: `see: [1, 2, 3]`,
			want:  `[1, 2, 3]`,
		},
		{
			name:  "no json at all",
			input: "sorry, I cannot do that",
			want:  "sorry, I cannot do that",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractJSON(tt.input); got != tt.want {
				t.Errorf("extractJSON(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
