package sqlutil

import "testing"

func TestContainsPattern(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"widget", "%widget%"},
		{"50%", `%50\%%`},
		{"a_b", `%a\_b%`},
		{`c:\tmp`, `%c:\\tmp%`},
		{"", "%%"},
	}

	for _, tt := range tests {
		if got := ContainsPattern(tt.input); got != tt.want {
			t.Errorf("ContainsPattern(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
