package sanitizer

import "testing"

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "trim spaces",
			input: "  Abebe Kebede  ",
			want:  "Abebe Kebede",
		},
		{
			name:  "multiple spaces between words",
			input: "Abebe    Kebede",
			want:  "Abebe Kebede",
		},
		{
			name:  "tabs and newlines",
			input: "Abebe\t\nKebede",
			want:  "Abebe Kebede",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "only whitespace",
			input: "   \t\n  ",
			want:  "",
		},
		{
			name:  "zero-width characters dropped",
			input: "Abe\u200bbe\u00a0Kebede",
			want:  "Abebe Kebede",
		},
		{
			name:  "ethiopic script",
			input: " አበበ ከበደ ",
			want:  "አበበ ከበደ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeName(tt.input)
			if got != tt.want {
				t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSplitFullName(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantFirst string
		wantLast  string
	}{
		{"two tokens", "Abebe Kebede", "Abebe", "Kebede"},
		{"remainder joined as last name", "Abebe Kebede Tesfaye", "Abebe", "Kebede Tesfaye"},
		{"single token", "Abebe", "Abebe", ""},
		{"extra whitespace", "  Abebe   Kebede  ", "Abebe", "Kebede"},
		{"empty", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, last := SplitFullName(tt.input)
			if first != tt.wantFirst || last != tt.wantLast {
				t.Errorf("SplitFullName(%q) = (%q, %q), want (%q, %q)", tt.input, first, last, tt.wantFirst, tt.wantLast)
			}
		})
	}
}
