package openai

import "testing"

func TestCanStream(t *testing.T) {
	p, err := New("test-key", "", "gpt-4o")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	tests := []struct {
		model string
		want  bool
	}{
		{"gpt-4o", true},
		{"gpt-4o-mini", true},
		{"dall-e-3", false},
		{"gpt-image-1", false},
		{"", true}, // falls back to the provider default, gpt-4o
	}
	for _, tt := range tests {
		if got := p.CanStream(tt.model); got != tt.want {
			t.Errorf("CanStream(%q) = %v, want %v", tt.model, got, tt.want)
		}
	}
}
