package client

import (
	"testing"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		position NumberPosition
		want     float64
		wantErr  bool
	}{
		{"first of several", "between 7 and 12 items", FirstNumber, 7, false},
		{"last of several", "between 7 and 12 items", LastNumber, 12, false},
		{"negative", "delta is -3.5 today", FirstNumber, -3.5, false},
		{"single", "42", LastNumber, 42, false},
		{"none", "no digits here", FirstNumber, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Response{Text: tt.text}
			got, err := r.ParseNumber(tt.position)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseNumber: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseNumber = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResponseString(t *testing.T) {
	r := &Response{Text: "plain"}
	if r.String() != "plain" {
		t.Errorf("String() = %q", r.String())
	}
}
