package normalize

import (
	"reflect"
	"testing"
)

func TestQueryParam(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"intro-to-law", "intro-to-law"},
		{"  trimmed  ", "trimmed"},
		{"", ""},
		{"   ", ""},
		{"UPPERCASE", "UPPERCASE"}, // preserves case
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := QueryParam(tt.input); got != tt.want {
				t.Errorf("QueryParam(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSlug(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Senior Counsel", "senior-counsel"},
		{"  Senior   Counsel  ", "senior-counsel"},
		{"Senior Counsel (Torts)", "senior-counsel-torts"},
		{"Research -- Associate", "research-associate"},
		{"--leading and trailing--", "leading-and-trailing"},
		{"C++ & Go Developer 2025", "c-go-developer-2025"},
		{"", ""},
		{"!!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Slug(tt.input); got != tt.want {
				t.Errorf("Slug(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestIDList(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"a,b,c", []string{"a", "b", "c"}},
		{" a , b ,, c ", []string{"a", "b", "c"}},
		{"a,a,b", []string{"a", "b"}},
		{"", []string{}},
		{" , ", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := IDList(tt.input); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("IDList(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
