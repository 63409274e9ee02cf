package core

import (
	"reflect"
	"testing"
)

// ----------------------------------------------------------------------------
// CleanCell Tests
// ----------------------------------------------------------------------------

func TestCleanCell(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain value", input: "hello", want: "hello"},
		{name: "surrounding whitespace", input: "  hello  ", want: "hello"},
		{name: "utf8 bom", input: "\uFEFForms", want: "orms"},
		{name: "excel formula wrapper", input: `="READING.G3"`, want: "READING.G3"},
		{name: "empty", input: "", want: ""},
		{name: "only whitespace", input: "   ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanCell(tt.input); got != tt.want {
				t.Errorf("CleanCell(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// SplitPipe Tests
// ----------------------------------------------------------------------------

func TestSplitPipe(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "three parts", input: "Blue|Red|Green", want: []string{"Blue", "Red", "Green"}},
		{name: "parts are trimmed", input: " a | b |c ", want: []string{"a", "b", "c"}},
		{name: "empty parts dropped", input: "a||b|", want: []string{"a", "b"}},
		{name: "single value", input: "only", want: []string{"only"}},
		{name: "empty input", input: "", want: nil},
		{name: "whitespace only", input: "   ", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SplitPipe(tt.input); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitPipe(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// CoerceValue Tests
// ----------------------------------------------------------------------------

func TestCoerceValue(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  any
	}{
		{name: "pipe list", input: "comprehension|fluency", want: []string{"comprehension", "fluency"}},
		{name: "integer", input: "40", want: 40},
		{name: "negative integer", input: "-7", want: -7},
		{name: "float", input: "3.5", want: 3.5},
		{name: "bool true", input: "true", want: true},
		{name: "bool false mixed case", input: "False", want: false},
		{name: "plain text", input: "Reading Comprehension", want: "Reading Comprehension"},
		{name: "version-like text stays text", input: "1.2.3", want: "1.2.3"},
		{name: "leading zero is still int", input: "007", want: 7},
		{name: "empty stays empty string", input: "", want: ""},
		{name: "trimmed before coercion", input: " 12 ", want: 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CoerceValue(tt.input); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("CoerceValue(%q) = %v (%T), want %v (%T)", tt.input, got, got, tt.want, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// parseBoolish Tests
// ----------------------------------------------------------------------------

func TestParseBoolish(t *testing.T) {
	tests := []struct {
		input   string
		wantVal bool
		wantOK  bool
	}{
		{"true", true, true},
		{"TRUE", true, true},
		{"yes", true, true},
		{"y", true, true},
		{"1", true, true},
		{"false", false, true},
		{"No", false, true},
		{"0", false, true},
		{"", false, false},
		{"maybe", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			val, ok := parseBoolish(tt.input)
			if val != tt.wantVal || ok != tt.wantOK {
				t.Errorf("parseBoolish(%q) = (%v, %v), want (%v, %v)",
					tt.input, val, ok, tt.wantVal, tt.wantOK)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// optionLabel / countWords Tests
// ----------------------------------------------------------------------------

func TestOptionLabel(t *testing.T) {
	tests := []struct {
		index int
		want  string
	}{
		{0, "A"},
		{1, "B"},
		{25, "Z"},
		{26, "AA"},
		{27, "AB"},
	}

	for _, tt := range tests {
		if got := optionLabel(tt.index); got != tt.want {
			t.Errorf("optionLabel(%d) = %q, want %q", tt.index, got, tt.want)
		}
	}
}

func TestCountWords(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{name: "simple sentence", text: "The fox ran across the field", want: 6},
		{name: "extra whitespace", text: "  one   two\tthree\n", want: 3},
		{name: "empty", text: "", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := countWords(tt.text); got != tt.want {
				t.Errorf("countWords(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}
