package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSegment(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "illegal chars replaced", input: `a/b:c"d<e>f|g?h*i\j`, want: "a_b_c_d_e_f_g_h_i_j"},
		{name: "control chars replaced", input: "a\tb\nc", want: "a_b_c"},
		{name: "surrounding whitespace trimmed", input: "  hello  ", want: "hello"},
		{name: "trailing and leading dots trimmed", input: "..hello..", want: "hello"},
		{name: "empty stays empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Segment(tt.input))
		})
	}
}

func TestSegmentIsIdempotent(t *testing.T) {
	inputs := []string{"a/b:c", "  ..weird.. ", "plain title", "", "...", "C:\\Users\\x"}
	for _, in := range inputs {
		once := Segment(in)
		twice := Segment(once)
		assert.Equal(t, once, twice, "Segment(Segment(%q)) must equal Segment(%q)", in, in)
	}
}
