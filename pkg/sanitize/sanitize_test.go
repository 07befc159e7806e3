package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectXSS(t *testing.T) {
	cases := map[string]bool{
		"Patient prefers mornings":         false,
		"<script>alert(1)</script>":        true,
		"click javascript:alert(1)":        true,
		`<img src=x onerror="alert(1)">`:   true,
		"<iframe src='//evil'>":            true,
		"eval (document.cookie)":           true,
		"width: expression(alert(1))":      true,
		"Bring exams from 2024 & referral": false,
	}
	for input, want := range cases {
		assert.Equal(t, want, DetectXSS(input), input)
	}
}

func TestTextStripsMarkup(t *testing.T) {
	assert.Equal(t, "Hello", Text("  <script>alert(1)</script>Hello "))
	assert.Equal(t, "hi", Text(`<b onclick="x()">hi</b>`))
	assert.Equal(t, "alert(1)", Text("javascript:alert(1)"))
	assert.Equal(t, "Room 3 & 4", Text("Room 3 & 4"))
}

func TestTextTruncates(t *testing.T) {
	out := Text(strings.Repeat("á", MaxLength+10))
	assert.Equal(t, MaxLength, len([]rune(out)))
}

func TestOptionalText(t *testing.T) {
	assert.Nil(t, OptionalText(nil))
	blank := "   "
	assert.Nil(t, OptionalText(&blank))
	note := " call before "
	assert.Equal(t, "call before", *OptionalText(&note))
}
