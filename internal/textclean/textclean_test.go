package textclean

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: "Hello there", want: "Hello there"},
		{name: "citations", input: "Open daily [1] until 8pm【4:0†source】[^2]", want: "Open daily until 8pm"},
		{name: "emphasis", input: "**Fresh** bread, *warm* and `crispy` ~~stale~~", want: "Fresh bread, warm and crispy stale"},
		{name: "link", input: "See [our menu](https://example.com/menu) today", want: "See our menu (https://example.com/menu) today"},
		{name: "heading", input: "## Hours\nMon-Fri", want: "Hours Mon-Fri"},
		{name: "whitespace", input: "  a \n\n b\t\tc  ", want: "a b c"},
		{name: "empty", input: "   ", want: DefaultGreeting},
		{name: "only markers", input: "** [1] **", want: DefaultGreeting},
		{name: "nested markers", input: "[*1*]", want: DefaultGreeting},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.input))
		})
	}
}

func TestSanitizeTruncates(t *testing.T) {
	long := strings.Repeat("word ", 2000)
	got := Sanitize(long)
	assert.Equal(t, MaxLength, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, "…"))
}

func TestSanitizeIsIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"not json at all",
		"**bold** and [link](http://x.y) [3]",
		"[*1*] leftover",
		"# Title\n\n* item one\n* item two",
		"```json\n{\"type\":\"chat\"}\n```",
		"[[1]](http://a.b)",
		"__init__ ~~~ `` ** *",
		strings.Repeat("ab *c* ", 900),
		strings.Repeat("é", MaxLength+10),
		strings.Repeat("x ", MaxLength),
	}
	for _, in := range inputs {
		once := Sanitize(in)
		assert.Equal(t, once, Sanitize(once), "input %q", truncateForMessage(in))
	}
}

func TestStripLegacyTags(t *testing.T) {
	assert.Equal(t, "Sure, posting now.", StripLegacyTags("Sure, posting now. [ACTION:generate_seo_post]"))
	assert.Equal(t, "Status below", StripLegacyTags("[SYSTEM_QUERY: full_status] Status below"))
	assert.Equal(t, "keep [this]", StripLegacyTags("keep [this]"))
}

func truncateForMessage(s string) string {
	if len(s) > 40 {
		return s[:40]
	}
	return s
}
