package completion

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnescapeUnicode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "no escapes", in: `{"answer":"plain"}`, want: `{"answer":"plain"}`},
		{name: "japanese", in: `{"answer":"\u3053\u3093\u306b\u3061\u306f"}`, want: `{"answer":"こんにちは"}`},
		{name: "uppercase hex", in: `\u00E9`, want: "é"},
		{name: "surrogate pair", in: `\ud83d\ude00!`, want: "😀!"},
		{name: "lone high surrogate", in: `\ud83d x`, want: `\ud83d x`},
		{name: "quote kept", in: `"a\u0022b"`, want: `"a\u0022b"`},
		{name: "backslash kept", in: `\u005c`, want: `\u005c`},
		{name: "control kept", in: `line\u000abreak`, want: `line\u000abreak`},
		{name: "escaped backslash kept", in: `C:\\u3042dir`, want: `C:\\u3042dir`},
		{name: "truncated escape", in: `abc\u30`, want: `abc\u30`},
		{name: "invalid hex", in: `\uZZZZ`, want: `\uZZZZ`},
		{name: "other escapes untouched", in: `a\nb\"c\u3042`, want: `a\nb\"cあ`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UnescapeUnicode(tt.in))
		})
	}
}

func TestUnescapeUnicode_KeepsJSONValid(t *testing.T) {
	in := `{"answer":"say \u0022hi\u0022 \u3042\nnext \\u3042"}`

	out := UnescapeUnicode(in)

	var doc struct {
		Answer string `json:"answer"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "say \"hi\" あ\nnext \\u3042", doc.Answer)
}
