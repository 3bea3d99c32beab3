package redact

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmail_Table(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "ASCII_local_gt_2", in: "foobar@example.com", want: "fo***@example.com"},
		{name: "ASCII_local_len_2", in: "ab@ex.com", want: "***@ex.com"},
		{name: "invalid_no_at", in: "no-at-here", want: "***"},
		{name: "invalid_multiple_at", in: "a@b@c", want: "***"},
		{name: "plus_tag", in: "abc.def+tag@EXAMPLE.org", want: "ab***@EXAMPLE.org"},
		{name: "empty_string", in: "", want: "***"},
		{name: "unicode_local_gt_2_runes", in: "юзер@пример.рф", want: "юз***@пример.рф"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, Email(tt.in))
		})
	}
}

func TestLiterals_TokenAndPassword(t *testing.T) {
	t.Parallel()

	require.Equal(t, "[REDACTED_TOKEN]", Token())
	require.Equal(t, "[REDACTED_PASSWORD]", Password())
}

// TestHeader_MasksSensitiveAndKeepsOriginal — маскирует Authorization/Cookie,
// прочие заголовки не трогает, исходный Header не модифицируется.
func TestHeader_MasksSensitiveAndKeepsOriginal(t *testing.T) {
	t.Parallel()

	h := http.Header{}
	h.Set("Authorization", "Bearer secret")
	h.Set("Cookie", "sid=1")
	h.Set("X-Request-Id", "rid-1")

	got := Header(h)

	require.Equal(t, Token(), got.Get("Authorization"))
	require.Equal(t, Token(), got.Get("Cookie"))
	require.Equal(t, "rid-1", got.Get("X-Request-Id"))
	require.Equal(t, "Bearer secret", h.Get("Authorization"))
}

func TestHeader_Nil(t *testing.T) {
	t.Parallel()

	require.NotNil(t, Header(nil))
}
