package locale

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNegotiator(t *testing.T) *Negotiator {
	t.Helper()
	n, err := NewNegotiator([]string{"en", "zh-CN"}, "en")
	require.NoError(t, err)
	return n
}

func setLang(t *testing.T, lang string) {
	t.Helper()
	t.Setenv("LC_ALL", "")
	t.Setenv("LC_MESSAGES", "")
	t.Setenv("LANG", lang)
}

func TestValidate(t *testing.T) {
	n := newNegotiator(t)

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "en", want: "en"},
		{in: "zh-CN", want: "zh-CN"},
		{in: "zh_CN", want: "zh-CN"},
		{in: "fr", wantErr: true},
		{in: "", wantErr: true},
		{in: "!!", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := n.Validate(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupported)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromEnv(t *testing.T) {
	n := newNegotiator(t)

	setLang(t, "zh_CN.UTF-8")
	assert.Equal(t, "zh-CN", n.FromEnv())

	setLang(t, "fr_FR.UTF-8")
	assert.Equal(t, "en", n.FromEnv())

	setLang(t, "C")
	assert.Equal(t, "en", n.FromEnv())

	setLang(t, "")
	assert.Equal(t, "en", n.FromEnv())
}

func TestResolvePrefersStoredLocale(t *testing.T) {
	n := newNegotiator(t)
	setLang(t, "en_US.UTF-8")

	assert.Equal(t, "zh-CN", n.Resolve("zh-CN"))
	assert.Equal(t, "en", n.Resolve(""))
	assert.Equal(t, "en", n.Resolve("klingon"))
}

func TestNegotiatorAddsFallback(t *testing.T) {
	n, err := NewNegotiator([]string{"zh-CN"}, "en")
	require.NoError(t, err)
	assert.Equal(t, []string{"en", "zh-CN"}, n.Supported())
	assert.Equal(t, "en", n.Default())

	_, err = NewNegotiator([]string{"??"}, "en")
	assert.Error(t, err)
}
