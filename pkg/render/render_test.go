package render

import (
	"context"
	"testing"
	"time"

	"github.com/LuyGGG/MonoMind/pkg/dom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://example.com/page", false},
		{"http://localhost:8080", false},
		{"file:///tmp/page.html", false},
		{"https://", true},
		{"ftp://example.com", true},
		{"example.com", true},
		{"://bad", true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOptionsDefaults(t *testing.T) {
	o, err := Options{}.withDefaults()
	require.NoError(t, err)
	assert.Equal(t, DefaultWaitUntil, o.WaitUntil)
	assert.Equal(t, DefaultTimeout, o.Timeout)

	o, err = Options{WaitUntil: "networkidle", Timeout: time.Second}.withDefaults()
	require.NoError(t, err)
	assert.Equal(t, "networkidle", o.WaitUntil)
	assert.Equal(t, time.Second, o.Timeout)

	_, err = Options{WaitUntil: "whenever"}.withDefaults()
	assert.Error(t, err)
}

func TestFetch_RejectsBadInputBeforeLaunching(t *testing.T) {
	_, err := Fetch(context.Background(), "gopher://example.com", Options{})
	assert.ErrorContains(t, err, "unsupported url scheme")

	_, err = Fetch(context.Background(), "https://example.com", Options{WaitUntil: "never"})
	assert.ErrorContains(t, err, "invalid wait_until")
}

func TestMarkHiddenScript_UsesSelectorMarkers(t *testing.T) {
	assert.Contains(t, markHiddenScript, "'"+dom.HiddenAttr+"'")
	assert.Contains(t, markHiddenScript, "'"+dom.VisibilityAttr+"'")
	assert.Contains(t, markHiddenScript, "getComputedStyle")
}
