package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimate(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"a", 1},
		{"abcd", 1},
		{"abcde", 2},
		{"héllo wörld", 3},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, Estimate(tt.text))
		})
	}
}

func TestEstimateCounter(t *testing.T) {
	var c Counter = EstimateCounter{}
	assert.Equal(t, 3, c.Count("I hate this."))
}

func TestNewDefaultsEncoding(t *testing.T) {
	assert.Equal(t, DefaultEncoding, New("").encoding)
	assert.Equal(t, "p50k_base", New("p50k_base").encoding)
}

func TestCountEmptyDoesNotLoad(t *testing.T) {
	tk := New("")
	assert.Equal(t, 0, tk.Count(""))
	assert.Nil(t, tk.enc)
}
