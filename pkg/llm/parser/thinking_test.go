package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func collect(p *ThinkingParser, chunks []string) (thinking, message string) {
	for _, c := range chunks {
		th, msg := p.Parse(c)
		if th != nil {
			thinking += th.Content
		}
		if msg != nil {
			message += msg.Content
		}
	}
	th, msg := p.Flush()
	if th != nil {
		thinking += th.Content
	}
	if msg != nil {
		message += msg.Content
	}
	return thinking, message
}

func TestThinkingParser_SplitTags(t *testing.T) {
	tests := []struct {
		name         string
		chunks       []string
		wantThinking string
		wantMessage  string
	}{
		{
			name:         "plain answer",
			chunks:       []string{"I dislike ", "this."},
			wantMessage:  "I dislike this.",
		},
		{
			name:         "thinking block then answer",
			chunks:       []string{"<thinking>", "soften it", "</thinking>", "I dislike this."},
			wantThinking: "soften it",
			wantMessage:  "I dislike this.",
		},
		{
			name:         "tag split across chunks",
			chunks:       []string{"<thi", "nk>plan</th", "ink>Calm text"},
			wantThinking: "plan",
			wantMessage:  "Calm text",
		},
		{
			name:         "comparison operators inside reasoning",
			chunks:       []string{"<thinking>", "if x>3 and i<10", "</thinking>", "done"},
			wantThinking: "if x>3 and i<10",
			wantMessage:  "done",
		},
		{
			name:        "unrelated tag passes through",
			chunks:      []string{"<b>bold</b>"},
			wantMessage: "<b>bold</b>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewThinkingParser()
			thinking, message := collect(p, tt.chunks)
			assert.Equal(t, tt.wantThinking, thinking)
			assert.Equal(t, tt.wantMessage, message)
			assert.False(t, p.IsInThinking())
		})
	}
}

func TestThinkingParser_MismatchedCloseTag(t *testing.T) {
	p := NewThinkingParser()
	thinking, message := collect(p, []string{"<think>a</thinking>b</think>c"})
	assert.Equal(t, "a</thinking>b", thinking)
	assert.Equal(t, "c", message)
}

func TestThinkingParser_Reset(t *testing.T) {
	p := NewThinkingParser()
	p.Parse("<thinking>half")
	assert.True(t, p.IsInThinking())

	p.Reset()
	assert.False(t, p.IsInThinking())
	_, msg := p.Parse("fresh")
	assert.Equal(t, "fresh", msg.Content)
}

func TestStripReasoning(t *testing.T) {
	assert.Equal(t, "I dislike this.", StripReasoning("<think>be gentle</think>I dislike this."))
	assert.Equal(t, "Before ", StripReasoning("Before <thinking>never closed"))
	assert.Equal(t, "", StripReasoning(""))
}
