// Package parser provides utilities for parsing structured content from LLM streams.
package parser

import (
	"strings"

	"github.com/LuyGGG/MonoMind/pkg/llm"
)

// reasoningTags are the opening tags models use to wrap reasoning output.
// The closing tag is derived by inserting a slash.
var reasoningTags = map[string]bool{
	"<thinking>":  true,
	"<think>":     true,
	"<reasoning>": true,
}

// ThinkingParser separates reasoning blocks from answer text in streamed content.
// It keeps state across chunks so tags split between chunks are still recognised.
type ThinkingParser struct {
	buffer    strings.Builder
	tagBuffer strings.Builder // potential tag text between '<' and '>'
	openTag   string          // reasoning tag currently open, empty outside reasoning
	inTag     bool
}

// NewThinkingParser creates a new thinking parser.
func NewThinkingParser() *ThinkingParser {
	return &ThinkingParser{}
}

// Parse processes a content chunk and returns the reasoning and answer parts
// found in it. Either result may be nil.
func (p *ThinkingParser) Parse(content string) (thinkingChunk, messageChunk *llm.StreamChunk) {
	if content == "" {
		return nil, nil
	}

	for _, ch := range content {
		switch {
		case ch == '<':
			// A second '<' means the first one did not start a tag
			if p.inTag {
				thinkingChunk, messageChunk = p.merge(thinkingChunk, messageChunk, p.flushTag())
			}
			thinkingChunk, messageChunk = p.merge(thinkingChunk, messageChunk, p.flushBuffer())
			p.inTag = true
			p.tagBuffer.Reset()
			p.tagBuffer.WriteRune(ch)

		case ch == '>' && p.inTag:
			p.tagBuffer.WriteRune(ch)
			tag := p.tagBuffer.String()
			p.tagBuffer.Reset()
			p.inTag = false

			if p.switchesMode(tag) {
				continue
			}
			thinkingChunk, messageChunk = p.merge(thinkingChunk, messageChunk, p.chunk(tag))

		case p.inTag:
			p.tagBuffer.WriteRune(ch)

		default:
			p.buffer.WriteRune(ch)
		}
	}

	return p.merge(thinkingChunk, messageChunk, p.flushBuffer())
}

// switchesMode consumes opening and closing reasoning tags.
func (p *ThinkingParser) switchesMode(tag string) bool {
	if p.openTag == "" && reasoningTags[tag] {
		p.openTag = tag
		return true
	}
	if p.openTag != "" && tag == "</"+p.openTag[1:] {
		p.openTag = ""
		return true
	}
	return false
}

func (p *ThinkingParser) flushTag() *llm.StreamChunk {
	if p.tagBuffer.Len() == 0 {
		return nil
	}
	text := p.tagBuffer.String()
	p.tagBuffer.Reset()
	return p.chunk(text)
}

func (p *ThinkingParser) flushBuffer() *llm.StreamChunk {
	if p.buffer.Len() == 0 {
		return nil
	}
	text := p.buffer.String()
	p.buffer.Reset()
	return p.chunk(text)
}

// chunk wraps text with the content type of the current mode.
func (p *ThinkingParser) chunk(text string) *llm.StreamChunk {
	if text == "" {
		return nil
	}
	if p.openTag != "" {
		return &llm.StreamChunk{Content: text, Type: llm.ContentTypeThinking}
	}
	return &llm.StreamChunk{Content: text, Type: llm.ContentTypeMessage}
}

// merge appends next onto the accumulated chunk of the same type.
func (p *ThinkingParser) merge(thinkingChunk, messageChunk, next *llm.StreamChunk) (*llm.StreamChunk, *llm.StreamChunk) {
	if next == nil {
		return thinkingChunk, messageChunk
	}

	if next.Type == llm.ContentTypeThinking {
		if thinkingChunk == nil {
			return next, messageChunk
		}
		thinkingChunk.Content += next.Content
		return thinkingChunk, messageChunk
	}

	if messageChunk == nil {
		return thinkingChunk, next
	}
	messageChunk.Content += next.Content
	return thinkingChunk, messageChunk
}

// IsInThinking returns true if currently inside a reasoning block.
func (p *ThinkingParser) IsInThinking() bool {
	return p.openTag != ""
}

// Flush returns any buffered content that hasn't been emitted yet.
// Call it at the end of a stream.
func (p *ThinkingParser) Flush() (thinkingChunk, messageChunk *llm.StreamChunk) {
	if p.inTag {
		thinkingChunk, messageChunk = p.merge(thinkingChunk, messageChunk, p.flushTag())
		p.inTag = false
	}
	return p.merge(thinkingChunk, messageChunk, p.flushBuffer())
}

// Reset resets the parser state for a new stream.
func (p *ThinkingParser) Reset() {
	p.buffer.Reset()
	p.tagBuffer.Reset()
	p.openTag = ""
	p.inTag = false
}

// StripReasoning removes reasoning blocks from a complete answer.
// An unterminated block swallows the rest of the text.
func StripReasoning(text string) string {
	p := NewThinkingParser()
	var out strings.Builder
	if _, msg := p.Parse(text); msg != nil {
		out.WriteString(msg.Content)
	}
	if _, msg := p.Flush(); msg != nil {
		out.WriteString(msg.Content)
	}
	return out.String()
}
