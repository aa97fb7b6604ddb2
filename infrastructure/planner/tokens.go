package planner

import (
	"github.com/tiktoken-go/tokenizer"

	"github.com/felixgeelhaar/gridbalancer/domain/memory"
)

// TiktokenCounter counts tokens with the GPT-4 encoding. Other model
// families tokenize differently, so counts are an estimate for them.
type TiktokenCounter struct {
	codec tokenizer.Codec
}

var _ memory.TokenCounter = (*TiktokenCounter)(nil)

// NewTiktokenCounter creates a counter. If the encoding cannot be loaded the
// counter falls back to four characters per token.
func NewTiktokenCounter() *TiktokenCounter {
	codec, err := tokenizer.ForModel(tokenizer.GPT4)
	if err != nil {
		return &TiktokenCounter{}
	}
	return &TiktokenCounter{codec: codec}
}

// Count returns the number of tokens in text.
func (c *TiktokenCounter) Count(text string) int {
	if c.codec == nil {
		return len(text) / 4
	}
	n, err := c.codec.Count(text)
	if err != nil {
		return len(text) / 4
	}
	return n
}
