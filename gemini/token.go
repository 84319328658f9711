package gemini

import (
	"context"
	"strings"

	"github.com/fwojciec/mira"
	"google.golang.org/genai"
	"google.golang.org/genai/tokenizer"
)

var _ mira.TokenCounter = (*TokenCounter)(nil)

// TokenCounter sizes assembled documents with the local Gemini
// tokenizer, without a network call per count.
type TokenCounter struct {
	model string
	local *tokenizer.LocalTokenizer
}

// NewTokenCounter returns a counter for model. Only models the local
// tokenizer knows are accepted; others yield EINVALID.
func NewTokenCounter(model string) (*TokenCounter, error) {
	local, err := tokenizer.NewLocalTokenizer(model)
	if err != nil {
		return nil, mira.Errorf(mira.EINVALID, "no local tokenizer for %q: %v", model, err)
	}
	return &TokenCounter{model: model, local: local}, nil
}

// CountTokens reports how many tokens document takes as one user turn.
func (c *TokenCounter) CountTokens(_ context.Context, document string) (int, error) {
	if strings.TrimSpace(document) == "" {
		return 0, nil
	}

	turn := genai.NewContentFromText(document, "user")
	res, err := c.local.CountTokens([]*genai.Content{turn}, nil)
	if err != nil {
		return 0, mira.Errorf(mira.EINTERNAL, "counting %s tokens: %v", c.model, err)
	}
	return int(res.TotalTokens), nil
}
