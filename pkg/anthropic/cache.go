package anthropic

import (
	"context"

	"github.com/rotisserie/eris"
)

// BuildCachedSystemBlocks constructs system content blocks with a cache
// breakpoint. A case narrative is reused by every extraction request for
// that case, so caching it once saves rereading it ten more times.
func BuildCachedSystemBlocks(text string) []SystemBlock {
	return []SystemBlock{
		{
			Text: text,
			CacheControl: &CacheControl{
				TTL: "5m",
			},
		},
	}
}

// WarmCache sends one minimal message carrying the given system blocks so
// the prompt cache is populated before the concurrent fan-out begins.
// The response content is discarded; usage is returned for cost tracking.
func WarmCache(ctx context.Context, client Client, model string, system []SystemBlock) (TokenUsage, error) {
	resp, err := client.CreateMessage(ctx, MessageRequest{
		Model:     model,
		MaxTokens: 1,
		System:    system,
		Messages: []Message{
			{Role: "user", Content: "ok"},
		},
	})
	if err != nil {
		return TokenUsage{}, eris.Wrap(err, "anthropic: warm cache")
	}
	return resp.Usage, nil
}
