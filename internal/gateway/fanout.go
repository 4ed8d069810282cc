package gateway

import (
	"context"

	"golang.org/x/sync/errgroup"

	"llm-gateway/internal/domain/chat"
)

// FanCall names one provider invocation inside a fan-out.
type FanCall struct {
	Handle   *Handle
	Messages []chat.Message
	Params   chat.Params
}

// FanOut dispatches every call on its own goroutine and joins all of
// them. Results keep call order. The first failure cancels the remaining
// calls through the group context and is returned. Concurrency is
// caller-driven: limit <= 0 means one goroutine per call, a positive
// limit bounds how many run at once.
func (g *Gateway) FanOut(ctx context.Context, calls []FanCall, limit int) ([]*chat.Response, error) {
	results := make([]*chat.Response, len(calls))
	eg, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		eg.SetLimit(limit)
	}
	for i, call := range calls {
		eg.Go(func() error {
			resp, err := g.Chat(ctx, call.Handle, call.Messages, call.Params)
			if err != nil {
				return err
			}
			results[i] = resp
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
