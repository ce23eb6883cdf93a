package llm

import (
	"context"
	"fmt"
	"log"
	"time"
)

// CallWithRetry runs call up to maxRetries+1 times with a linear backoff
// (1s, 2s, ...). Context cancellation aborts the wait immediately.
func CallWithRetry(ctx context.Context, maxRetries int, call func(ctx context.Context) (Message, error)) (Message, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		msg, err := call(ctx)
		if err == nil {
			return msg, nil
		}
		lastErr = err
		if attempt < maxRetries {
			wait := time.Duration(attempt+1) * time.Second
			log.Printf("[LLM] Retry %d/%d after %v, error: %v", attempt+1, maxRetries, wait, err)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return Message{}, ctx.Err()
			}
		}
	}
	return Message{}, fmt.Errorf("LLM call failed after %d retries: %w", maxRetries, lastErr)
}
