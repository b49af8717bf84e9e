// Package research provides the specialist agents that perform lead
// research: website analysis, LinkedIn profiling, industry problem
// discovery, solution matching, web intelligence, and email drafting.
// Each agent is a self-contained domain.Agent around a shared LLM
// provider; agents degrade to deterministic template output when no
// provider is configured, which keeps the pipeline testable offline.
package research

import (
	"context"
	"fmt"
	"strings"

	"leadscout/internal/domain"
)

// askLLM runs a single system+user exchange against the provider. A nil
// provider yields the fallback text instead of an error.
func askLLM(ctx context.Context, provider domain.LLMProvider, system, user, fallback string) (string, error) {
	if provider == nil {
		return fallback, nil
	}
	resp, err := provider.Chat(ctx, domain.ChatRequest{
		Messages: []domain.ChatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Content), nil
}

// requireKeys validates that every key is present and non-empty.
func requireKeys(payload domain.Payload, keys ...string) error {
	var missing []string
	for _, k := range keys {
		if payload.String(k) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", domain.ErrInvalidInput, strings.Join(missing, ", "))
	}
	return nil
}
