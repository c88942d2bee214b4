package ai

import (
    "context"
    "fmt"
    "sort"
    "strings"
)

type Provider interface {
    Complete(ctx context.Context, model string, prompt string) (string, error)
    CompleteWithSystem(ctx context.Context, model string, systemPrompt string, prompt string) (string, error)
}

// Providers maps a lowercase backend name ("openai", "ollama", "gemini") to its client.
type Providers map[string]Provider

// Select returns the provider registered under name.
func (ps Providers) Select(name string) (Provider, error) {
    if p := ps[strings.ToLower(strings.TrimSpace(name))]; p != nil {
        return p, nil
    }
    return nil, fmt.Errorf("unknown provider %q (available: %s)", name, strings.Join(ps.Names(), ", "))
}

func (ps Providers) Names() []string {
    out := make([]string, 0, len(ps))
    for n := range ps {
        out = append(out, n)
    }
    sort.Strings(out)
    return out
}
