package provider

import (
	"context"
	"fmt"

	"negarai/internal/config"
)

// Registry maps provider names to clients.
type Registry struct {
	clients map[string]Client
}

// NewRegistry builds the provider clients from configuration.
func NewRegistry(ctx context.Context, cfg *config.Config) (*Registry, error) {
	clients := make(map[string]Client)

	if cfg.Gemini.APIKey != "" {
		gemini, err := NewGeminiClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			return nil, fmt.Errorf("gemini client: %w", err)
		}
		clients["gemini"] = gemini
	}
	if cfg.KIE.APIKey != "" {
		clients["kie"] = NewKIEClient(cfg.KIE.BaseURL, cfg.KIE.APIKey)
	}

	return &Registry{clients: clients}, nil
}

// Get returns the client registered under name.
func (r *Registry) Get(name string) (Client, error) {
	client, ok := r.clients[name]
	if !ok {
		return nil, fmt.Errorf("provider %q is not configured", name)
	}
	return client, nil
}
