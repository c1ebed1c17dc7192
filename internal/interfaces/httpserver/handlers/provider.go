package handlers

import (
	"github.com/rs/zerolog"

	"clipvault/internal/config"
	domain "clipvault/internal/domain/video"
)

// Provider wires HTTP handlers.
type Provider struct {
	Video *VideoHandler
}

func NewProvider(cfg *config.Config, service *domain.Service, log zerolog.Logger) *Provider {
	return &Provider{
		Video: NewVideoHandler(cfg, service, log),
	}
}
