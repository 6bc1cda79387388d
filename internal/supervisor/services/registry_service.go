// Murmur - Realtime Presence and Event Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package services

import (
	"context"
)

// ContextRegistry matches *realtime.Registry's RunWithContext method.
type ContextRegistry interface {
	RunWithContext(ctx context.Context) error
}

// RegistryService wraps the connection registry as a supervised service.
//
// RunWithContext already follows the suture.Service pattern: it blocks
// until ctx is done and then closes every bound socket. This wrapper only
// delegates and names the service.
//
// Example usage:
//
//	registry := realtime.NewRegistry()
//	tree.AddMessagingService(services.NewRegistryService(registry))
type RegistryService struct {
	registry ContextRegistry
	name     string
}

// NewRegistryService creates a new registry service wrapper.
func NewRegistryService(registry ContextRegistry) *RegistryService {
	return &RegistryService{
		registry: registry,
		name:     "connection-registry",
	}
}

// Serve implements suture.Service.
func (r *RegistryService) Serve(ctx context.Context) error {
	return r.registry.RunWithContext(ctx)
}

// String implements fmt.Stringer for suture logging.
func (r *RegistryService) String() string {
	return r.name
}
