package handlers

import (
	"context"
	"time"
)

// UpdateGuard tells whether an update id is being seen for the first time.
type UpdateGuard interface {
	FirstSeen(ctx context.Context, updateID int64) (bool, error)
}

// AllowAllUpdates is used when no shared store is configured.
type AllowAllUpdates struct{}

func (AllowAllUpdates) FirstSeen(context.Context, int64) (bool, error) {
	return true, nil
}

type updateMarker interface {
	MarkUpdateSeen(ctx context.Context, updateID int64, ttl time.Duration) (bool, error)
}

type markerGuard struct {
	marker updateMarker
	ttl    time.Duration
}

// NewUpdateGuard remembers update ids in marker (the Redis client) for ttl.
func NewUpdateGuard(marker updateMarker, ttl time.Duration) UpdateGuard {
	return &markerGuard{marker: marker, ttl: ttl}
}

func (g *markerGuard) FirstSeen(ctx context.Context, updateID int64) (bool, error) {
	return g.marker.MarkUpdateSeen(ctx, updateID, g.ttl)
}
