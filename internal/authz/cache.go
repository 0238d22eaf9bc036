package authz

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Resolver answers effective-permission lookups, memoizing per-role sets in
// Redis. Resolution is pure computation, so a cache outage only costs time;
// the resolver falls back to computing directly and never fails a request.
type Resolver struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewResolver constructs a Resolver. The client may be nil, which disables
// caching entirely.
func NewResolver(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Resolver {
	return &Resolver{client: client, ttl: ttl, logger: logger}
}

// EffectivePermissions returns the union of the effective sets of all roles.
func (r *Resolver) EffectivePermissions(ctx context.Context, roles []string) PermissionSet {
	merged := make(PermissionSet)
	for _, role := range roles {
		for key := range r.roleSet(ctx, role) {
			merged[key] = struct{}{}
		}
	}
	return merged
}

func (r *Resolver) roleSet(ctx context.Context, role string) PermissionSet {
	role = normalizeRole(role)
	if r == nil || r.client == nil {
		return resolveRole(role)
	}
	cacheKey := "authz:effective:" + role
	if payload, err := r.client.Get(ctx, cacheKey).Bytes(); err == nil {
		var keys []string
		if err := json.Unmarshal(payload, &keys); err == nil {
			set := make(PermissionSet, len(keys))
			for _, k := range keys {
				set[k] = struct{}{}
			}
			return set
		}
	} else if !errors.Is(err, redis.Nil) && r.logger != nil {
		r.logger.Warn("authz cache read", slog.String("role", role), slog.Any("error", err))
	}
	set := resolveRole(role)
	if payload, err := json.Marshal(set.Keys()); err == nil {
		if err := r.client.Set(ctx, cacheKey, payload, r.ttl).Err(); err != nil && r.logger != nil {
			r.logger.Warn("authz cache write", slog.String("role", role), slog.Any("error", err))
		}
	}
	return set
}

func resolveRole(role string) PermissionSet {
	tmpl, ok := TemplateForRole(role)
	if !ok {
		// Missing templates yield an empty set; there is no default-allow.
		return make(PermissionSet)
	}
	return ResolveEffectivePermissions(&tmpl)
}
