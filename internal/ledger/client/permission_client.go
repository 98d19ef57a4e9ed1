package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/andrewkhoh/farmstand-inventory/internal/ledger/domain"
	"github.com/andrewkhoh/farmstand-inventory/pkg/logger"
)

// RoleServiceClient checks ledger permissions against the user service. A
// Redis cache keeps role lookups off the hot path; the cache is advisory,
// never authoritative, and can be dropped per actor with Invalidate.
type RoleServiceClient struct {
	baseURL    string
	httpClient *http.Client
	cache      *redis.Client
	cacheTTL   time.Duration
}

// NewRoleServiceClient creates a new role service client. The redis client
// may be nil, which disables caching.
func NewRoleServiceClient(baseURL string, cache *redis.Client, cacheTTL time.Duration) *RoleServiceClient {
	return &RoleServiceClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout:   3 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

type actorGrant struct {
	ActorID     string   `json:"actor_id"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	IsActive    bool     `json:"is_active"`
}

type grantResponse struct {
	Success bool       `json:"success"`
	Data    actorGrant `json:"data"`
}

// Check reports whether the actor may perform the action. It fails closed:
// when the role service cannot answer, the error is
// domain.ErrPermissionUnavailable and the operation must not proceed.
func (c *RoleServiceClient) Check(ctx context.Context, actorID, action string) error {
	grant, err := c.grant(ctx, actorID)
	if err != nil {
		return err
	}
	if !grant.IsActive {
		return &domain.PermissionDeniedError{ActorID: actorID, Action: action}
	}
	for _, permission := range grant.Permissions {
		if permission == action {
			return nil
		}
	}
	return &domain.PermissionDeniedError{ActorID: actorID, Action: action}
}

// Invalidate drops the cached grant for an actor so the next check hits the
// role service again.
func (c *RoleServiceClient) Invalidate(ctx context.Context, actorID string) error {
	if c.cache == nil {
		return nil
	}
	if err := c.cache.Del(ctx, c.cacheKey(actorID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached roles: %w", err)
	}
	logger.WithContext(ctx).Debug().
		Str("actor_id", actorID).
		Msg("Cached roles invalidated")
	return nil
}

func (c *RoleServiceClient) cacheKey(actorID string) string {
	return fmt.Sprintf("ledger:roles:%s", actorID)
}

func (c *RoleServiceClient) grant(ctx context.Context, actorID string) (*actorGrant, error) {
	if cached := c.fromCache(ctx, actorID); cached != nil {
		return cached, nil
	}

	grant, err := c.fetch(ctx, actorID)
	if err != nil {
		return nil, err
	}
	c.store(ctx, grant)
	return grant, nil
}

func (c *RoleServiceClient) fromCache(ctx context.Context, actorID string) *actorGrant {
	if c.cache == nil {
		return nil
	}
	raw, err := c.cache.Get(ctx, c.cacheKey(actorID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.WithContext(ctx).Debug().
				Err(err).
				Str("actor_id", actorID).
				Msg("Role cache unavailable")
		}
		return nil
	}
	var grant actorGrant
	if err := json.Unmarshal(raw, &grant); err != nil {
		logger.WithContext(ctx).Warn().
			Err(err).
			Str("actor_id", actorID).
			Msg("Dropping undecodable cached grant")
		c.cache.Del(ctx, c.cacheKey(actorID))
		return nil
	}
	return &grant
}

func (c *RoleServiceClient) store(ctx context.Context, grant *actorGrant) {
	if c.cache == nil {
		return
	}
	raw, err := json.Marshal(grant)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, c.cacheKey(grant.ActorID), raw, c.cacheTTL).Err(); err != nil {
		logger.WithContext(ctx).Warn().
			Err(err).
			Str("actor_id", grant.ActorID).
			Msg("Failed to cache actor grant")
	}
}

func (c *RoleServiceClient) fetch(ctx context.Context, actorID string) (*actorGrant, error) {
	url := fmt.Sprintf("%s/api/users/%s/permissions", c.baseURL, actorID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPermissionUnavailable, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPermissionUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		// Unknown actors hold no permissions.
		return &actorGrant{ActorID: actorID}, nil
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: role service returned %d", domain.ErrPermissionUnavailable, resp.StatusCode)
	}

	var decoded grantResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPermissionUnavailable, err)
	}
	grant := decoded.Data
	if grant.ActorID == "" {
		grant.ActorID = actorID
	}
	return &grant, nil
}
