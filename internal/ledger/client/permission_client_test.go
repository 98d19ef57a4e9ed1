package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrewkhoh/farmstand-inventory/internal/ledger/client"
	"github.com/andrewkhoh/farmstand-inventory/internal/ledger/domain"
)

func grantServer(t *testing.T, permissions []string, isActive bool) (*httptest.Server, *string) {
	t.Helper()
	var seenPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"actor_id":    "u-1",
				"role":        "staff",
				"permissions": permissions,
				"is_active":   isActive,
			},
		})
	}))
	t.Cleanup(server.Close)
	return server, &seenPath
}

func TestCheck_GrantedAction_Allowed(t *testing.T) {
	server, seenPath := grantServer(t, []string{domain.ActionRecordMovements}, true)
	gate := client.NewRoleServiceClient(server.URL, nil, time.Minute)

	err := gate.Check(context.Background(), "u-1", domain.ActionRecordMovements)
	require.NoError(t, err)
	assert.Equal(t, "/api/users/u-1/permissions", *seenPath)
}

func TestCheck_MissingAction_Denied(t *testing.T) {
	server, _ := grantServer(t, []string{domain.ActionReadMovements}, true)
	gate := client.NewRoleServiceClient(server.URL, nil, time.Minute)

	err := gate.Check(context.Background(), "u-1", domain.ActionRecordMovements)
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	var denied *domain.PermissionDeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, "u-1", denied.ActorID)
	assert.Equal(t, domain.ActionRecordMovements, denied.Action)
}

func TestCheck_InactiveActor_Denied(t *testing.T) {
	server, _ := grantServer(t, []string{domain.ActionRecordMovements}, false)
	gate := client.NewRoleServiceClient(server.URL, nil, time.Minute)

	err := gate.Check(context.Background(), "u-1", domain.ActionRecordMovements)
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
}

func TestCheck_UnknownActor_DeniedNotUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	t.Cleanup(server.Close)
	gate := client.NewRoleServiceClient(server.URL, nil, time.Minute)

	err := gate.Check(context.Background(), "ghost", domain.ActionReadMovements)
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
	assert.NotErrorIs(t, err, domain.ErrPermissionUnavailable)
}

func TestCheck_RoleServiceError_FailsClosed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)
	gate := client.NewRoleServiceClient(server.URL, nil, time.Minute)

	err := gate.Check(context.Background(), "u-1", domain.ActionRecordMovements)
	assert.ErrorIs(t, err, domain.ErrPermissionUnavailable)
	assert.True(t, domain.IsRetryable(err))
}

func TestCheck_RoleServiceUnreachable_FailsClosed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()
	gate := client.NewRoleServiceClient(server.URL, nil, time.Minute)

	err := gate.Check(context.Background(), "u-1", domain.ActionRecordMovements)
	assert.ErrorIs(t, err, domain.ErrPermissionUnavailable)
}

func TestInvalidate_WithoutCache_Noop(t *testing.T) {
	gate := client.NewRoleServiceClient("http://localhost:0", nil, time.Minute)
	assert.NoError(t, gate.Invalidate(context.Background(), "u-1"))
}
