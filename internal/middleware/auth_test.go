package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func authedHandler(t *testing.T, clients map[string]Credential) (http.Handler, *string, *string) {
	t.Helper()
	var gotTenant, gotRole string
	h := APIKeyAuth(clients)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTenant = GetTenantFromContext(r.Context())
		gotRole = GetRoleFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	return h, &gotTenant, &gotRole
}

func TestAPIKeyAuthResolvesTenantAndRole(t *testing.T) {
	clients := map[string]Credential{
		"key-123": {Tenant: "acme", Role: "security_team"},
	}
	h, tenant, role := authedHandler(t, clients)

	req := httptest.NewRequest(http.MethodPost, "/v1/acme/incidents/analyze", nil)
	req.Header.Set("Authorization", "Bearer key-123")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if *tenant != "acme" || *role != "security_team" {
		t.Fatalf("expected acme/security_team, got %s/%s", *tenant, *role)
	}
}

func TestAPIKeyAuthRejectsUnknownKey(t *testing.T) {
	h, _, _ := authedHandler(t, map[string]Credential{"key-123": {Tenant: "acme", Role: "admin"}})

	req := httptest.NewRequest(http.MethodPost, "/v1/acme/incidents/analyze", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestAPIKeyAuthRejectsMissingHeader(t *testing.T) {
	h, _, _ := authedHandler(t, map[string]Credential{})

	req := httptest.NewRequest(http.MethodPost, "/v1/acme/incidents/analyze", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestAPIKeyAuthSkipsHealth(t *testing.T) {
	h, _, _ := authedHandler(t, map[string]Credential{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected health to bypass auth, got %d", rr.Code)
	}
}
