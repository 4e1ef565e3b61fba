package v1

import (
	"context"
	"net/http"

	"github.com/docvaulthq/docvault/internal/domain"
)

// TenantHeader carries the tenant resolved by the upstream auth layer.
// Token validation happens before us; here the header is trusted.
const TenantHeader = "X-Tenant-ID"

type tenantCtxKey struct{}

// TenantMiddleware resolves the tenant for every request under /api/v1.
// Requests without a tenant are rejected before any handler runs.
func TenantMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID := domain.TenantID(r.Header.Get(TenantHeader))
		if tenantID.IsZero() {
			http.Error(w, "tenant not resolved", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), tenantCtxKey{}, tenantID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func tenantFromRequest(r *http.Request) domain.TenantID {
	tenantID, _ := r.Context().Value(tenantCtxKey{}).(domain.TenantID)
	return tenantID
}
