// Package middleware provides HTTP middlewares for operator authentication
// and request logging.
package middleware

import (
	"context"
	"net/http"
)

type ctxKey string

const operatorKey ctxKey = "operator"

// CertAuth is a middleware that enforces mutual TLS authentication.
//
// Every request must present a client certificate signed by the configured
// CA, except the Prometheus scrape endpoint. The Common Name of the verified
// certificate is stored in the request context as the operator name.
func CertAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}
		if r.TLS == nil || len(r.TLS.PeerCertificates) == 0 {
			http.Error(w, "no client certificate provided", http.StatusUnauthorized)
			return
		}
		cert := r.TLS.PeerCertificates[0]
		ctx := WithOperator(r.Context(), cert.Subject.CommonName)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithOperator returns a copy of ctx carrying the operator name.
func WithOperator(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, operatorKey, name)
}

// GetOperatorFromContext extracts the operator name (Common Name from client
// certificate) from the request context. Returns an empty string if not found.
func GetOperatorFromContext(ctx context.Context) string {
	val := ctx.Value(operatorKey)
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}
