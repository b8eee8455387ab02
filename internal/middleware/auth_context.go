package middleware

import (
	"context"
	"net/http"
	"strings"

	"medcare/internal/ports/auth"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type claimsKey struct{}

// DebugUserHeader solo se lee en modo dev (sin verifier).
const DebugUserHeader = "X-Debug-User-ID"

// AuthContext resuelve quién es el paciente del request.
// Sin verifier (modo dev) lo toma de DebugUserHeader; con verifier valida el
// Bearer token y el header de debug se ignora. Un request sin identidad sigue
// sin claims y cada handler responde 401.
func AuthContext(verifier auth.AuthVerifier, log *zap.Logger) func(http.Handler) http.Handler {
	resolve := func(r *http.Request) (auth.Claims, bool) {
		if verifier == nil {
			uid := strings.TrimSpace(r.Header.Get(DebugUserHeader))
			return auth.Claims{UserID: uid, Source: auth.SourceDev}, uid != ""
		}
		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			return auth.Claims{}, false
		}
		c, err := verifier.Verify(r.Context(), token)
		if err != nil {
			if log != nil {
				log.Debug("token rejected", zap.String("request_id", GetRequestID(r.Context())), zap.Error(err))
			}
			return auth.Claims{}, false
		}
		return c, strings.TrimSpace(c.UserID) != ""
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, ok := resolve(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			trace.SpanFromContext(r.Context()).SetAttributes(
				attribute.String("enduser.id", c.UserID),
				attribute.String("medcare.auth_source", c.Source),
			)
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), c)))
		})
	}
}

func WithClaims(ctx context.Context, c auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

// UserID devuelve el usuario autenticado; false si no hay claims válidas.
func UserID(ctx context.Context) (string, bool) {
	c, ok := ctx.Value(claimsKey{}).(auth.Claims)
	if !ok || strings.TrimSpace(c.UserID) == "" {
		return "", false
	}
	return c.UserID, true
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
