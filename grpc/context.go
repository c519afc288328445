// Package grpc carries Mesto authentication into gRPC services that share
// the server's signing key.
package grpc

import (
	"context"
	"net/http"
	"strings"

	"google.golang.org/grpc/metadata"

	"github.com/panyam/mesto"
)

// Metadata keys the token is read from.
const (
	// MetadataKeyAuthorization carries "Bearer <token>".
	MetadataKeyAuthorization = "authorization"

	// MetadataKeyCookie carries a raw Cookie header; the token is taken from
	// its jwt entry.
	MetadataKeyCookie = "cookie"
)

const bearerPrefix = "bearer "

type identityKey struct{}

// IdentityFromContext returns the Identity stored by the interceptors, or
// false when the call was not authenticated.
func IdentityFromContext(ctx context.Context) (mesto.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(mesto.Identity)
	if !ok || id.IsZero() {
		return mesto.Identity{}, false
	}
	return id, true
}

func contextWithIdentity(ctx context.Context, id mesto.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IsAuthenticated returns true if there is an authenticated caller in the context.
func IsAuthenticated(ctx context.Context) bool {
	_, ok := IdentityFromContext(ctx)
	return ok
}

// TokenFromContext extracts the raw token from incoming metadata. The
// authorization header wins over the cookie.
func TokenFromContext(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	for _, v := range md.Get(MetadataKeyAuthorization) {
		if len(v) > len(bearerPrefix) && strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
			return strings.TrimSpace(v[len(bearerPrefix):])
		}
	}
	for _, line := range md.Get(MetadataKeyCookie) {
		cookies, err := http.ParseCookie(line)
		if err != nil {
			continue
		}
		for _, c := range cookies {
			if c.Name == mesto.CookieName && c.Value != "" {
				return c.Value
			}
		}
	}
	return ""
}

// TokenToOutgoingContext attaches token as a bearer credential to outgoing calls.
func TokenToOutgoingContext(ctx context.Context, token string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, MetadataKeyAuthorization, "Bearer "+token)
}
