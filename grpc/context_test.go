package grpc

import (
	"context"
	"testing"

	"google.golang.org/grpc/metadata"

	"github.com/panyam/mesto"
)

func TestTokenFromContext_NoMetadata(t *testing.T) {
	if token := TokenFromContext(context.Background()); token != "" {
		t.Errorf("expected empty token, got %q", token)
	}
}

func TestTokenFromContext_Bearer(t *testing.T) {
	md := metadata.Pairs(MetadataKeyAuthorization, "Bearer abc.def.ghi")
	ctx := metadata.NewIncomingContext(context.Background(), md)

	if token := TokenFromContext(ctx); token != "abc.def.ghi" {
		t.Errorf("expected token %q, got %q", "abc.def.ghi", token)
	}
}

func TestTokenFromContext_BearerCaseInsensitive(t *testing.T) {
	md := metadata.Pairs(MetadataKeyAuthorization, "bearer tok")
	ctx := metadata.NewIncomingContext(context.Background(), md)

	if token := TokenFromContext(ctx); token != "tok" {
		t.Errorf("expected token %q, got %q", "tok", token)
	}
}

func TestTokenFromContext_NotBearer(t *testing.T) {
	md := metadata.Pairs(MetadataKeyAuthorization, "Basic dXNlcjpwYXNz")
	ctx := metadata.NewIncomingContext(context.Background(), md)

	if token := TokenFromContext(ctx); token != "" {
		t.Errorf("expected basic auth to be ignored, got %q", token)
	}
}

func TestTokenFromContext_Cookie(t *testing.T) {
	md := metadata.Pairs(MetadataKeyCookie, "theme=dark; jwt=cookie-token")
	ctx := metadata.NewIncomingContext(context.Background(), md)

	if token := TokenFromContext(ctx); token != "cookie-token" {
		t.Errorf("expected token %q, got %q", "cookie-token", token)
	}
}

func TestTokenFromContext_BearerWinsOverCookie(t *testing.T) {
	md := metadata.Pairs(
		MetadataKeyCookie, "jwt=cookie-token",
		MetadataKeyAuthorization, "Bearer header-token",
	)
	ctx := metadata.NewIncomingContext(context.Background(), md)

	if token := TokenFromContext(ctx); token != "header-token" {
		t.Errorf("expected token %q, got %q", "header-token", token)
	}
}

func TestTokenToOutgoingContext(t *testing.T) {
	ctx := TokenToOutgoingContext(context.Background(), "tok")

	md, ok := metadata.FromOutgoingContext(ctx)
	if !ok {
		t.Fatal("expected outgoing metadata")
	}
	values := md.Get(MetadataKeyAuthorization)
	if len(values) != 1 || values[0] != "Bearer tok" {
		t.Errorf("expected [%q], got %v", "Bearer tok", values)
	}
}

func TestIdentityFromContext_Empty(t *testing.T) {
	if _, ok := IdentityFromContext(context.Background()); ok {
		t.Error("expected no identity in a bare context")
	}
	if IsAuthenticated(context.Background()) {
		t.Error("expected IsAuthenticated to be false")
	}
}

func TestIdentityFromContext_ZeroIdentityIgnored(t *testing.T) {
	ctx := contextWithIdentity(context.Background(), mesto.Identity{})
	if _, ok := IdentityFromContext(ctx); ok {
		t.Error("expected a zero identity to count as unauthenticated")
	}
}
