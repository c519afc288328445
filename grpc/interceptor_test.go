package grpc

import (
	"context"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/panyam/mesto"
)

func newTokens(t *testing.T) *mesto.TokenService {
	t.Helper()
	tokens, err := mesto.NewTokenService("grpc-test-secret", mesto.TokenTTL)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return tokens
}

func bearerContext(t *testing.T, tokens *mesto.TokenService, subject mesto.ID) context.Context {
	t.Helper()
	token, _, err := tokens.Issue(subject)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	md := metadata.Pairs(MetadataKeyAuthorization, "Bearer "+token)
	return metadata.NewIncomingContext(context.Background(), md)
}

func expectUnauthenticated(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error for unauthenticated request")
	}
	st, ok := status.FromError(err)
	if !ok {
		t.Fatalf("expected grpc status error, got %v", err)
	}
	if st.Code() != codes.Unauthenticated {
		t.Errorf("expected Unauthenticated code, got %v", st.Code())
	}
}

func TestNewInterceptorConfig(t *testing.T) {
	config := NewInterceptorConfig(newTokens(t), "/pkg.Svc/Method1", "/pkg.Svc/Method2")
	if !config.RequireAuth {
		t.Error("expected RequireAuth to be true")
	}
	if !config.PublicMethods["/pkg.Svc/Method1"] || !config.PublicMethods["/pkg.Svc/Method2"] {
		t.Error("expected Method1 and Method2 to be public")
	}
	if config.PublicMethods["/pkg.Svc/Method3"] {
		t.Error("expected Method3 to not be public")
	}
}

func TestUnaryAuthInterceptor_RequireAuth_NoToken(t *testing.T) {
	interceptor := UnaryAuthInterceptor(NewInterceptorConfig(newTokens(t)))
	info := &grpc.UnaryServerInfo{FullMethod: "/pkg.Svc/Method"}

	_, err := interceptor(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
		t.Error("handler should not be called")
		return nil, nil
	})
	expectUnauthenticated(t, err)
}

func TestUnaryAuthInterceptor_RequireAuth_ValidToken(t *testing.T) {
	tokens := newTokens(t)
	interceptor := UnaryAuthInterceptor(NewInterceptorConfig(tokens))
	subject := mesto.NewID()
	info := &grpc.UnaryServerInfo{FullMethod: "/pkg.Svc/Method"}

	var got mesto.ID
	_, err := interceptor(bearerContext(t, tokens, subject), nil, info, func(ctx context.Context, req any) (any, error) {
		id, ok := IdentityFromContext(ctx)
		if !ok {
			t.Error("expected identity in handler context")
		}
		got = id.Subject()
		return nil, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != subject {
		t.Errorf("expected subject %q, got %q", subject, got)
	}
}

func TestUnaryAuthInterceptor_ForeignKeyRejected(t *testing.T) {
	interceptor := UnaryAuthInterceptor(NewInterceptorConfig(newTokens(t)))
	other, err := mesto.NewTokenService("some-other-secret", mesto.TokenTTL)
	if err != nil {
		t.Fatal(err)
	}
	info := &grpc.UnaryServerInfo{FullMethod: "/pkg.Svc/Method"}

	_, err = interceptor(bearerContext(t, other, mesto.NewID()), nil, info, func(ctx context.Context, req any) (any, error) {
		t.Error("handler should not be called")
		return nil, nil
	})
	expectUnauthenticated(t, err)
}

func TestUnaryAuthInterceptor_ExpiredToken(t *testing.T) {
	tokens := newTokens(t)
	issuedAt := time.Now().Add(-8 * 24 * time.Hour)
	tokens.Now = func() time.Time { return issuedAt }
	ctx := bearerContext(t, tokens, mesto.NewID())
	tokens.Now = time.Now

	interceptor := UnaryAuthInterceptor(NewInterceptorConfig(tokens))
	info := &grpc.UnaryServerInfo{FullMethod: "/pkg.Svc/Method"}
	_, err := interceptor(ctx, nil, info, func(ctx context.Context, req any) (any, error) {
		t.Error("handler should not be called")
		return nil, nil
	})
	expectUnauthenticated(t, err)
}

func TestUnaryAuthInterceptor_PublicMethod(t *testing.T) {
	interceptor := UnaryAuthInterceptor(NewInterceptorConfig(newTokens(t), "/pkg.Svc/Public"))
	info := &grpc.UnaryServerInfo{FullMethod: "/pkg.Svc/Public"}

	handlerCalled := false
	_, err := interceptor(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
		handlerCalled = true
		if IsAuthenticated(ctx) {
			t.Error("expected anonymous caller")
		}
		return nil, nil
	})
	if err != nil {
		t.Fatalf("unexpected error for public method: %v", err)
	}
	if !handlerCalled {
		t.Error("handler should have been called for public method")
	}
}

func TestUnaryAuthInterceptor_OptionalAuth(t *testing.T) {
	interceptor := UnaryAuthInterceptor(OptionalAuthConfig(newTokens(t)))
	info := &grpc.UnaryServerInfo{FullMethod: "/pkg.Svc/Method"}

	handlerCalled := false
	_, err := interceptor(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
		handlerCalled = true
		return nil, nil
	})
	if err != nil {
		t.Fatalf("unexpected error with optional auth: %v", err)
	}
	if !handlerCalled {
		t.Error("handler should have been called with optional auth")
	}
}

// mockServerStream implements grpc.ServerStream for testing
type mockServerStream struct {
	ctx context.Context
}

func (m *mockServerStream) Context() context.Context    { return m.ctx }
func (m *mockServerStream) SetHeader(metadata.MD) error  { return nil }
func (m *mockServerStream) SendHeader(metadata.MD) error { return nil }
func (m *mockServerStream) SetTrailer(metadata.MD)       {}
func (m *mockServerStream) SendMsg(any) error            { return nil }
func (m *mockServerStream) RecvMsg(any) error            { return nil }

func TestStreamAuthInterceptor_RequireAuth_NoToken(t *testing.T) {
	interceptor := StreamAuthInterceptor(NewInterceptorConfig(newTokens(t)))
	stream := &mockServerStream{ctx: context.Background()}
	info := &grpc.StreamServerInfo{FullMethod: "/pkg.Svc/StreamMethod"}

	err := interceptor(nil, stream, info, func(srv any, ss grpc.ServerStream) error {
		t.Error("handler should not be called")
		return nil
	})
	expectUnauthenticated(t, err)
}

func TestStreamAuthInterceptor_ValidToken(t *testing.T) {
	tokens := newTokens(t)
	interceptor := StreamAuthInterceptor(NewInterceptorConfig(tokens))
	subject := mesto.NewID()
	stream := &mockServerStream{ctx: bearerContext(t, tokens, subject)}
	info := &grpc.StreamServerInfo{FullMethod: "/pkg.Svc/StreamMethod"}

	err := interceptor(nil, stream, info, func(srv any, ss grpc.ServerStream) error {
		id, ok := IdentityFromContext(ss.Context())
		if !ok || id.Subject() != subject {
			t.Errorf("expected identity %q on stream context, got %q", subject, id.Subject())
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
