package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/panyam/mesto"
)

// InterceptorConfig configures the auth interceptor behavior.
type InterceptorConfig struct {
	// Verifier checks tokens; usually the server's *mesto.TokenService.
	Verifier mesto.TokenVerifier

	// RequireAuth when true rejects unauthenticated requests.
	// When false, requests proceed but IdentityFromContext reports false.
	RequireAuth bool

	// PublicMethods is a set of method names that don't require auth.
	// Keys should be full method names like "/package.Service/Method".
	PublicMethods map[string]bool
}

// NewInterceptorConfig returns a config that requires auth for every
// method except publicMethods.
func NewInterceptorConfig(verifier mesto.TokenVerifier, publicMethods ...string) *InterceptorConfig {
	config := &InterceptorConfig{
		Verifier:      verifier,
		RequireAuth:   true,
		PublicMethods: make(map[string]bool),
	}
	for _, method := range publicMethods {
		config.PublicMethods[method] = true
	}
	return config
}

// OptionalAuthConfig returns a config that allows unauthenticated requests.
func OptionalAuthConfig(verifier mesto.TokenVerifier) *InterceptorConfig {
	return &InterceptorConfig{
		Verifier:      verifier,
		RequireAuth:   false,
		PublicMethods: make(map[string]bool),
	}
}

// authenticate resolves the caller and decides whether the call may go on.
func (c *InterceptorConfig) authenticate(ctx context.Context, method string) (context.Context, error) {
	id, err := mesto.Authenticate(c.Verifier, TokenFromContext(ctx))
	if err == nil {
		return contextWithIdentity(ctx, id), nil
	}
	if c.RequireAuth && !c.PublicMethods[method] {
		return nil, status.Error(codes.Unauthenticated, mesto.MsgAuthRequired)
	}
	return ctx, nil
}

// UnaryAuthInterceptor returns a gRPC unary interceptor that verifies the
// caller's token and stores the Identity in the handler's context.
func UnaryAuthInterceptor(config *InterceptorConfig) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ctx, err := config.authenticate(ctx, info.FullMethod)
		if err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

// identityStream overrides the stream context with one carrying the Identity.
type identityStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *identityStream) Context() context.Context { return s.ctx }

// StreamAuthInterceptor is the streaming counterpart of UnaryAuthInterceptor.
func StreamAuthInterceptor(config *InterceptorConfig) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx, err := config.authenticate(ss.Context(), info.FullMethod)
		if err != nil {
			return err
		}
		return handler(srv, &identityStream{ServerStream: ss, ctx: ctx})
	}
}
