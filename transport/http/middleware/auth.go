package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"slices"

	"resort/config"
	"resort/infras/jwt"
	"resort/infras/otel"
	"resort/permissions"
	"resort/shared/constant"
	"resort/shared/failure"
	"resort/transport/http/response"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const queryAccessToken = "access_token"

var tokenMessages = map[error]string{
	jwt.ErrExpiredToken: "Token has expired",
	jwt.ErrInvalidToken: "Invalid token",
	jwt.ErrInvalidClaim: "Invalid token claims",
}

// Auth authenticates callers, either by bearer token or by the internal API key.
type Auth interface {
	Auth(http.Handler) http.Handler
	APIKey(http.Handler) http.Handler
}

// Role authorizes an authenticated caller against the route permissions.
type Role interface {
	RBAC(http.Handler) http.Handler
}

type AuthRole interface {
	Auth
	Role
}

type authRoleImpl struct {
	jwtService jwt.JWT
	otel       otel.Otel
	permission *permissions.PermissionData
	cfg        *config.Config
}

func NewAuthRoleMiddleware(jwtService jwt.JWT, otel otel.Otel, permissions *permissions.PermissionData, cfg *config.Config) AuthRole {
	return &authRoleImpl{
		jwtService: jwtService,
		otel:       otel,
		permission: permissions,
		cfg:        cfg,
	}
}

// APIKey marks requests carrying the configured internal key as trusted. Requests without
// a key fall through to token authentication; a wrong key is rejected outright.
func (m *authRoleImpl) APIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		_, scope := m.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, "api_key.middleware")
		defer scope.End()

		key := request.Header.Get(constant.RequestHeaderAPIKey)
		if key == constant.Empty {
			scope.SetAttribute("http.source", "client")
			next.ServeHTTP(writer, request)

			return
		}

		scope.SetAttribute("http.source", "internal")

		expected := m.cfg.App.APIKey
		if expected == constant.Empty || subtle.ConstantTimeCompare([]byte(key), []byte(expected)) != 1 {
			reject(writer, scope, failure.ForbiddenError)

			return
		}

		ctx := context.WithValue(request.Context(), constant.ContextKeyTrusted, true)
		next.ServeHTTP(writer, request.WithContext(ctx))
	})
}

// Auth requires a valid access token unless the caller is trusted or the route is public.
func (m *authRoleImpl) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		ctx, scope := m.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, "auth.middleware")
		defer scope.End()

		pattern := routePattern(request)
		if trusted(request.Context()) || m.public(pattern, request.Method) {
			next.ServeHTTP(writer, request)

			return
		}

		scope.SetAttributes(map[string]any{
			"middleware.type": "auth",
			"http.path":       pattern,
			"http.method":     request.Method,
		})

		claims, err := m.authenticate(ctx, request)
		if err != nil {
			reject(writer, scope, err)

			return
		}

		identity := request.Context()
		identity = context.WithValue(identity, constant.ContextKeyUserID, claims.UserID)
		identity = context.WithValue(identity, constant.ContextKeyUserEmail, claims.Email)
		identity = context.WithValue(identity, constant.ContextKeyUserRole, claims.Role)
		identity = context.WithValue(identity, constant.ContextKeyTokenID, claims.TokenID)

		next.ServeHTTP(writer, request.WithContext(identity))
	})
}

// RBAC runs after Auth and checks the caller role against the roles listed for the route.
func (m *authRoleImpl) RBAC(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		_, scope := m.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, "rbac.middleware")
		defer scope.End()

		if trusted(request.Context()) {
			next.ServeHTTP(writer, request)

			return
		}

		if m.permission == nil {
			reject(writer, scope, failure.ForbiddenError)

			return
		}

		rule := m.permission.FindPermissions(routePattern(request), request.Method)
		if m.permission.Skip || rule.Skip || len(rule.Permissions) == 0 {
			next.ServeHTTP(writer, request)

			return
		}

		role, _ := request.Context().Value(constant.ContextKeyUserRole).(string)
		if !slices.Contains(rule.Permissions, role) {
			scope.SetAttributes(map[string]any{
				"user_role":     role,
				"allowed_roles": rule.Permissions,
			})
			reject(writer, scope, failure.ForbiddenError)

			return
		}

		next.ServeHTTP(writer, request)
	})
}

func (m *authRoleImpl) public(pattern, method string) bool {
	return m.permission != nil && m.permission.FindPermissions(pattern, method).Skip
}

func (m *authRoleImpl) authenticate(ctx context.Context, request *http.Request) (*jwt.Claims, error) {
	header := request.Header.Get(constant.RequestHeaderAuthorization)
	if header == constant.Empty && websocket.IsWebSocketUpgrade(request) {
		// browsers cannot set headers on the upgrade request
		if token := request.URL.Query().Get(queryAccessToken); token != constant.Empty {
			header = jwt.BearerPrefix + token
		}
	}

	token, err := jwt.ExtractTokenFromHeader(header)
	if errors.Is(err, jwt.ErrMissingHeader) {
		return nil, failure.Unauthorized("Missing authorization header")
	}

	if err != nil {
		return nil, failure.Unauthorized("Invalid authorization header format")
	}

	claims, err := m.jwtService.ValidateToken(ctx, token, jwt.AccessToken)
	if err != nil {
		return nil, failure.Unauthorized(tokenMessage(err))
	}

	if claims.UserID == constant.Empty || claims.Email == constant.Empty {
		log.Warn().Str("token_id", claims.TokenID).Msg("access token without subject")

		return nil, failure.Unauthorized("Invalid token claims")
	}

	return claims, nil
}

func tokenMessage(err error) string {
	for target, message := range tokenMessages {
		if errors.Is(err, target) {
			return message
		}
	}

	return "Token validation failed"
}

func trusted(ctx context.Context) bool {
	skip, _ := ctx.Value(constant.ContextKeyTrusted).(bool)

	return skip
}

func reject(writer http.ResponseWriter, scope otel.Scope, err error) {
	scope.TraceError(err)
	response.WithError(writer, err)
}

// routePattern resolves the registered pattern (e.g. /v1/rooms/{id}) before chi has routed
// the request, so permissions can be matched from router-level middleware.
func routePattern(request *http.Request) string {
	rctx := chi.RouteContext(request.Context())
	if rctx == nil || rctx.Routes == nil {
		return request.URL.Path
	}

	if pattern := rctx.Routes.Find(chi.NewRouteContext(), request.Method, request.URL.Path); pattern != constant.Empty {
		return pattern
	}

	return request.URL.Path
}
