package api

import (
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/ougirez/volstat/internal/domain"
	"github.com/ougirez/volstat/internal/pkg/constants"
	"github.com/ougirez/volstat/internal/pkg/logger"
	"github.com/ougirez/volstat/internal/service/access"
)

// RequestContext tags the request context with a request id for logging.
func RequestContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		id := ctx.Request().Header.Get(echo.HeaderXRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		ctx.Response().Header().Set(echo.HeaderXRequestID, id)
		ctx.Set(constants.CtxKeyRequestID, id)

		reqCtx := logger.With(ctx.Request().Context(), "request_id", id)
		ctx.SetRequest(ctx.Request().WithContext(reqCtx))
		return next(ctx)
	}
}

// AuthMiddleware resolves the principal from the auth cookie or a bearer token.
func (svc *APIService) AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		token := ""
		if cookie, err := ctx.Cookie(constants.CookieKeyAuthToken); err == nil {
			token = cookie.Value
		}
		if header := ctx.Request().Header.Get(echo.HeaderAuthorization); token == "" && strings.HasPrefix(header, "Bearer ") {
			token = strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		}

		principal, err := svc.authService.Resolve(ctx.Request().Context(), token)
		if err != nil {
			return err
		}

		ctx.Set(constants.CtxKeyPrincipal, principal)
		reqCtx := logger.With(ctx.Request().Context(), "user", principal.Email, "role", string(principal.Role))
		ctx.SetRequest(ctx.Request().WithContext(reqCtx))
		return next(ctx)
	}
}

// RequirePermission lets the request through only when the principal's role grants perm.
func RequirePermission(perm access.Permission) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			principal, ok := ctx.Get(constants.CtxKeyPrincipal).(*domain.Principal)
			if !ok {
				return constants.ErrUnauthorized
			}
			if !access.Allowed(principal.Role, perm) {
				logger.Warnf(ctx.Request().Context(), "%s denied %v on %s", principal.Email, access.Names(perm), ctx.Path())
				return constants.ErrForbidden
			}
			return next(ctx)
		}
	}
}
