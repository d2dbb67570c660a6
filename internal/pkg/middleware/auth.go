package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/piresc/dogwalker/internal/pkg/apperror"
	"github.com/piresc/dogwalker/internal/pkg/constants"
	appctx "github.com/piresc/dogwalker/internal/pkg/context"
	"github.com/piresc/dogwalker/internal/pkg/jwt"
	"github.com/piresc/dogwalker/internal/pkg/logger"
	"github.com/piresc/dogwalker/internal/pkg/models"
)

// CredentialVerifier resolves a bearer credential to its subject id
type CredentialVerifier interface {
	Verify(token string) (string, error)
}

// IdentitySource returns the current account snapshot of a subject, or an
// error wrapping models.ErrUserNotFound.
type IdentitySource interface {
	GetIdentity(ctx context.Context, subjectID string) (*models.Identity, error)
}

// maxOwnershipBody bounds how much of a request body RequireOwnership reads
const maxOwnershipBody = 1 << 20

// AuthGate verifies credentials and enforces role and ownership checks.
// Identity is looked up on every request so deactivation and role changes
// take effect without waiting for the credential to expire.
type AuthGate struct {
	verifier   CredentialVerifier
	identities IdentitySource
}

// NewAuthGate creates the authorization gate
func NewAuthGate(verifier CredentialVerifier, identities IdentitySource) *AuthGate {
	return &AuthGate{verifier: verifier, identities: identities}
}

// RequireAuth rejects requests without a valid credential for an active account
func (g *AuthGate) RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth, appErr := g.authenticate(c)
			if appErr != nil {
				return appErr
			}
			setAuth(c, auth)
			return next(c)
		}
	}
}

// OptionalAuth resolves the caller when it can and otherwise continues
// anonymously. It never rejects a request.
func (g *AuthGate) OptionalAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth, appErr := g.authenticate(c)
			if appErr != nil {
				if appErr.Kind == apperror.KindInternal {
					logger.WarnCtx(c.Request().Context(), "Optional authentication failed, continuing anonymously",
						logger.Err(appErr))
				}
				return next(c)
			}
			setAuth(c, auth)
			return next(c)
		}
	}
}

// RequireRole allows only callers whose role is one of roles. It must run
// after RequireAuth.
func (g *AuthGate) RequireRole(roles ...models.Role) echo.MiddlewareFunc {
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role)
	}
	message := fmt.Sprintf("This action requires being: %s", strings.Join(names, " or "))

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth, ok := AuthFromEcho(c)
			if !ok {
				return errAuthRequired
			}
			if !auth.HasRole(roles...) {
				return apperror.Forbidden("Access denied", message).
					WithDetails(map[string]interface{}{"allowedRoles": names})
			}
			return next(c)
		}
	}
}

// RequireOwnership allows the request only when field, read from the path
// parameters or else the JSON body, equals the caller's subject id. The
// value is client supplied: this guards against acting on someone else's
// id, it does not prove ownership of a stored resource.
func (g *AuthGate) RequireOwnership(field string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth, ok := AuthFromEcho(c)
			if !ok {
				return errAuthRequired
			}

			claimed := c.Param(field)
			if claimed == "" {
				var err error
				claimed, err = bodyField(c, field)
				if err != nil {
					return err
				}
			}

			if claimed != auth.SubjectID {
				return apperror.Forbidden("Access denied", "You can only access your own resources")
			}
			return next(c)
		}
	}
}

// AuthFromEcho returns the caller resolved by RequireAuth or OptionalAuth
func AuthFromEcho(c echo.Context) (*appctx.Auth, bool) {
	auth, ok := c.Get(constants.EchoKeyAuth).(*appctx.Auth)
	return auth, ok && auth != nil
}

var errAuthRequired = apperror.Unauthenticated("Authentication required", "You must be authenticated to access this resource")

func (g *AuthGate) authenticate(c echo.Context) (*appctx.Auth, *apperror.Error) {
	token, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
	if !ok {
		return nil, apperror.Unauthenticated("Token required", "You must provide an authentication token")
	}

	subjectID, err := g.verifier.Verify(token)
	if err != nil {
		return nil, credentialError(err)
	}

	ctx := c.Request().Context()
	identity, err := g.identities.GetIdentity(ctx, subjectID)
	switch {
	case errors.Is(err, models.ErrUserNotFound):
		return nil, apperror.Unauthenticated("User not found", "The user for this token no longer exists")
	case err != nil:
		return nil, apperror.Internal("failed to load identity", err)
	case !identity.Active:
		return nil, apperror.Unauthenticated("Account deactivated", "Your account has been deactivated")
	}

	return &appctx.Auth{SubjectID: subjectID, Identity: *identity}, nil
}

func credentialError(err error) *apperror.Error {
	switch {
	case errors.Is(err, jwt.ErrExpired):
		return apperror.Unauthenticated("Token expired", "Your session has expired, please log in again").
			WithDetails(map[string]string{"reason": "expired"})
	case errors.Is(err, jwt.ErrInvalidSignature):
		return apperror.Unauthenticated("Invalid token", "The provided token is not valid").
			WithDetails(map[string]string{"reason": "invalid_signature"})
	case errors.Is(err, jwt.ErrMalformed):
		return apperror.Unauthenticated("Invalid token", "The provided token is not valid").
			WithDetails(map[string]string{"reason": "malformed"})
	default:
		return apperror.Internal("failed to verify credential", err)
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func setAuth(c echo.Context, auth *appctx.Auth) {
	c.Set(constants.EchoKeyAuth, auth)
	c.Set(constants.EchoKeyUserID, auth.SubjectID)
	c.SetRequest(c.Request().WithContext(appctx.WithAuth(c.Request().Context(), auth)))
	SetUserID(c, auth.SubjectID)
}

// bodyField reads field from a JSON object body and restores the body for
// the handler. A missing body or field yields "".
func bodyField(c echo.Context, field string) (string, error) {
	req := c.Request()
	if req.Body == nil || req.ContentLength == 0 {
		return "", nil
	}

	raw, err := io.ReadAll(io.LimitReader(req.Body, maxOwnershipBody))
	if err != nil {
		return "", apperror.MalformedInput("Invalid data", "The request body could not be read")
	}
	req.Body = readCloser{Reader: io.MultiReader(bytes.NewReader(raw), req.Body), Closer: req.Body}

	var body map[string]interface{}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if decoder.Decode(&body) != nil {
		return "", nil
	}

	switch v := body[field].(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case nil:
		return "", nil
	default:
		return fmt.Sprint(v), nil
	}
}

type readCloser struct {
	io.Reader
	io.Closer
}
