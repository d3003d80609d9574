package middleware

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/teamposts/teamposts/internal/api/response"
	"github.com/teamposts/teamposts/internal/auth"
	"github.com/teamposts/teamposts/internal/logging"
)

const identityKey contextKey = "identity"

// Authenticator resolves a raw API key to the team that owns it.
type Authenticator interface {
	Authenticate(ctx context.Context, rawKey string) (*auth.Identity, error)
}

// Guard authenticates bearer tokens and checks team ownership. Handlers call
// it after input validation so malformed requests are rejected with 422
// before any key lookup.
type Guard struct {
	authn  Authenticator
	logger *zap.Logger
}

// NewGuard creates a Guard.
func NewGuard(authn Authenticator, logger *zap.Logger) *Guard {
	return &Guard{authn: authn, logger: logger}
}

// RequireTeam authenticates r and checks that its key belongs to team. On
// success it returns r with the identity attached to its context. On failure
// the error envelope has already been written and the bool is false.
func (g *Guard) RequireTeam(w http.ResponseWriter, r *http.Request, team string) (*http.Request, bool) {
	requestID := GetRequestID(r.Context())
	rawKey := auth.BearerToken(r.Header.Get("Authorization"))

	identity, err := g.authn.Authenticate(r.Context(), rawKey)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidKey) {
			g.logger.Warn("authentication failed",
				zap.String("event_type", "auth_failure"),
				zap.String("api_key_masked", logging.MaskAPIKey(rawKey)),
				zap.String("request_path", r.URL.Path),
				zap.String("request_method", r.Method),
				zap.String("request_id", requestID),
			)
			response.Unauthorized(w, requestID)
			return nil, false
		}
		g.logger.Error("api key lookup failed",
			zap.Error(err),
			zap.String("request_path", r.URL.Path),
			zap.String("request_method", r.Method),
			zap.String("request_id", requestID),
		)
		response.StorageError(w, err, requestID)
		return nil, false
	}

	if identity.TeamName != team {
		g.logger.Warn("team access denied",
			zap.String("event_type", "team_access_denied"),
			zap.String("api_key_masked", logging.MaskAPIKey(rawKey)),
			zap.String("requested_team", team),
			zap.String("key_team", identity.TeamName),
			zap.String("request_path", r.URL.Path),
			zap.String("request_method", r.Method),
			zap.String("request_id", requestID),
		)
		response.Forbidden(w, team, requestID)
		return nil, false
	}

	g.logger.Debug("authenticated",
		zap.String("team_name", identity.TeamName),
		zap.String("request_path", r.URL.Path),
		zap.String("request_id", requestID),
	)
	return r.WithContext(WithIdentity(r.Context(), identity)), true
}

// WithIdentity returns a copy of ctx carrying identity.
func WithIdentity(ctx context.Context, identity *auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// GetIdentity extracts the authenticated identity from the context.
// Returns nil if the request has not been authenticated.
func GetIdentity(ctx context.Context) *auth.Identity {
	id, _ := ctx.Value(identityKey).(*auth.Identity)
	return id
}
