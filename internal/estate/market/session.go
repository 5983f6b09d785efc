package market

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pquerna/otp/totp"

	"github.com/aussiebroadwan/estate/internal/estate/domain"
	"github.com/aussiebroadwan/estate/pkg/apiclient"
	"github.com/aussiebroadwan/estate/pkg/storage"
	"github.com/aussiebroadwan/estate/pkg/tokenstore"
)

type loginPayload struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

// Login authenticates role, stores the returned token bound to this device
// and caches the user profile.
func (s *Service) Login(ctx context.Context, role storage.Role, creds domain.Credentials) (domain.User, error) {
	ns, ep, err := s.namespace(role)
	if err != nil {
		return domain.User{}, err
	}

	if creds.OTP == "" && s.totpSecret != "" && role != storage.RoleConsumer {
		code, err := totp.GenerateCode(s.totpSecret, s.now())
		if err != nil {
			return domain.User{}, fmt.Errorf("failed to generate TOTP code: %w", err)
		}
		creds.OTP = code
	}

	if err := domain.Validate(creds); err != nil {
		return domain.User{}, err
	}

	res, err := apiclient.Call[apiclient.Result[loginPayload]](
		ctx, s.api, http.MethodPost, ep.Login, creds, apiclient.ShapeBare,
		apiclient.WithValidation(),
		apiclient.WithoutAuth(),
	)
	if err != nil {
		return domain.User{}, err
	}
	if !res.Success || res.Data.Token == "" {
		return domain.User{}, fmt.Errorf("%w: %s", ErrLoginRejected, res.Message)
	}

	if err := s.tokens.SetWithFingerprint(ctx, ns.TokenKey, res.Data.Token); err != nil {
		return domain.User{}, fmt.Errorf("failed to store token: %w", err)
	}
	s.storage.SetItem(ctx, ns.UserKey, res.Data.User)

	s.logger.InfoContext(ctx, "logged in", "role", role, "user_id", res.Data.User.ID)
	return res.Data.User, nil
}

// Logout forgets every role's session and the cached favorites.
func (s *Service) Logout(ctx context.Context) bool {
	ok := s.storage.ClearAppSessionStorage(ctx)
	s.logger.InfoContext(ctx, "logged out", "complete", ok)
	return ok
}

// Me fetches the profile of role's session and refreshes the cache.
func (s *Service) Me(ctx context.Context, role storage.Role) (domain.User, error) {
	ns, ep, err := s.namespace(role)
	if err != nil {
		return domain.User{}, err
	}

	user, err := apiclient.Call[domain.User](ctx, s.api, http.MethodGet, ep.Me, nil, apiclient.ShapeData,
		apiclient.WithTokenKey(ns.TokenKey),
	)
	if err != nil {
		return domain.User{}, err
	}

	s.storage.SetItem(ctx, ns.UserKey, user)
	return user, nil
}

// CachedUser returns the profile stored at login without a network call.
func (s *Service) CachedUser(ctx context.Context, role storage.Role) (domain.User, bool) {
	ns, ok := s.storage.Namespace(role)
	if !ok {
		return domain.User{}, false
	}
	user := storage.GetItem(ctx, s.storage, ns.UserKey, domain.User{})
	return user, user.ID != ""
}

// Session describes the stored token of one role.
type Session struct {
	Role     storage.Role
	TokenKey string
	Record   tokenstore.Record
	// Err is nil when the token would be attached to requests.
	Err error
}

// Session validates role's stored token. A fingerprint mismatch purges it.
func (s *Service) Session(ctx context.Context, role storage.Role) (Session, bool) {
	ns, ok := s.storage.Namespace(role)
	if !ok {
		return Session{}, false
	}
	rec, ok := s.tokens.Record(ctx, ns.TokenKey)
	if !ok {
		return Session{}, false
	}
	_, err := s.tokens.Validate(ctx, ns.TokenKey)
	return Session{Role: role, TokenKey: ns.TokenKey, Record: rec, Err: err}, true
}
