// Package market implements the marketplace operations used by the CLI on
// top of the API client, the token store and the storage facade.
package market

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/estate/pkg/apiclient"
	"github.com/aussiebroadwan/estate/pkg/storage"
	"github.com/aussiebroadwan/estate/pkg/tokenstore"
)

var (
	// ErrLoginRejected is returned when the backend answers a login without
	// a usable token.
	ErrLoginRejected = errors.New("login rejected")

	ErrUnknownRole = errors.New("unknown role")
)

// Endpoints are the backend paths for one role.
type Endpoints struct {
	Login string
	Me    string
}

// DefaultEndpoints maps each role to its auth endpoints.
func DefaultEndpoints() map[storage.Role]Endpoints {
	return map[storage.Role]Endpoints{
		storage.RoleConsumer: {Login: "/auth/login", Me: "/auth/me"},
		storage.RoleAgent:    {Login: "/agent/auth/login", Me: "/agent/me"},
		storage.RoleCompany:  {Login: "/company/auth/login", Me: "/company/me"},
		storage.RoleAdmin:    {Login: "/admin/auth/login", Me: "/admin/me"},
	}
}

type Service struct {
	api       *apiclient.Client
	tokens    *tokenstore.Store
	storage   *storage.Facade
	endpoints map[storage.Role]Endpoints
	logger    *slog.Logger

	totpSecret string
	now        func() time.Time
}

type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithTOTPSecret makes back-office logins send a generated one-time code
// when the caller did not supply one.
func WithTOTPSecret(secret string) Option {
	return func(s *Service) { s.totpSecret = secret }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithEndpoints(e map[storage.Role]Endpoints) Option {
	return func(s *Service) { s.endpoints = e }
}

func NewService(api *apiclient.Client, tokens *tokenstore.Store, facade *storage.Facade, opts ...Option) *Service {
	s := &Service{
		api:       api,
		tokens:    tokens,
		storage:   facade,
		endpoints: DefaultEndpoints(),
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// namespace resolves the storage keys and endpoints of role.
func (s *Service) namespace(role storage.Role) (storage.Namespace, Endpoints, error) {
	ns, ok := s.storage.Namespace(role)
	if !ok {
		return storage.Namespace{}, Endpoints{}, fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	ep, ok := s.endpoints[role]
	if !ok {
		return storage.Namespace{}, Endpoints{}, fmt.Errorf("%w: %q has no endpoints", ErrUnknownRole, role)
	}
	return ns, ep, nil
}

// consumerKey is the token key used by public marketplace calls.
func (s *Service) consumerKey() string {
	if ns, ok := s.storage.Namespace(storage.RoleConsumer); ok {
		return ns.TokenKey
	}
	return apiclient.DefaultTokenKey
}
