package services

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"chat-client/auth"
	"chat-client/domain"
	"chat-client/errors"
	"chat-client/rest"
	"chat-client/storage"
)

const sessionTTL = 30 * 24 * time.Hour

// ClientFactory builds an authenticated REST client for freshly entered or
// restored credentials.
type ClientFactory func(creds domain.Credentials) *rest.Client

type SessionService struct {
	log       *slog.Logger
	store     *storage.CredentialStore
	newClient ClientFactory
}

func NewSessionService(log *slog.Logger, store *storage.CredentialStore, newClient ClientFactory) *SessionService {
	return &SessionService{log: log, store: store, newClient: newClient}
}

// Login verifies the credentials against the backend, then persists the
// sealed session and a restore token for the next run.
func (s *SessionService) Login(ctx context.Context, username, password string) (domain.Identity, *rest.Client, error) {
	creds := domain.Credentials{Username: username, Password: password}
	client := s.newClient(creds)

	// Any authenticated endpoint works as a probe; the profile also gives
	// us the display name.
	if _, err := client.GetProfile(ctx, domain.UserID(username)); err != nil {
		if stderrors.Is(err, errors.ErrUnauthorized) {
			return domain.Identity{}, nil, errors.ErrInvalidCredentials
		}
		return domain.Identity{}, nil, err
	}

	identity := domain.Identity{
		UserID:      domain.UserID(username),
		DisplayName: username,
		Credentials: creds,
	}
	if err := s.store.SaveSession(identity); err != nil {
		return domain.Identity{}, nil, err
	}

	secret, err := s.store.SealKey()
	if err != nil {
		return domain.Identity{}, nil, err
	}
	token, err := auth.MintSessionToken(identity, secret, sessionTTL)
	if err != nil {
		return domain.Identity{}, nil, err
	}
	if err = s.store.SaveToken(token); err != nil {
		return domain.Identity{}, nil, err
	}

	s.log.Info("session opened", "user", username)
	return identity, client, nil
}

// Restore resumes the previous session without prompting: a valid restore
// token unlocks the sealed credentials. Any failure surfaces as
// ErrSessionNotFound and the caller falls back to Login.
func (s *SessionService) Restore(ctx context.Context) (domain.Identity, *rest.Client, error) {
	token, err := s.store.LoadToken()
	if err != nil {
		return domain.Identity{}, nil, err
	}
	secret, err := s.store.SealKey()
	if err != nil {
		return domain.Identity{}, nil, err
	}
	claims, err := auth.ParseSessionToken(token, secret)
	if err != nil {
		return domain.Identity{}, nil, err
	}

	identity, err := s.store.LoadSession()
	if err != nil {
		return domain.Identity{}, nil, err
	}
	if string(identity.UserID) != claims.UserID {
		return domain.Identity{}, nil, errors.ErrSessionNotFound
	}

	s.log.Info("session restored", "user", identity.UserID)
	return identity, s.newClient(identity.Credentials), nil
}

// ValidateRegistration gives field-level feedback on a signup form before
// the user leaves the client.
func (s *SessionService) ValidateRegistration(username, displayName, password string) error {
	return auth.ValidateRegister(auth.RegisterRequest{
		Username:    username,
		DisplayName: displayName,
		Password:    password,
	})
}

// Logout drops the stored session. The engine's own Logout handles the
// in-memory side.
func (s *SessionService) Logout(context.Context) error {
	return s.store.ClearSession()
}
