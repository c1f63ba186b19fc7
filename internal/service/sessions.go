package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/client-portal/internal/model"
	"github.com/iliyamo/client-portal/internal/repository"
	"github.com/iliyamo/client-portal/internal/utils"
)

// SessionTTL is the fixed lifetime of a client session, its token and its
// cookie.
const SessionTTL = 72 * time.Hour

// SessionStore is the client session persistence the portal needs.
type SessionStore interface {
	Insert(ctx context.Context, s model.ClientSession) error
	FindLive(ctx context.Context, sessionID string, now time.Time) (model.ClientSession, error)
	ListLive(ctx context.Context, projectID string, now time.Time) ([]model.ClientSession, error)
	Delete(ctx context.Context, sessionID string) error
	DeleteByProject(ctx context.Context, projectID string) (int64, error)
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// IssuedSession is what Issue hands back: the bearer token plus the
// persisted record it refers to.
type IssuedSession struct {
	Token   string
	Session model.ClientSession
}

// SessionService mints and validates client tokens.  A token is accepted
// only while its signature verifies AND its session row is still live, so
// deleting the row revokes access before the token itself expires.
type SessionService struct {
	Secret   []byte
	Sessions SessionStore
	Now      func() time.Time
}

// NewSessionService panics on an empty secret; configuration loading makes
// that a startup error before any request is served.
func NewSessionService(secret []byte, s SessionStore) *SessionService {
	if len(secret) == 0 {
		panic("empty portal signing secret")
	}
	return &SessionService{Secret: secret, Sessions: s, Now: time.Now}
}

func (s *SessionService) now() time.Time {
	return s.Now().UTC().Truncate(time.Second)
}

// NewSessionID returns a UUIDv7: a millisecond timestamp followed by random
// bits, so IDs sort by creation and never collide within a millisecond.
func NewSessionID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Issue creates a session for a verified client and signs its token.  The
// token's exp claim and the row's expires_at are the same instant.
func (s *SessionService) Issue(ctx context.Context, access VerifiedAccess, ipAddress string) (IssuedSession, error) {
	p := access.project
	if p.ProjectID == "" {
		return IssuedSession{}, ErrUnauthorized
	}
	sid, err := NewSessionID()
	if err != nil {
		return IssuedSession{}, fmt.Errorf("%w: session id: %w", ErrInternal, err)
	}
	created := s.now()
	sess := model.ClientSession{
		SessionID:   sid,
		ProjectID:   p.ProjectID,
		ClientEmail: p.ClientEmail,
		IPAddress:   ipAddress,
		CreatedAt:   created,
		ExpiresAt:   created.Add(SessionTTL),
	}
	token, err := utils.NewClientToken(s.Secret, sess.ProjectID, sess.ClientEmail, sess.SessionID, sess.CreatedAt, sess.ExpiresAt)
	if err != nil {
		return IssuedSession{}, fmt.Errorf("%w: sign token: %w", ErrInternal, err)
	}
	if err := s.Sessions.Insert(ctx, sess); err != nil {
		return IssuedSession{}, fmt.Errorf("%w: store session: %w", ErrInternal, err)
	}
	return IssuedSession{Token: token, Session: sess}, nil
}

// VerifySignature checks the token's signature and exp claim only.
func (s *SessionService) VerifySignature(token string) (utils.ClientClaims, error) {
	claims, err := utils.ParseClientToken(s.Secret, token, s.Now())
	if err != nil {
		return utils.ClientClaims{}, ErrUnauthorized
	}
	return claims, nil
}

// LookupLiveRecord finds the unexpired session row behind claims and checks
// it belongs to the same project and client.
func (s *SessionService) LookupLiveRecord(ctx context.Context, claims utils.ClientClaims) (model.ClientSession, error) {
	sess, err := s.Sessions.FindLive(ctx, claims.SessionID, s.Now())
	if errors.Is(err, repository.ErrNotFound) {
		return model.ClientSession{}, ErrUnauthorized
	}
	if err != nil {
		return model.ClientSession{}, fmt.Errorf("%w: load session: %w", ErrInternal, err)
	}
	if sess.ProjectID != claims.ProjectID || sess.ClientEmail != claims.ClientEmail {
		return model.ClientSession{}, ErrUnauthorized
	}
	return sess, nil
}

// Validate composes VerifySignature and LookupLiveRecord.  It returns
// ErrUnauthorized for any bad or revoked token and ErrInternal only when
// the store itself fails.
func (s *SessionService) Validate(ctx context.Context, token string) (utils.ClientClaims, error) {
	claims, err := s.VerifySignature(token)
	if err != nil {
		return utils.ClientClaims{}, err
	}
	if _, err := s.LookupLiveRecord(ctx, claims); err != nil {
		return utils.ClientClaims{}, err
	}
	return claims, nil
}

// Revoke deletes one session row.
func (s *SessionService) Revoke(ctx context.Context, sessionID string) error {
	err := s.Sessions.Delete(ctx, sessionID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: revoke session: %w", ErrInternal, err)
	}
	return nil
}

// RevokeProject deletes every session of a project.
func (s *SessionService) RevokeProject(ctx context.Context, projectID string) (int64, error) {
	n, err := s.Sessions.DeleteByProject(ctx, projectID)
	if err != nil {
		return 0, fmt.Errorf("%w: revoke project sessions: %w", ErrInternal, err)
	}
	return n, nil
}

// LiveSessions lists a project's unexpired sessions.
func (s *SessionService) LiveSessions(ctx context.Context, projectID string) ([]model.ClientSession, error) {
	out, err := s.Sessions.ListLive(ctx, projectID, s.Now())
	if err != nil {
		return nil, fmt.Errorf("%w: list sessions: %w", ErrInternal, err)
	}
	return out, nil
}

// PurgeExpired removes logically expired rows.
func (s *SessionService) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.Sessions.PurgeExpired(ctx, s.Now())
	if err != nil {
		return 0, fmt.Errorf("%w: purge sessions: %w", ErrInternal, err)
	}
	return n, nil
}
