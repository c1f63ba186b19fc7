package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/iliyamo/client-portal/internal/model"
	"github.com/iliyamo/client-portal/internal/queue"
	"github.com/iliyamo/client-portal/internal/repository"
	"github.com/iliyamo/client-portal/internal/utils"
)

// MaxNoteLength bounds the free-text note of a client response, in runes.
const MaxNoteLength = 2000

// clientMarker is recorded as changedBy when the session has no email.
const clientMarker = "client"

const analyticsTimeout = 5 * time.Second

// Analytics receives best-effort portal notifications.
type Analytics interface {
	NotifyPortalViewed(ctx context.Context, ev queue.PortalViewedEvent) error
}

// RequestInfo is the request context passed along to analytics.
type RequestInfo struct {
	IPAddress string
	UserAgent string
	Referer   string
}

// AuthResult is the outcome of a successful Authenticate call.
type AuthResult struct {
	Token     string
	SessionID string
	ExpiresAt time.Time
	Project   model.ProjectView
}

// RespondRequest carries a client's answer to a proposal.
type RespondRequest struct {
	ProjectID string
	Status    string
	Note      *string
	Session   utils.ClientClaims
}

// PortalService runs the authenticate and respond flows.
type PortalService struct {
	Projects  ProjectStore
	Verifier  *Verifier
	Sessions  *SessionService
	Analytics Analytics // nil disables notifications
	Log       *zap.SugaredLogger
}

func NewPortalService(projects ProjectStore, sessions *SessionService, analytics Analytics, lg *zap.SugaredLogger) *PortalService {
	if lg == nil {
		lg = zap.NewNop().Sugar()
	}
	return &PortalService{
		Projects:  projects,
		Verifier:  NewVerifier(projects),
		Sessions:  sessions,
		Analytics: analytics,
		Log:       lg,
	}
}

func changedBy(email string) string {
	if strings.TrimSpace(email) == "" {
		return clientMarker
	}
	return email
}

// Authenticate verifies the access code, issues a session, moves a sent
// proposal to viewed and fires the analytics notification.  The returned
// project has its secret fields stripped.
func (s *PortalService) Authenticate(ctx context.Context, projectID, accessCode string, info RequestInfo) (AuthResult, error) {
	access, err := s.Verifier.Verify(ctx, projectID, accessCode)
	if err != nil {
		return AuthResult{}, err
	}
	issued, err := s.Sessions.Issue(ctx, access, info.IPAddress)
	if err != nil {
		return AuthResult{}, err
	}

	project := access.Project()
	if project.Status == model.StatusSent {
		project, err = s.markViewed(ctx, project, issued.Session)
		if err != nil {
			s.dropSession(ctx, issued.Session.SessionID)
			return AuthResult{}, err
		}
	}

	s.notifyViewed(ctx, issued.Session, info)

	return AuthResult{
		Token:     issued.Token,
		SessionID: issued.Session.SessionID,
		ExpiresAt: issued.Session.ExpiresAt,
		Project:   project.View(),
	}, nil
}

// markViewed applies sent -> viewed.  When a concurrent first view won the
// race the guard fails and no entry is appended; the project is reloaded
// either way so the caller sees the stored state.
func (s *PortalService) markViewed(ctx context.Context, p model.Project, sess model.ClientSession) (model.Project, error) {
	entry := model.StatusEntry{
		Status:    model.StatusViewed,
		ChangedAt: s.Sessions.now(),
		ChangedBy: changedBy(sess.ClientEmail),
	}
	applied, err := s.Projects.ApplyTransition(ctx, p.ProjectID, sourcesFor(TriggerFirstView, model.StatusViewed), entry)
	if err != nil {
		return model.Project{}, fmt.Errorf("%w: mark viewed: %w", ErrInternal, err)
	}
	s.Log.Debugw("first view transition", "project_id", p.ProjectID, "applied", applied)
	fresh, err := s.Projects.FindByProjectID(ctx, p.ProjectID)
	if err != nil {
		return model.Project{}, fmt.Errorf("%w: reload project: %w", ErrInternal, err)
	}
	return fresh, nil
}

// dropSession revokes a session whose authenticate call is failing, so no
// live record outlives the error response.
func (s *PortalService) dropSession(ctx context.Context, sessionID string) {
	if err := s.Sessions.Revoke(context.WithoutCancel(ctx), sessionID); err != nil {
		s.Log.Errorw("revoke session after failed authenticate", "session_id", sessionID, "error", err)
	}
}

// notifyViewed runs the analytics hook in its own goroutine.  It never
// blocks the caller and its failures are only logged.
func (s *PortalService) notifyViewed(ctx context.Context, sess model.ClientSession, info RequestInfo) {
	if s.Analytics == nil {
		return
	}
	ev := queue.PortalViewedEvent{
		ProjectID:   sess.ProjectID,
		ClientEmail: sess.ClientEmail,
		SessionID:   sess.SessionID,
		IPAddress:   info.IPAddress,
		UserAgent:   info.UserAgent,
		Referer:     info.Referer,
		ViewedAt:    sess.CreatedAt.Format(time.RFC3339),
	}
	bg := context.WithoutCancel(ctx)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.Log.Errorw("analytics notify panicked", "project_id", ev.ProjectID, "panic", r)
			}
		}()
		nctx, cancel := context.WithTimeout(bg, analyticsTimeout)
		defer cancel()
		if err := s.Analytics.NotifyPortalViewed(nctx, ev); err != nil {
			s.Log.Warnw("analytics notify failed", "project_id", ev.ProjectID, "error", err)
		}
	}()
}

// Respond records a client's approve/reject/revise answer.  Checks run in
// order: project exists, approvals enabled, target allowed, note bounded,
// transition legal from the current status.
func (s *PortalService) Respond(ctx context.Context, req RespondRequest) (model.Status, error) {
	if req.Session.ProjectID != req.ProjectID {
		return "", ErrUnauthorized
	}
	p, err := s.Projects.FindByProjectID(ctx, req.ProjectID)
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: load project: %w", ErrInternal, err)
	}
	if !p.Settings.AllowApproval {
		return "", ErrForbidden
	}
	target, ok := model.ParseStatus(req.Status)
	if !ok || !IsClientTarget(target) {
		return "", fmt.Errorf("%w: status must be one of approved, rejected, revised", ErrInvalidInput)
	}
	note := req.Note
	if note != nil {
		if utf8.RuneCountInString(*note) > MaxNoteLength {
			return "", fmt.Errorf("%w: note exceeds %d characters", ErrInvalidInput, MaxNoteLength)
		}
		if strings.TrimSpace(*note) == "" {
			note = nil
		}
	}
	if !CanTransition(p.Status, TriggerClientResponse, target) {
		return "", fmt.Errorf("%w: cannot respond to a %s proposal", ErrConflict, p.Status)
	}

	entry := model.StatusEntry{
		Status:    target,
		ChangedAt: s.Sessions.now(),
		ChangedBy: changedBy(req.Session.ClientEmail),
		Note:      note,
	}
	applied, err := s.Projects.ApplyTransition(ctx, p.ProjectID, sourcesFor(TriggerClientResponse, target), entry)
	if err != nil {
		return "", fmt.Errorf("%w: apply response: %w", ErrInternal, err)
	}
	if !applied {
		return "", fmt.Errorf("%w: proposal status changed concurrently", ErrConflict)
	}
	return target, nil
}

// Project returns the sanitized project for an established session.
func (s *PortalService) Project(ctx context.Context, projectID string) (model.ProjectView, error) {
	p, err := s.Projects.FindByProjectID(ctx, projectID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.ProjectView{}, ErrNotFound
	}
	if err != nil {
		return model.ProjectView{}, fmt.Errorf("%w: load project: %w", ErrInternal, err)
	}
	return p.View(), nil
}

// History returns the status history of a project.
func (s *PortalService) History(ctx context.Context, projectID string) ([]model.StatusEntry, error) {
	if _, err := s.Project(ctx, projectID); err != nil {
		return nil, err
	}
	h, err := s.Projects.History(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("%w: load history: %w", ErrInternal, err)
	}
	return h, nil
}
