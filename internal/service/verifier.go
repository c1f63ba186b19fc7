package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/iliyamo/client-portal/internal/model"
	"github.com/iliyamo/client-portal/internal/repository"
	"github.com/iliyamo/client-portal/internal/utils"
)

// ProjectStore is the project persistence the portal needs.
type ProjectStore interface {
	FindByProjectID(ctx context.Context, projectID string) (model.Project, error)
	History(ctx context.Context, projectID string) ([]model.StatusEntry, error)
	ApplyTransition(ctx context.Context, projectID string, from []model.Status, entry model.StatusEntry) (bool, error)
}

// VerifiedAccess is proof that a client presented the right access code
// for a project.  Only Verifier.Verify can produce a non-zero value, and
// SessionService.Issue refuses anything else.
type VerifiedAccess struct {
	project model.Project
}

// Project returns the project the code unlocked.
func (a VerifiedAccess) Project() model.Project { return a.project }

// Verifier checks client-submitted access codes.
type Verifier struct {
	Projects ProjectStore
}

func NewVerifier(p ProjectStore) *Verifier { return &Verifier{Projects: p} }

// Verify loads the project and compares code with its stored access code.
// It has no side effects.
func (v *Verifier) Verify(ctx context.Context, projectID, code string) (VerifiedAccess, error) {
	p, err := v.Projects.FindByProjectID(ctx, projectID)
	if errors.Is(err, repository.ErrNotFound) {
		return VerifiedAccess{}, ErrNotFound
	}
	if err != nil {
		return VerifiedAccess{}, fmt.Errorf("%w: load project: %w", ErrInternal, err)
	}
	if !utils.VerifyAccessCode(p.AccessCode, code) {
		return VerifiedAccess{}, ErrUnauthorized
	}
	return VerifiedAccess{project: p}, nil
}
