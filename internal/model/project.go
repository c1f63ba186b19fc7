package model

import "time"

// Status is the lifecycle state of a proposal.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusSent     Status = "sent"
	StatusViewed   Status = "viewed"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusRevised  Status = "revised"
)

// ParseStatus maps a raw string onto a known Status.
func ParseStatus(s string) (Status, bool) {
	switch st := Status(s); st {
	case StatusDraft, StatusSent, StatusViewed, StatusApproved, StatusRejected, StatusRevised:
		return st, true
	}
	return "", false
}

// StatusEntry is one row of a project's append-only status history.
type StatusEntry struct {
	Status    Status    `json:"status"`
	ChangedAt time.Time `json:"changedAt"`
	ChangedBy string    `json:"changedBy"`
	Note      *string   `json:"note,omitempty"`
}

// ProjectSettings holds the per-project portal switches.
type ProjectSettings struct {
	AllowApproval bool `json:"allowApproval"`
}

// Project mirrors the `projects` table plus its history rows.
//
// Fields:
//  ID            – internal primary key, never sent to clients.
//  ProjectID     – stable external identifier used in portal URLs.
//  AccessCode    – shared secret (plain or bcrypt hash), never sent to clients.
//  StatusHistory – ordered oldest first; the last entry matches Status.
type Project struct {
	ID            uint64
	ProjectID     string
	Title         string
	AccessCode    string
	ClientEmail   string
	Status        Status
	StatusHistory []StatusEntry
	Settings      ProjectSettings
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ProjectView is the client-facing shape of a Project, without the access
// code or internal identifier.
type ProjectView struct {
	ProjectID     string          `json:"projectId"`
	Title         string          `json:"title"`
	ClientEmail   string          `json:"clientEmail"`
	Status        Status          `json:"status"`
	StatusHistory []StatusEntry   `json:"statusHistory"`
	Settings      ProjectSettings `json:"settings"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// View strips secrets from p.
func (p Project) View() ProjectView {
	history := p.StatusHistory
	if history == nil {
		history = []StatusEntry{}
	}
	return ProjectView{
		ProjectID:     p.ProjectID,
		Title:         p.Title,
		ClientEmail:   p.ClientEmail,
		Status:        p.Status,
		StatusHistory: history,
		Settings:      p.Settings,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}
