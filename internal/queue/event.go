// Package queue defines the portal analytics payloads exchanged over
// RabbitMQ, along with their publisher and consumer.
package queue

// PortalViewedEvent is published after a client successfully authenticates
// into a project portal.  It carries enough context for analytics
// consumers to record the view without querying the primary database.
type PortalViewedEvent struct {
	ProjectID   string `json:"project_id"`
	ClientEmail string `json:"client_email"`
	SessionID   string `json:"session_id"`
	IPAddress   string `json:"ip_address"`
	UserAgent   string `json:"user_agent"`
	Referer     string `json:"referer,omitempty"`
	ViewedAt    string `json:"viewed_at"`
}
