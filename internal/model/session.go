package model

import "time"

// ClientSession models a row in `client_sessions`.  A session is live while
// ExpiresAt is in the future and the row still exists; deleting the row
// revokes the session even if the client's token has not expired.
type ClientSession struct {
	SessionID   string    `json:"sessionId"`
	ProjectID   string    `json:"projectId"`
	ClientEmail string    `json:"clientEmail"`
	IPAddress   string    `json:"ipAddress"`
	CreatedAt   time.Time `json:"createdAt"`
	ExpiresAt   time.Time `json:"expiresAt"`
}
