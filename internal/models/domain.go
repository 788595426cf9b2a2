package models

import "time"

// SSLStatus is the certificate provisioning state of a custom domain.
type SSLStatus string

const (
	SSLStatusPending SSLStatus = "pending"
	SSLStatusActive  SSLStatus = "active"
	SSLStatusFailed  SSLStatus = "failed"
)

// IsValid returns true if the status is known.
func (s SSLStatus) IsValid() bool {
	return s == SSLStatusPending || s == SSLStatusActive || s == SSLStatusFailed
}

// IsTerminal returns true once provisioning has finished either way.
func (s SSLStatus) IsTerminal() bool {
	return s == SSLStatusActive || s == SSLStatusFailed
}

// DomainBinding associates a deployed site with an owner-supplied domain.
type DomainBinding struct {
	SiteID     string     `json:"site_id"`
	Domain     string     `json:"domain"`
	SSLStatus  SSLStatus  `json:"ssl_status"`
	Error      string     `json:"error,omitempty"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
