package models

import "time"

// DeploymentStatus represents the current state of a deployment record.
type DeploymentStatus string

const (
	DeploymentStatusDeploying DeploymentStatus = "deploying"
	DeploymentStatusDeployed  DeploymentStatus = "deployed"
	DeploymentStatusFailed    DeploymentStatus = "failed"
)

// IsTerminal returns true if the record has resolved.
func (s DeploymentStatus) IsTerminal() bool {
	return s == DeploymentStatusDeployed || s == DeploymentStatusFailed
}

// Provider identifies a hosting provider.
type Provider string

const (
	ProviderNetlify    Provider = "netlify"
	ProviderVercel     Provider = "vercel"
	ProviderCloudflare Provider = "cloudflare"
	ProviderStub       Provider = "stub"
)

// IsValid returns true if the provider is supported.
func (p Provider) IsValid() bool {
	switch p {
	case ProviderNetlify, ProviderVercel, ProviderCloudflare, ProviderStub:
		return true
	default:
		return false
	}
}

// DeploymentTrigger records which operation created a deployment record.
type DeploymentTrigger string

const (
	TriggerSubmit   DeploymentTrigger = "submit"
	TriggerRedeploy DeploymentTrigger = "redeploy"
	TriggerRetry    DeploymentTrigger = "retry"
)

// DeploymentErrorCode classifies a deployment failure.
type DeploymentErrorCode string

const (
	DeploymentErrorProvider    DeploymentErrorCode = "provider_failure"
	DeploymentErrorTimeout     DeploymentErrorCode = "timeout"
	DeploymentErrorInterrupted DeploymentErrorCode = "interrupted"
)

// DeploymentError is the structured failure stored on a failed record.
type DeploymentError struct {
	Code    DeploymentErrorCode `json:"code"`
	Message string              `json:"message"`
	Cause   string              `json:"cause,omitempty"`
}

// DeploymentRecord is the persisted state of one deployment attempt.
type DeploymentRecord struct {
	ID       string            `json:"id"`
	SiteID   string            `json:"site_id"`
	Provider Provider          `json:"provider"`
	Status   DeploymentStatus  `json:"status"`
	Trigger  DeploymentTrigger `json:"trigger"`
	// SubmittedConfig is immutable once the record is created.
	SubmittedConfig SiteConfig       `json:"submitted_config"`
	ConfigHash      string           `json:"config_hash"`
	URL             string           `json:"url,omitempty"`
	Error           *DeploymentError `json:"error,omitempty"`
	SubmittedAt     time.Time        `json:"submitted_at"`
	ResolvedAt      *time.Time       `json:"resolved_at,omitempty"`
}

// Clone returns a copy of the record that shares no pointers with r.
func (r *DeploymentRecord) Clone() *DeploymentRecord {
	if r == nil {
		return nil
	}
	c := *r
	if r.Error != nil {
		e := *r.Error
		c.Error = &e
	}
	if r.ResolvedAt != nil {
		t := *r.ResolvedAt
		c.ResolvedAt = &t
	}
	return &c
}
