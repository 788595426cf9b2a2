package deploy

import (
	"errors"
	"fmt"

	"github.com/narvanalabs/sitebuilder/internal/models"
)

var (
	// ErrAlreadyInFlight is returned when a site already has a deployment
	// waiting on the hosting provider.
	ErrAlreadyInFlight = errors.New("a deployment is already in flight for this site")

	// ErrIllegalTransition is returned when an operation is not allowed in
	// the site's current state, e.g. retry while deployed.
	ErrIllegalTransition = errors.New("illegal deployment transition")

	// ErrProviderFailure classifies failures reported by the hosting adapter.
	ErrProviderFailure = errors.New("hosting provider failure")

	// ErrTimeout classifies deployments the provider did not resolve in time.
	ErrTimeout = errors.New("deployment timed out")

	// ErrNoDeployments is returned by Wait for a site that was never submitted.
	ErrNoDeployments = errors.New("site has no deployments")

	// ErrShuttingDown is returned for operations started after Shutdown.
	ErrShuttingDown = errors.New("deployment controller is shutting down")
)

// IllegalTransitionError describes a rejected operation.
type IllegalTransitionError struct {
	From   models.SiteState
	Action models.SiteAction
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("cannot %s a site in state %s", e.Action, e.From)
}

// Unwrap returns ErrIllegalTransition.
func (e *IllegalTransitionError) Unwrap() error {
	return ErrIllegalTransition
}

func illegal(from models.SiteState, action models.SiteAction) error {
	return &IllegalTransitionError{From: from, Action: action}
}

// Err returns the sentinel matching a failed record's error code, or nil if
// the record did not fail.
func Err(r *models.DeploymentRecord) error {
	if r == nil || r.Error == nil {
		return nil
	}
	switch r.Error.Code {
	case models.DeploymentErrorTimeout:
		return fmt.Errorf("%w: %s", ErrTimeout, r.Error.Message)
	default:
		return fmt.Errorf("%w: %s", ErrProviderFailure, r.Error.Message)
	}
}
