package models

// SiteState represents the deployment state of a site.
// It is derived from the site's latest deployment record.
type SiteState string

const (
	// SiteStateNotDeployed indicates the site has never been submitted.
	SiteStateNotDeployed SiteState = "not_deployed"
	// SiteStateDeploying indicates a deployment is in flight.
	SiteStateDeploying SiteState = "deploying"
	// SiteStateDeployed indicates the latest deployment succeeded.
	SiteStateDeployed SiteState = "deployed"
	// SiteStateFailed indicates the latest deployment failed.
	SiteStateFailed SiteState = "failed"
)

// SiteAction represents an action that can be performed on a site.
type SiteAction string

const (
	SiteActionDeploy     SiteAction = "deploy"
	SiteActionRedeploy   SiteAction = "redeploy"
	SiteActionRetry      SiteAction = "retry"
	SiteActionBindDomain SiteAction = "bind_domain"
)

// AvailableActions returns the actions available for a site in this state.
func (s SiteState) AvailableActions() []SiteAction {
	switch s {
	case SiteStateNotDeployed:
		return []SiteAction{SiteActionDeploy}
	case SiteStateDeploying:
		// No mid-flight cancellation; everything waits for resolution.
		return []SiteAction{}
	case SiteStateDeployed:
		return []SiteAction{SiteActionRedeploy, SiteActionBindDomain}
	case SiteStateFailed:
		return []SiteAction{SiteActionRetry, SiteActionDeploy}
	default:
		return []SiteAction{}
	}
}

// HasAction returns true if the given action is available for this state.
func (s SiteState) HasAction(action SiteAction) bool {
	for _, a := range s.AvailableActions() {
		if a == action {
			return true
		}
	}
	return false
}

// String returns the string representation of the site state.
func (s SiteState) String() string {
	return string(s)
}

// IsValid returns true if the site state is a valid state.
func (s SiteState) IsValid() bool {
	switch s {
	case SiteStateNotDeployed, SiteStateDeploying, SiteStateDeployed, SiteStateFailed:
		return true
	default:
		return false
	}
}

// ValidSiteStates returns all valid site states.
func ValidSiteStates() []SiteState {
	return []SiteState{
		SiteStateNotDeployed,
		SiteStateDeploying,
		SiteStateDeployed,
		SiteStateFailed,
	}
}

// DeriveSiteState derives the site state from the latest deployment record.
// If there is no record, the site is not deployed.
func DeriveSiteState(latest *DeploymentRecord) SiteState {
	if latest == nil {
		return SiteStateNotDeployed
	}

	switch latest.Status {
	case DeploymentStatusDeploying:
		return SiteStateDeploying
	case DeploymentStatusDeployed:
		return SiteStateDeployed
	case DeploymentStatusFailed:
		return SiteStateFailed
	default:
		return SiteStateNotDeployed
	}
}
