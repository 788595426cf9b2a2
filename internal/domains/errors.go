package domains

import (
	"errors"
	"fmt"

	"github.com/narvanalabs/sitebuilder/internal/models"
)

var (
	// ErrNotDeployedYet is returned when binding a domain to a site that is
	// not live.
	ErrNotDeployedYet = errors.New("site must be deployed before binding a domain")

	// ErrInvalidDomain is returned for values that are not fully qualified
	// domain names.
	ErrInvalidDomain = errors.New("invalid domain")

	// ErrDomainInUse is returned when another site already owns the domain.
	ErrDomainInUse = errors.New("domain is bound to another site")

	// ErrNotBound is returned when the site has no custom domain.
	ErrNotBound = errors.New("no custom domain bound")

	// ErrSSLProvisioningFailed is reported for bindings whose certificate
	// could not be issued.
	ErrSSLProvisioningFailed = errors.New("ssl provisioning failed")

	// ErrInvalidSSLStatus is returned by HandleSSLStatus for unknown statuses.
	ErrInvalidSSLStatus = errors.New("invalid ssl status")
)

// Err returns ErrSSLProvisioningFailed for a failed binding and nil otherwise.
func Err(b *models.DomainBinding) error {
	if b == nil || b.SSLStatus != models.SSLStatusFailed {
		return nil
	}
	if b.Error == "" {
		return ErrSSLProvisioningFailed
	}
	return fmt.Errorf("%w: %s", ErrSSLProvisioningFailed, b.Error)
}
