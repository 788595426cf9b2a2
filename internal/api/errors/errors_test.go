package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/narvanalabs/sitebuilder/internal/deploy"
	"github.com/narvanalabs/sitebuilder/internal/domains"
	"github.com/narvanalabs/sitebuilder/internal/models"
	"github.com/narvanalabs/sitebuilder/internal/siteconfig"
	"github.com/narvanalabs/sitebuilder/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromMapsEngineErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{&siteconfig.ValidationError{Missing: []string{siteconfig.FieldBrandName}}, http.StatusBadRequest, CodeValidationFailed},
		{&siteconfig.FieldError{Path: "colors.nope", Err: siteconfig.ErrUnknownField}, http.StatusBadRequest, CodeUnknownField},
		{&siteconfig.FieldError{Path: "colors.primary", Err: siteconfig.ErrInvalidValue}, http.StatusBadRequest, CodeInvalidValue},
		{fmt.Errorf("submit: %w", deploy.ErrAlreadyInFlight), http.StatusConflict, CodeAlreadyInFlight},
		{&deploy.IllegalTransitionError{From: models.SiteStateDeployed, Action: models.SiteActionRetry}, http.StatusConflict, CodeIllegalTransition},
		{domains.ErrNotDeployedYet, http.StatusConflict, CodeNotDeployed},
		{fmt.Errorf("%w: x", domains.ErrInvalidDomain), http.StatusBadRequest, CodeInvalidDomain},
		{domains.ErrNotBound, http.StatusNotFound, CodeNotBound},
		{fmt.Errorf("get: %w", store.ErrNotFound), http.StatusNotFound, CodeNotFound},
		{fmt.Errorf("boom"), http.StatusInternalServerError, CodeInternalError},
	}
	for _, tc := range cases {
		got := From(tc.err)
		assert.Equal(t, tc.status, got.Status, tc.err.Error())
		assert.Equal(t, tc.code, got.Code, tc.err.Error())
	}
}

func TestValidationDetailsListMissingFields(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, From(&siteconfig.ValidationError{
		Missing: []string{siteconfig.FieldBrandName, siteconfig.FieldContactInfo},
	}).WithRequestID("req-1"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body struct {
		Code      string `json:"code"`
		RequestID string `json:"request_id"`
		Details   struct {
			Missing []string `json:"missing"`
		} `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, CodeValidationFailed, body.Code)
	assert.Equal(t, "req-1", body.RequestID)
	assert.Equal(t, []string{"content.brandName", "content.contactInfo"}, body.Details.Missing)
}

// *For any* unexpected error, the response never echoes its message.
func TestInternalErrorsAreOpaqueProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("unknown errors map to a generic 500", prop.ForAll(
		func(msg string) bool {
			got := From(fmt.Errorf("secret detail %s", msg))
			return got.Status == http.StatusInternalServerError &&
				got.Code == CodeInternalError &&
				got.Message == "an unexpected error occurred"
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
