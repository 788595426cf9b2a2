package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/narvanalabs/sitebuilder/internal/api/handlers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type openAPIDoc struct {
	OpenAPI    string                          `yaml:"openapi"`
	Paths      map[string]map[string]yaml.Node `yaml:"paths"`
	Components struct {
		SecuritySchemes map[string]any `yaml:"securitySchemes"`
		Schemas         map[string]any `yaml:"schemas"`
	} `yaml:"components"`
}

func loadOpenAPIDoc(t *testing.T) *openAPIDoc {
	t.Helper()
	var doc openAPIDoc
	require.NoError(t, yaml.Unmarshal(handlers.OpenAPISpec(), &doc))
	return &doc
}

func TestEveryRouteIsDocumented(t *testing.T) {
	env := newTestEnv(t)
	doc := loadOpenAPIDoc(t)

	routed := map[string]bool{}
	err := chi.Walk(env.server.Router(), func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		if !strings.HasPrefix(route, "/v1/") {
			return nil
		}
		route = strings.TrimSuffix(route, "/")
		key := strings.ToLower(method) + " " + route
		routed[key] = true

		ops, ok := doc.Paths[route]
		if assert.True(t, ok, "route %s is not documented", route) {
			_, ok = ops[strings.ToLower(method)]
			assert.True(t, ok, "%s is not documented", key)
		}
		return nil
	})
	require.NoError(t, err)

	for path, ops := range doc.Paths {
		for method := range ops {
			if method == "parameters" {
				continue
			}
			assert.True(t, routed[method+" "+path], "documented %s %s has no route", method, path)
		}
	}
}

func TestOpenAPIDocShape(t *testing.T) {
	doc := loadOpenAPIDoc(t)
	assert.True(t, strings.HasPrefix(doc.OpenAPI, "3."))
	assert.Contains(t, doc.Components.SecuritySchemes, "bearerAuth")
	assert.Contains(t, doc.Components.SecuritySchemes, "hookSecret")
	assert.Contains(t, doc.Components.Schemas, "MenuItem")
}

func TestDocsEndpoints(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.http.URL + "/api/docs/openapi.yaml")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/yaml", resp.Header.Get("Content-Type"))

	resp, err = http.Get(env.http.URL + "/api/docs")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
}
