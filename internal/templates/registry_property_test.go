package templates

import (
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/narvanalabs/sitebuilder/internal/models"
)

func genTemplateID() gopter.Gen {
	return gen.OneConstOf(
		models.TemplateModern,
		models.TemplateClassic,
		models.TemplateMinimal,
		models.TemplateBold,
	)
}

func TestRegistryLookup(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("every valid id resolves to a preset with that id", prop.ForAll(
		func(id models.TemplateID) bool {
			p, err := Get(id)
			return err == nil && p.ID == id
		},
		genTemplateID(),
	))

	properties.Property("unknown ids fail with ErrTemplateNotFound", prop.ForAll(
		func(s string) bool {
			id := models.TemplateID(s)
			if id.IsValid() {
				return true
			}
			_, err := Get(id)
			return errors.Is(err, ErrTemplateNotFound)
		},
		gen.AlphaString(),
	))

	properties.Property("preset colors are normalized hex", prop.ForAll(
		func(id models.TemplateID) bool {
			p, _ := Get(id)
			for _, slot := range p.Colors.Slots() {
				if !models.IsHexColor(slot[1]) {
					return false
				}
			}
			return true
		},
		genTemplateID(),
	))

	properties.TestingRun(t)
}

func TestListOrder(t *testing.T) {
	got := List()
	want := models.ValidTemplateIDs()
	if len(got) != len(want) {
		t.Fatalf("expected %d presets, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].ID != want[i] {
			t.Errorf("preset %d: expected %s, got %s", i, want[i], got[i].ID)
		}
	}
}

func TestLoadRejectsMalformedCatalog(t *testing.T) {
	cases := map[string]string{
		"bad color": `presets:
  - id: modern
    colors: {primary: "red", secondary: "#000", background: "#fff", text: "#000", accent: "#000"}
    layout: {headerStyle: solid, menuLayout: grid}
`,
		"unknown id": `presets:
  - id: neon
    colors: {primary: "#fff", secondary: "#000", background: "#fff", text: "#000", accent: "#000"}
    layout: {headerStyle: solid, menuLayout: grid}
`,
		"bad layout": `presets:
  - id: bold
    colors: {primary: "#fff", secondary: "#000", background: "#fff", text: "#000", accent: "#000"}
    layout: {headerStyle: wavy, menuLayout: grid}
`,
		"duplicate": `presets:
  - id: bold
    colors: {primary: "#fff", secondary: "#000", background: "#fff", text: "#000", accent: "#000"}
    layout: {headerStyle: solid, menuLayout: grid}
  - id: bold
    colors: {primary: "#fff", secondary: "#000", background: "#fff", text: "#000", accent: "#000"}
    layout: {headerStyle: solid, menuLayout: grid}
`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load([]byte(doc)); !errors.Is(err, ErrInvalidPreset) {
				t.Fatalf("expected ErrInvalidPreset, got %v", err)
			}
		})
	}
}

func TestListReturnsCopy(t *testing.T) {
	a := List()
	a[0].Colors.Primary = "#123456"
	b := List()
	if b[0].Colors.Primary == "#123456" {
		t.Fatal("mutating List result changed the registry")
	}
}
