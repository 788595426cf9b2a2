package preview

import (
	"math"
	"strings"
	"testing"

	"github.com/narvanalabs/sitebuilder/internal/models"
	"github.com/narvanalabs/sitebuilder/internal/templates"
	"github.com/narvanalabs/sitebuilder/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleItems() []models.MenuItemSample {
	return []models.MenuItemSample{
		{Name: "Tagliatelle", Price: 1450, Category: "Mains", ImageURL: "https://img.example.com/t.jpg"},
		{Name: "Bruschetta", Price: 650, Category: "Starters"},
		{Name: "Lasagna", Description: "Nonna's recipe", Price: 1600, Category: "Mains"},
		{Name: "Espresso", Price: 300},
	}
}

func TestRenderGroupsByCategoryInInputOrder(t *testing.T) {
	tree := Render(testutil.BellasConfig(), sampleItems())

	menu := tree.Find(KindMenu)
	require.NotNil(t, menu)

	var names []string
	for _, c := range menu.Children {
		if c.Kind == KindCategory {
			names = append(names, c.Children[0].Text)
		}
	}
	assert.Equal(t, []string{"Mains", "Starters", uncategorized}, names)

	mains := menu.Children[1].Children[1]
	require.Len(t, mains.Children, 2)
	assert.Equal(t, "Tagliatelle", textOf(mains.Children[0], KindHeading))
	assert.Equal(t, "Lasagna", textOf(mains.Children[1], KindHeading))
}

func TestRenderMenuLayouts(t *testing.T) {
	cfg := testutil.BellasConfig()
	cfg.Layout.MenuLayout = models.MenuLayoutList
	item := Render(cfg, sampleItems()).Find(KindItem)
	require.NotNil(t, item)
	assert.Nil(t, find(item, KindImage), "list layout has no item images")

	cfg.Layout.MenuLayout = models.MenuLayoutGrid
	tree := Render(cfg, sampleItems())
	assert.NotNil(t, find(tree.Find(KindItem), KindImage))
	assert.Contains(t, tree.Find(KindCategory).Children[1].Class, "grid")
}

func TestRenderFallsBackToTemplateColors(t *testing.T) {
	cfg := testutil.BellasConfig()
	cfg.Template = models.TemplateClassic
	cfg.Colors.Primary = "not-a-color"
	cfg.Colors.Accent = "FFAA00"

	classic, err := templates.Get(models.TemplateClassic)
	require.NoError(t, err)

	tree := Render(cfg, nil)
	assert.Equal(t, classic.Colors.Primary, tree.Theme.Primary)
	assert.Equal(t, "#ffaa00", tree.Theme.Accent)
}

func TestRenderUnknownTemplateUsesModern(t *testing.T) {
	cfg := testutil.BellasConfig()
	cfg.Template = "neon"
	cfg.Colors = models.Colors{}
	cfg.Layout.HeaderStyle = "wavy"

	modern, _ := templates.Get(models.TemplateModern)
	tree := Render(cfg, nil)
	assert.Equal(t, modern.Colors, tree.Theme)
	assert.NotNil(t, tree.Find(KindHeader))
}

func TestRenderEmptyMenu(t *testing.T) {
	tree := Render(testutil.BellasConfig(), nil)
	assert.NotNil(t, tree.Find(KindEmpty))
	assert.NotContains(t, tree.Sections(), KindGallery)
}

func TestRenderThemeVariablesOnRoot(t *testing.T) {
	tree := Render(testutil.BellasConfig(), nil)
	props := map[string]string{}
	for i, d := range tree.Root.Style {
		props[d.Property] = d.Value
		if i > 0 {
			assert.Less(t, tree.Root.Style[i-1].Property, d.Property)
		}
	}
	assert.Equal(t, tree.Theme.Primary, props["--color-primary"])
	assert.Equal(t, "var(--color-background)", props["background-color"])
}

func TestWriteHTMLEscapes(t *testing.T) {
	cfg := testutil.BellasConfig()
	cfg.Content.BrandName = `<script>alert("x")</script>`
	out, err := HTML(Render(cfg, sampleItems()))
	require.NoError(t, err)

	s := string(out)
	assert.True(t, strings.HasPrefix(s, "<!DOCTYPE html>"))
	assert.NotContains(t, s, "<script>")
	assert.Contains(t, s, "&lt;script&gt;")
	assert.Contains(t, s, `<title>Bella&#39;s | New York</title>`)
	assert.Contains(t, s, `id="menu"`)
	assert.Contains(t, s, "$14.50")
}

func TestWriteHTMLRejectsEmptyTree(t *testing.T) {
	assert.Error(t, WriteHTML(&strings.Builder{}, nil))
}

func TestFormatPrice(t *testing.T) {
	cases := map[int64]string{
		0:      "$0.00",
		5:      "$0.05",
		1250:   "$12.50",
		100000: "$1000.00",
		-199:   "-$1.99",

		math.MaxInt64: "$92233720368547758.07",
		math.MinInt64: "-$92233720368547758.08",
	}
	for cents, want := range cases {
		assert.Equal(t, want, FormatPrice(cents))
	}
}

func textOf(n *Node, kind Kind) string {
	if found := find(n, kind); found != nil {
		return found.Text
	}
	return ""
}
