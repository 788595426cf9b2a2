package preview

import (
	"fmt"
	"strings"

	twmerge "github.com/Oudwins/tailwind-merge-go"
	"github.com/narvanalabs/sitebuilder/internal/models"
	"github.com/narvanalabs/sitebuilder/internal/siteconfig"
	"github.com/narvanalabs/sitebuilder/internal/templates"
)

// uncategorized labels menu items without a category.
const uncategorized = "Other"

// Base utility classes per section. Variants are merged on top with
// tailwind-merge so later classes win over conflicting base ones.
const (
	pageClass     = "min-h-screen font-sans antialiased"
	headerClass   = "px-6 py-4 flex flex-col gap-1"
	heroClass     = "px-6 py-16 text-center"
	sectionClass  = "px-6 py-12"
	buttonClass   = "inline-block rounded px-5 py-2 font-semibold text-white"
	menuGridClass = "grid grid-cols-1 gap-6 md:grid-cols-2"
	menuListClass = "flex flex-col divide-y"
	itemClass     = "flex gap-4 py-3"
	footerClass   = "px-6 py-8 text-sm"
)

// Render builds the preview tree for cfg and the sample items. It is pure:
// equal inputs yield deeply equal trees. Invalid colors and layout values
// fall back to the template defaults, and an unknown template falls back to
// the modern preset, so Render never fails.
func Render(cfg models.SiteConfig, items []models.MenuItemSample) *Tree {
	cfg = resolve(cfg)

	root := &Node{
		Kind:  KindPage,
		Tag:   "div",
		Class: pageClass,
		Style: style(themeVars(cfg.Colors)),
	}

	root.Children = append(root.Children, renderHeader(cfg))
	if cfg.Layout.ShowHero {
		root.Children = append(root.Children, renderHero(cfg))
	}
	if cfg.Layout.ShowFeatures {
		root.Children = append(root.Children, renderFeatures(cfg, items))
	}
	root.Children = append(root.Children, renderMenu(cfg, items))
	if cfg.Layout.ShowGallery && hasImages(items) {
		root.Children = append(root.Children, renderGallery(items))
	}
	root.Children = append(root.Children, renderFooter(cfg))

	return &Tree{
		Title:       cfg.SEO.MetaTitle,
		Description: cfg.SEO.MetaDescription,
		Theme:       cfg.Colors,
		Root:        root,
	}
}

// resolve repairs colors and layout enums against the template defaults.
func resolve(cfg models.SiteConfig) models.SiteConfig {
	preset, err := templates.Get(cfg.Template)
	if err != nil {
		preset, _ = templates.Get(models.TemplateModern)
	}
	cfg.Colors = siteconfig.RepairColors(cfg.Colors, preset.Colors)
	if !cfg.Layout.HeaderStyle.IsValid() {
		cfg.Layout.HeaderStyle = preset.Layout.HeaderStyle
	}
	if !cfg.Layout.MenuLayout.IsValid() {
		cfg.Layout.MenuLayout = preset.Layout.MenuLayout
	}
	return cfg
}

func themeVars(c models.Colors) map[string]string {
	vars := map[string]string{
		"background-color": "var(--color-background)",
		"color":            "var(--color-text)",
	}
	for _, slot := range c.Slots() {
		vars["--color-"+slot[0]] = slot[1]
	}
	return vars
}

func renderHeader(cfg models.SiteConfig) *Node {
	n := &Node{Kind: KindHeader, Tag: "header"}
	switch cfg.Layout.HeaderStyle {
	case models.HeaderStyleGradient:
		n.Class = twmerge.Merge(headerClass, "text-white")
		n.Style = style(map[string]string{
			"background": fmt.Sprintf("linear-gradient(135deg, %s, %s)", cfg.Colors.Primary, cfg.Colors.Secondary),
		})
	case models.HeaderStyleSolid:
		n.Class = twmerge.Merge(headerClass, "text-white")
		n.Style = style(map[string]string{"background-color": cfg.Colors.Primary})
	default:
		n.Class = twmerge.Merge(headerClass, "py-6 border-b")
		n.Style = style(map[string]string{"border-color": cfg.Colors.Accent})
	}

	n.Children = append(n.Children, text(KindHeading, "h1", "text-2xl font-bold", cfg.Content.BrandName))
	if cfg.Content.Tagline != "" {
		n.Children = append(n.Children, text(KindText, "p", "opacity-90", cfg.Content.Tagline))
	}
	return n
}

func renderHero(cfg models.SiteConfig) *Node {
	n := &Node{Kind: KindHero, Tag: "section", Class: heroClass}
	n.Children = append(n.Children, text(KindHeading, "h2", "text-4xl font-bold", cfg.Content.HeroTitle))
	if cfg.Content.HeroSubtitle != "" {
		n.Children = append(n.Children, text(KindText, "p", "mt-4 text-lg", cfg.Content.HeroSubtitle))
	}
	if cfg.Content.HeroCTA != "" {
		cta := text(KindLink, "a", twmerge.Merge(buttonClass, "mt-8"), cfg.Content.HeroCTA)
		cta.Attrs = attrs(map[string]string{"href": "#menu"})
		cta.Style = style(map[string]string{"background-color": cfg.Colors.Accent})
		n.Children = append(n.Children, cta)
	}
	return n
}

func renderFeatures(cfg models.SiteConfig, items []models.MenuItemSample) *Node {
	n := &Node{Kind: KindFeatures, Tag: "section", Class: twmerge.Merge(sectionClass, "grid gap-6 md:grid-cols-3")}

	feature := func(title, body string) *Node {
		f := &Node{Kind: KindFeature, Tag: "div", Class: "rounded-lg p-6 shadow-sm"}
		f.Style = style(map[string]string{"border-top": "4px solid " + cfg.Colors.Primary})
		f.Children = []*Node{
			text(KindHeading, "h3", "text-lg font-semibold", title),
			text(KindText, "p", "mt-2", body),
		}
		return f
	}

	n.Children = append(n.Children, feature("Our Menu", dishCount(len(items))))
	ci := cfg.Content.ContactInfo
	if ci.Address != "" {
		n.Children = append(n.Children, feature("Visit Us", ci.Address))
	}
	if reach := joinNonEmpty(" · ", ci.Phone, ci.Email); reach != "" {
		n.Children = append(n.Children, feature("Get in Touch", reach))
	}
	return n
}

func renderMenu(cfg models.SiteConfig, items []models.MenuItemSample) *Node {
	n := &Node{Kind: KindMenu, Tag: "section", Class: sectionClass, Attrs: attrs(map[string]string{"id": "menu"})}
	heading := text(KindHeading, "h2", "text-3xl font-bold", "Menu")
	heading.Style = style(map[string]string{"color": cfg.Colors.Primary})
	n.Children = append(n.Children, heading)

	if len(items) == 0 {
		n.Children = append(n.Children, text(KindEmpty, "p", "italic opacity-70", "Menu coming soon"))
		return n
	}

	grid := cfg.Layout.MenuLayout == models.MenuLayoutGrid
	containerClass := menuListClass
	if grid {
		containerClass = menuGridClass
	}

	for _, group := range groupByCategory(items) {
		cat := &Node{Kind: KindCategory, Tag: "div", Class: "mt-8"}
		cat.Children = append(cat.Children, text(KindHeading, "h3", "text-xl font-semibold", group.name))
		list := &Node{Kind: KindMenu, Tag: "div", Class: twmerge.Merge(containerClass, "mt-4")}
		for _, item := range group.items {
			list.Children = append(list.Children, renderItem(cfg, item, grid))
		}
		cat.Children = append(cat.Children, list)
		n.Children = append(n.Children, cat)
	}
	return n
}

func renderItem(cfg models.SiteConfig, item models.MenuItemSample, grid bool) *Node {
	class := itemClass
	if grid {
		class = twmerge.Merge(itemClass, "flex-col rounded-lg p-4 shadow-sm")
	}
	n := &Node{Kind: KindItem, Tag: "article", Class: class}
	if grid && item.ImageURL != "" {
		n.Children = append(n.Children, image(item, "h-40 w-full rounded object-cover"))
	}
	n.Children = append(n.Children, text(KindHeading, "h4", "font-semibold", item.Name))
	if item.Description != "" {
		n.Children = append(n.Children, text(KindText, "p", "text-sm opacity-80", item.Description))
	}
	price := text(KindPrice, "span", "font-bold", FormatPrice(item.Price))
	price.Style = style(map[string]string{"color": cfg.Colors.Accent})
	n.Children = append(n.Children, price)
	return n
}

func renderGallery(items []models.MenuItemSample) *Node {
	n := &Node{Kind: KindGallery, Tag: "section", Class: twmerge.Merge(sectionClass, "grid grid-cols-2 gap-4 md:grid-cols-4")}
	for _, item := range items {
		if item.ImageURL == "" {
			continue
		}
		n.Children = append(n.Children, image(item, "aspect-square w-full rounded object-cover"))
	}
	return n
}

func renderFooter(cfg models.SiteConfig) *Node {
	n := &Node{Kind: KindFooter, Tag: "footer", Class: footerClass}
	n.Style = style(map[string]string{
		"background-color": cfg.Colors.Secondary,
		"color":            cfg.Colors.Background,
	})
	n.Children = append(n.Children, text(KindHeading, "p", "font-semibold", cfg.Content.BrandName))
	ci := cfg.Content.ContactInfo
	for _, line := range []string{ci.Address, ci.Phone, ci.Email} {
		if line != "" {
			n.Children = append(n.Children, text(KindText, "p", "", line))
		}
	}
	n.Children = append(n.Children, text(KindText, "p", "mt-4 opacity-70", "© "+cfg.Content.BrandName))
	return n
}

func image(item models.MenuItemSample, class string) *Node {
	return &Node{
		Kind:  KindImage,
		Tag:   "img",
		Class: class,
		Attrs: attrs(map[string]string{"src": item.ImageURL, "alt": item.Name, "loading": "lazy"}),
	}
}

type category struct {
	name  string
	items []models.MenuItemSample
}

// groupByCategory groups items by category, ordering groups by first
// appearance and keeping input order within a group.
func groupByCategory(items []models.MenuItemSample) []category {
	var groups []category
	index := make(map[string]int)
	for _, item := range items {
		name := strings.TrimSpace(item.Category)
		if name == "" {
			name = uncategorized
		}
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, category{name: name})
		}
		groups[i].items = append(groups[i].items, item)
	}
	return groups
}

func hasImages(items []models.MenuItemSample) bool {
	for _, item := range items {
		if item.ImageURL != "" {
			return true
		}
	}
	return false
}

func dishCount(n int) string {
	switch n {
	case 0:
		return "A new menu is on its way."
	case 1:
		return "1 dish to discover."
	default:
		return fmt.Sprintf("%d dishes to discover.", n)
	}
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

// FormatPrice renders an amount in cents as dollars, e.g. 1250 -> "$12.50".
func FormatPrice(cents int64) string {
	sign, abs := "", uint64(cents)
	if cents < 0 {
		// -(cents+1) cannot overflow, even for math.MinInt64.
		sign, abs = "-", uint64(-(cents+1))+1
	}
	return fmt.Sprintf("%s$%d.%02d", sign, abs/100, abs%100)
}
