// Package models provides data models for the site builder.
package models

// TemplateID identifies a template preset.
type TemplateID string

const (
	TemplateModern  TemplateID = "modern"
	TemplateClassic TemplateID = "classic"
	TemplateMinimal TemplateID = "minimal"
	TemplateBold    TemplateID = "bold"
)

// ValidTemplateIDs returns all template ids in catalog order.
func ValidTemplateIDs() []TemplateID {
	return []TemplateID{TemplateModern, TemplateClassic, TemplateMinimal, TemplateBold}
}

// IsValid returns true if the template id is known.
func (t TemplateID) IsValid() bool {
	for _, valid := range ValidTemplateIDs() {
		if t == valid {
			return true
		}
	}
	return false
}

// HeaderStyle selects how the site header is drawn.
type HeaderStyle string

const (
	HeaderStyleGradient HeaderStyle = "gradient"
	HeaderStyleSolid    HeaderStyle = "solid"
	HeaderStyleMinimal  HeaderStyle = "minimal"
)

// IsValid returns true if the header style is known.
func (h HeaderStyle) IsValid() bool {
	switch h {
	case HeaderStyleGradient, HeaderStyleSolid, HeaderStyleMinimal:
		return true
	default:
		return false
	}
}

// MenuLayout selects how menu items are arranged.
type MenuLayout string

const (
	MenuLayoutGrid MenuLayout = "grid"
	MenuLayoutList MenuLayout = "list"
)

// IsValid returns true if the menu layout is known.
func (m MenuLayout) IsValid() bool {
	return m == MenuLayoutGrid || m == MenuLayoutList
}

// Colors is the color palette of a site. Every slot holds a normalized
// "#rrggbb" or "#rgb" string.
type Colors struct {
	Primary    string `json:"primary" yaml:"primary"`
	Secondary  string `json:"secondary" yaml:"secondary"`
	Background string `json:"background" yaml:"background"`
	Text       string `json:"text" yaml:"text"`
	Accent     string `json:"accent" yaml:"accent"`
}

// Layout holds the structural toggles of a site.
type Layout struct {
	HeaderStyle  HeaderStyle `json:"headerStyle" yaml:"headerStyle"`
	MenuLayout   MenuLayout  `json:"menuLayout" yaml:"menuLayout"`
	ShowHero     bool        `json:"showHero" yaml:"showHero"`
	ShowFeatures bool        `json:"showFeatures" yaml:"showFeatures"`
	ShowGallery  bool        `json:"showGallery" yaml:"showGallery"`
}

// ContactInfo holds the ways a guest can reach the restaurant.
type ContactInfo struct {
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

// IsEmpty returns true if no contact method is set.
func (c ContactInfo) IsEmpty() bool {
	return c.Phone == "" && c.Email == "" && c.Address == ""
}

// Content holds the user-authored text of a site.
type Content struct {
	BrandName    string      `json:"brandName"`
	Tagline      string      `json:"tagline"`
	HeroTitle    string      `json:"heroTitle"`
	HeroSubtitle string      `json:"heroSubtitle"`
	HeroCTA      string      `json:"heroCTA"`
	ContactInfo  ContactInfo `json:"contactInfo"`
}

// SEO holds search engine metadata.
type SEO struct {
	MetaTitle       string `json:"metaTitle"`
	MetaDescription string `json:"metaDescription"`
}

// SiteConfig is the complete declarative description of a restaurant website.
type SiteConfig struct {
	Template TemplateID `json:"template"`
	Colors   Colors     `json:"colors"`
	Layout   Layout     `json:"layout"`
	Content  Content    `json:"content"`
	SEO      SEO        `json:"seo"`
}

// TemplatePreset is a named bundle of default colors and layout.
type TemplatePreset struct {
	ID          TemplateID `json:"id" yaml:"id"`
	DisplayName string     `json:"display_name" yaml:"displayName"`
	Description string     `json:"description" yaml:"description"`
	Colors      Colors     `json:"colors" yaml:"colors"`
	Layout      Layout     `json:"layout" yaml:"layout"`
}

// MenuItemSample is a menu entry used to populate previews.
type MenuItemSample struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	// Price in minor currency units.
	Price    int64  `json:"price"`
	Category string `json:"category,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

// RestaurantProfile is the read-only seed used to derive content defaults.
type RestaurantProfile struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Cuisine     string `json:"cuisine,omitempty"`
	Description string `json:"description,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Email       string `json:"email,omitempty"`
	Address     string `json:"address,omitempty"`
	City        string `json:"city,omitempty"`
}
