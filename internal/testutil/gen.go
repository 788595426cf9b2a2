// Package testutil provides gopter generators and fixtures shared by the
// property tests of several packages.
package testutil

import (
	"fmt"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/narvanalabs/sitebuilder/internal/models"
	"github.com/narvanalabs/sitebuilder/internal/templates"
)

// GenTemplateID generates a valid template id.
func GenTemplateID() gopter.Gen {
	return gen.OneConstOf(
		models.TemplateModern,
		models.TemplateClassic,
		models.TemplateMinimal,
		models.TemplateBold,
	)
}

// GenHexColor generates a normalized "#rrggbb" color.
func GenHexColor() gopter.Gen {
	return gen.IntRange(0, 0xffffff).Map(func(v int) string {
		return fmt.Sprintf("#%06x", v)
	})
}

// GenColors generates a palette of valid colors.
func GenColors() gopter.Gen {
	return gopter.CombineGens(
		GenHexColor(), GenHexColor(), GenHexColor(), GenHexColor(), GenHexColor(),
	).Map(func(v []interface{}) models.Colors {
		return models.Colors{
			Primary:    v[0].(string),
			Secondary:  v[1].(string),
			Background: v[2].(string),
			Text:       v[3].(string),
			Accent:     v[4].(string),
		}
	})
}

// GenLayout generates a valid layout.
func GenLayout() gopter.Gen {
	return gopter.CombineGens(
		gen.OneConstOf(models.HeaderStyleGradient, models.HeaderStyleSolid, models.HeaderStyleMinimal),
		gen.OneConstOf(models.MenuLayoutGrid, models.MenuLayoutList),
		gen.Bool(), gen.Bool(), gen.Bool(),
	).Map(func(v []interface{}) models.Layout {
		return models.Layout{
			HeaderStyle:  v[0].(models.HeaderStyle),
			MenuLayout:   v[1].(models.MenuLayout),
			ShowHero:     v[2].(bool),
			ShowFeatures: v[3].(bool),
			ShowGallery:  v[4].(bool),
		}
	})
}

// GenContent generates free-form content, including empty strings.
func GenContent() gopter.Gen {
	return gopter.CombineGens(
		gen.AlphaString(), gen.AlphaString(), gen.AlphaString(), gen.AlphaString(),
		gen.AlphaString(), gen.NumString(), gen.AlphaString(), gen.AlphaString(),
	).Map(func(v []interface{}) models.Content {
		return models.Content{
			BrandName:    v[0].(string),
			Tagline:      v[1].(string),
			HeroTitle:    v[2].(string),
			HeroSubtitle: v[3].(string),
			HeroCTA:      v[4].(string),
			ContactInfo: models.ContactInfo{
				Phone:   v[5].(string),
				Email:   v[6].(string),
				Address: v[7].(string),
			},
		}
	})
}

// GenSEO generates SEO metadata.
func GenSEO() gopter.Gen {
	return gopter.CombineGens(gen.AlphaString(), gen.AlphaString()).Map(func(v []interface{}) models.SEO {
		return models.SEO{MetaTitle: v[0].(string), MetaDescription: v[1].(string)}
	})
}

// GenSiteConfig generates a complete, renderable config.
func GenSiteConfig() gopter.Gen {
	return gopter.CombineGens(
		GenTemplateID(), GenColors(), GenLayout(), GenContent(), GenSEO(),
	).Map(func(v []interface{}) models.SiteConfig {
		return models.SiteConfig{
			Template: v[0].(models.TemplateID),
			Colors:   v[1].(models.Colors),
			Layout:   v[2].(models.Layout),
			Content:  v[3].(models.Content),
			SEO:      v[4].(models.SEO),
		}
	})
}

// GenDeployableConfig generates a config that passes validation.
func GenDeployableConfig() gopter.Gen {
	return gopter.CombineGens(GenSiteConfig(), gen.Identifier(), gen.NumString()).
		Map(func(v []interface{}) models.SiteConfig {
			cfg := v[0].(models.SiteConfig)
			cfg.Content.BrandName = v[1].(string)
			cfg.Content.ContactInfo.Phone = "+1 " + v[2].(string) + "0"
			return cfg
		})
}

// GenMenuItems generates a short list of sample menu items.
func GenMenuItems() gopter.Gen {
	item := gopter.CombineGens(
		gen.AlphaString(),
		gen.AlphaString(),
		gen.Int64Range(0, 100000),
		gen.OneConstOf("", "Starters", "Mains", "Desserts"),
		gen.OneConstOf("", "https://img.example.com/a.jpg", "https://img.example.com/b.jpg"),
	).Map(func(v []interface{}) models.MenuItemSample {
		return models.MenuItemSample{
			Name:        v[0].(string),
			Description: v[1].(string),
			Price:       v[2].(int64),
			Category:    v[3].(string),
			ImageURL:    v[4].(string),
		}
	})
	return gen.SliceOfN(6, item)
}

// BellasConfig returns the config used by the walkthrough scenarios.
func BellasConfig() models.SiteConfig {
	preset, err := templates.Get(models.TemplateModern)
	if err != nil {
		panic(err)
	}
	return models.SiteConfig{
		Template: preset.ID,
		Colors:   preset.Colors,
		Layout:   preset.Layout,
		Content: models.Content{
			BrandName:    "Bella's",
			Tagline:      "Handmade pasta since 1987",
			HeroTitle:    "Welcome to Bella's",
			HeroSubtitle: "Handmade pasta since 1987",
			HeroCTA:      "View Menu",
			ContactInfo: models.ContactInfo{
				Phone:   "+1 555 0100",
				Email:   "ciao@bellas.example.com",
				Address: "12 Mulberry St",
			},
		},
		SEO: models.SEO{
			MetaTitle:       "Bella's | New York",
			MetaDescription: "Handmade pasta in Little Italy.",
		},
	}
}
