// Package preview renders a SiteConfig and sample menu items into a
// deterministic node tree. The tree is what the editor shows live and what
// is serialized to HTML when a site is pre-rendered.
package preview

import (
	"sort"

	"github.com/narvanalabs/sitebuilder/internal/models"
)

// Kind identifies what a node represents.
type Kind string

const (
	KindPage     Kind = "page"
	KindHeader   Kind = "header"
	KindHero     Kind = "hero"
	KindFeatures Kind = "features"
	KindFeature  Kind = "feature"
	KindMenu     Kind = "menu"
	KindCategory Kind = "category"
	KindItem     Kind = "item"
	KindGallery  Kind = "gallery"
	KindImage    Kind = "image"
	KindFooter   Kind = "footer"
	KindHeading  Kind = "heading"
	KindText     Kind = "text"
	KindPrice    Kind = "price"
	KindLink     Kind = "link"
	KindEmpty    Kind = "empty"
)

// Declaration is a single CSS property.
type Declaration struct {
	Property string `json:"property"`
	Value    string `json:"value"`
}

// Attr is a single HTML attribute.
type Attr struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Node is an element of the preview tree.
type Node struct {
	Kind     Kind          `json:"kind"`
	Tag      string        `json:"tag"`
	Class    string        `json:"class,omitempty"`
	Style    []Declaration `json:"style,omitempty"`
	Text     string        `json:"text,omitempty"`
	Attrs    []Attr        `json:"attrs,omitempty"`
	Children []*Node       `json:"children,omitempty"`
}

// Tree is a rendered page.
type Tree struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Theme       models.Colors `json:"theme"`
	Root        *Node         `json:"root"`
}

// Sections returns the kinds of the top-level sections in render order.
func (t *Tree) Sections() []Kind {
	if t == nil || t.Root == nil {
		return nil
	}
	kinds := make([]Kind, 0, len(t.Root.Children))
	for _, c := range t.Root.Children {
		kinds = append(kinds, c.Kind)
	}
	return kinds
}

// Find returns the first node of the given kind in depth-first order.
func (t *Tree) Find(kind Kind) *Node {
	if t == nil {
		return nil
	}
	return find(t.Root, kind)
}

func find(n *Node, kind Kind) *Node {
	if n == nil {
		return nil
	}
	if n.Kind == kind {
		return n
	}
	for _, c := range n.Children {
		if found := find(c, kind); found != nil {
			return found
		}
	}
	return nil
}

func style(props map[string]string) []Declaration {
	if len(props) == 0 {
		return nil
	}
	out := make([]Declaration, 0, len(props))
	for k, v := range props {
		out = append(out, Declaration{Property: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Property < out[j].Property })
	return out
}

func attrs(kv map[string]string) []Attr {
	if len(kv) == 0 {
		return nil
	}
	out := make([]Attr, 0, len(kv))
	for k, v := range kv {
		out = append(out, Attr{Name: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func text(kind Kind, tag, class, s string) *Node {
	return &Node{Kind: kind, Tag: tag, Class: class, Text: s}
}
