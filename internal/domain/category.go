package domain

import (
	"net/url"
	"strings"
)

// CategoryNode is one tile of the category tree. Children and Items are
// filled by a single traversal step and are never touched afterwards.
type CategoryNode struct {
	Name     string          `json:"category_name"`
	Identity string          `json:"category_link"` // Normalized link, the dedup key
	ImageRef string          `json:"category_image,omitempty"`
	Children []*CategoryNode `json:"subcategories"`
	Items    []ProductRecord `json:"products"`
}

// IsLeaf reports whether the node was harvested for products instead of descended into.
func (n *CategoryNode) IsLeaf() bool {
	return len(n.Children) == 0
}

// LeafItems returns every product reachable under the node, depth first in page order.
func (n *CategoryNode) LeafItems() []ProductRecord {
	if len(n.Children) == 0 {
		return n.Items
	}

	var items []ProductRecord
	for _, child := range n.Children {
		items = append(items, child.LeafItems()...)
	}
	return items
}

// NormalizeLink resolves href against base and returns the canonical identity:
// absolute, without fragment, without trailing slashes.
func NormalizeLink(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return strings.TrimRight(href, "/")
	}

	if base != "" {
		if baseURL, err := url.Parse(base); err == nil {
			ref = baseURL.ResolveReference(ref)
		}
	}
	ref.Fragment = ""

	return strings.TrimRight(ref.String(), "/")
}

// SameIdentity compares two links after trailing slash normalization.
func SameIdentity(a, b string) bool {
	return strings.TrimRight(a, "/") == strings.TrimRight(b, "/")
}
