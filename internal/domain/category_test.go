package domain

import "testing"

func TestNormalizeLink(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		base string
		href string
		want string
	}{
		{"absolute path", "https://shop.example/de/brand", "/de/brand/acme", "https://shop.example/de/brand/acme"},
		{"trailing slash stripped", "https://shop.example", "/de/brand/acme/", "https://shop.example/de/brand/acme"},
		{"fragment dropped", "https://shop.example", "/de/tv#top", "https://shop.example/de/tv"},
		{"absolute url kept", "https://shop.example", "https://other.example/x/", "https://other.example/x"},
		{"query kept", "https://shop.example", "/de/tv?page=2", "https://shop.example/de/tv?page=2"},
		{"empty href", "https://shop.example", "  ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := NormalizeLink(tt.base, tt.href); got != tt.want {
				t.Errorf("NormalizeLink(%q, %q) = %q, want %q", tt.base, tt.href, got, tt.want)
			}
		})
	}
}

func TestSameIdentity(t *testing.T) {
	t.Parallel()

	if !SameIdentity("https://shop.example/tv/", "https://shop.example/tv") {
		t.Error("expected links differing by trailing slash to match")
	}
	if SameIdentity("https://shop.example/tv", "https://shop.example/audio") {
		t.Error("expected different links not to match")
	}
}

func TestLeafItemsAndProductCount(t *testing.T) {
	t.Parallel()

	deep := &CategoryNode{Name: "Deep", Items: []ProductRecord{{Title: "d1"}, {Title: "d2"}}}
	sub := &CategoryNode{Name: "Sub", Children: []*CategoryNode{deep, {Name: "Empty"}}}
	leaf := &CategoryNode{Name: "Leaf", Items: []ProductRecord{{Title: "l1"}}}
	root := &CategoryNode{Name: "Root", Children: []*CategoryNode{leaf, sub}}

	items := root.LeafItems()
	if len(items) != 3 {
		t.Fatalf("expected 3 leaf items, got %d", len(items))
	}
	for i, want := range []string{"l1", "d1", "d2"} {
		if items[i].Title != want {
			t.Errorf("item %d: expected %s, got %s", i, want, items[i].Title)
		}
	}

	brand := BrandEntry{Name: "Acme", Categories: []*CategoryNode{root}, Items: []ProductRecord{{Title: "b1"}}}
	if got := brand.ProductCount(); got != 4 {
		t.Errorf("expected 4 products, got %d", got)
	}
}
