package domain

// BrandEntry is the root of one brand crawl. Items is only populated when the
// brand page has no categories and is a flat product listing.
type BrandEntry struct {
	Name       string          `json:"brand_name"`
	RootLink   string          `json:"brand_link"`
	Categories []*CategoryNode `json:"categories"`
	Items      []ProductRecord `json:"products"`
}

// ProductCount returns the number of products reachable at leaves under the brand.
func (b *BrandEntry) ProductCount() int {
	count := len(b.Items)
	for _, category := range b.Categories {
		count += len(category.LeafItems())
	}
	return count
}
