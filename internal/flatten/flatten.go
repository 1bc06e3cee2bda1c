// Package flatten turns the crawled catalog tree into one row per product.
//
// The row schema has exactly two category levels. Products found deeper than
// a subcategory are attributed to that subcategory, and categories without
// products produce no rows at all.
package flatten

import "mediamarkt/crawler/internal/domain"

// Flatten emits rows brand by brand in the order the tree was crawled.
func Flatten(brands []domain.BrandEntry) []domain.Row {
	var rows []domain.Row
	for i := range brands {
		rows = append(rows, Brand(&brands[i])...)
	}
	return rows
}

// Brand emits the rows of a single brand: category rows first, then the
// brand's own product listing.
func Brand(brand *domain.BrandEntry) []domain.Row {
	var rows []domain.Row

	for _, category := range brand.Categories {
		parent := ancestor{name: category.Name, link: category.Identity, image: category.ImageRef}

		if !category.IsLeaf() {
			for _, sub := range category.Children {
				child := ancestor{name: sub.Name, link: sub.Identity, image: sub.ImageRef}
				for _, product := range sub.LeafItems() {
					rows = append(rows, newRow(brand.Name, parent, child, product))
				}
			}
			continue
		}

		for _, product := range category.Items {
			rows = append(rows, newRow(brand.Name, parent, ancestor{}, product))
		}
	}

	for _, product := range brand.Items {
		rows = append(rows, newRow(brand.Name, ancestor{}, ancestor{}, product))
	}

	return rows
}

type ancestor struct {
	name, link, image string
}

func newRow(brandName string, category, subcategory ancestor, product domain.ProductRecord) domain.Row {
	return domain.Row{
		BrandName:        brandName,
		CategoryName:     category.name,
		CategoryLink:     category.link,
		CategoryImage:    category.image,
		SubcategoryName:  subcategory.name,
		SubcategoryLink:  subcategory.link,
		SubcategoryImage: subcategory.image,
		ProductTitle:     product.Title,
		ProductLink:      product.Link,
		ProductImage:     product.ImageRef,
		RatingText:       product.RatingSummary,
		RatingAriaLabel:  product.RatingLabel,
		Price:            product.Price,
		Details:          product.Attributes.String(),
	}
}
