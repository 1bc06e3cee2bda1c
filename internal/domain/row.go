package domain

// Header is the fixed column order of the exported dataset.
var Header = []string{
	"brand_name", "category_name", "category_link", "category_image",
	"subcategory_name", "subcategory_link", "subcategory_image",
	"product_title", "product_link", "product_image",
	"product_rating_text", "product_rating_aria_label",
	"product_price", "product_details",
}

// Row is one product with its ancestor context repeated.
type Row struct {
	BrandName        string `json:"brand_name" bson:"brand_name"`
	CategoryName     string `json:"category_name" bson:"category_name"`
	CategoryLink     string `json:"category_link" bson:"category_link"`
	CategoryImage    string `json:"category_image" bson:"category_image"`
	SubcategoryName  string `json:"subcategory_name" bson:"subcategory_name"`
	SubcategoryLink  string `json:"subcategory_link" bson:"subcategory_link"`
	SubcategoryImage string `json:"subcategory_image" bson:"subcategory_image"`
	ProductTitle     string `json:"product_title" bson:"product_title"`
	ProductLink      string `json:"product_link" bson:"product_link"`
	ProductImage     string `json:"product_image" bson:"product_image"`
	RatingText       string `json:"product_rating_text" bson:"product_rating_text"`
	RatingAriaLabel  string `json:"product_rating_aria_label" bson:"product_rating_aria_label"`
	Price            string `json:"product_price" bson:"product_price"`
	Details          string `json:"product_details" bson:"product_details"`
}

// Values returns the row in Header order.
func (r Row) Values() []string {
	return []string{
		r.BrandName, r.CategoryName, r.CategoryLink, r.CategoryImage,
		r.SubcategoryName, r.SubcategoryLink, r.SubcategoryImage,
		r.ProductTitle, r.ProductLink, r.ProductImage,
		r.RatingText, r.RatingAriaLabel,
		r.Price, r.Details,
	}
}
