package catalog

// Product is one catalog row. Prices are integer minor currency units.
type Product struct {
	ID       int64    `json:"id"`
	SKU      string   `json:"sku"`
	Title    string   `json:"title"`
	Brand    string   `json:"brand"`
	Price    int64    `json:"price"`
	OldPrice int64    `json:"oldPrice"`
	Volume   string   `json:"volume"`
	Country  string   `json:"country"`
	Badges   []string `json:"badges"`
	Category string   `json:"category"`
	Image    string   `json:"image"`
}
