package catalog

// DefaultProducts is the catalog bootstrap used the first time the process
// starts against an empty database.
var DefaultProducts = []Product{
	{
		ID:       1,
		SKU:      "SKU-001",
		Title:    "Товар 1",
		Brand:    "Brand",
		Price:    1990,
		OldPrice: 0,
		Volume:   "250 мл",
		Country:  "Италия",
		Badges:   []string{"NEW"},
		Category: "dav_shampoo",
	},
	{
		ID:       2,
		SKU:      "SKU-002",
		Title:    "Товар 2",
		Brand:    "Brand",
		Price:    2990,
		OldPrice: 3490,
		Volume:   "200 мл",
		Country:  "США",
		Badges:   []string{"HIT"},
		Category: "dav_shampoo",
	},
}
