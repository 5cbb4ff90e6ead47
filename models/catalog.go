package models

// ProductSummary is the assistant's read-only view of a product.
// Title maps to products.name; Stock is the summed inventory quantity.
type ProductSummary struct {
	ID       int64   `json:"id"`
	Title    string  `json:"title"`
	Price    float64 `json:"price"`
	Discount float64 `json:"discount"`
	Stock    int64   `json:"stock"`
}

// Discount is a product currently sold below list price
type Discount struct {
	ID       int64   `json:"id"`
	Title    string  `json:"title"`
	Price    float64 `json:"price"`
	Discount float64 `json:"discount"`
}

// ProductFilter narrows a catalog search. Nil pointers are not applied.
type ProductFilter struct {
	Category *string
	Size     *string
	Color    *string
	MinPrice *float64
	MaxPrice *float64
	Budget   *float64
	Limit    int
}

// PurchasedItem is a product from a user's recent orders
type PurchasedItem struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}
