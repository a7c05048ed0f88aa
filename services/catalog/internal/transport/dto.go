package transport

type CreateProductRequest struct {
	Name        string  `json:"name"        validate:"required"`
	Description string  `json:"description" validate:"required"`
	Price       float64 `json:"price"       validate:"required"`
	Category    string  `json:"category"    validate:"required"`
	Image       string  `json:"image"       validate:"required"`
	Stock       *int    `json:"stock"       validate:"required"`
}

// PatchProductRequest carries only the fields to change.
type PatchProductRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Category    *string  `json:"category"`
	Image       *string  `json:"image"`
	Stock       *int     `json:"stock"`
}

type ListProductsQuery struct {
	Category string
	Offset   int
	Limit    int
}
