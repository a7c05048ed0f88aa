package transport

type OrderItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  *int   `json:"quantity"`
}

type ShippingAddressRequest struct {
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

type CheckoutRequest struct {
	Products        []OrderItemRequest     `json:"products"`
	ShippingAddress ShippingAddressRequest `json:"shippingAddress"`
	TotalPrice      *float64               `json:"totalPrice"`
}

type UpdateStatusRequest struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

type RevenueResponse struct {
	Revenue float64 `json:"revenue"`
}
