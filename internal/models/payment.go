package models

// Payment is a customer payment record as held by the payment store.
type Payment struct {
	Reference     string        `json:"payment_id" yaml:"payment_id"`
	CustomerName  string        `json:"customer_name" yaml:"customer_name"`
	CustomerEmail string        `json:"customer_email" yaml:"customer_email"`
	Amount        float64       `json:"amount" yaml:"amount"`
	Currency      string        `json:"currency" yaml:"currency"`
	Status        string        `json:"status" yaml:"status"`
	Items         []PaymentItem `json:"items" yaml:"items"`
	Date          string        `json:"date" yaml:"date"`
}

// PaymentItem is one purchased line item.
type PaymentItem struct {
	Name     string  `json:"name" yaml:"name"`
	Quantity int     `json:"quantity" yaml:"quantity"`
	Price    float64 `json:"price" yaml:"price"`
}
