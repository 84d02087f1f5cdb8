package shop

import "time"

// Order is a customer order.
type Order struct {
	Audit
	ID       int            `json:"id"`
	Customer *Customer      `json:"customer"`
	Lines    []Line         `json:"lines"`
	Note     string         `json:"note,omitempty" schemagen:"description=free text"`
	Labels   map[string]int `json:"labels,omitempty"`
	internal string
	Skipped  string `json:"-"`
}

// Shared types.
type (
	Audit struct {
		CreatedAt time.Time `json:"created_at"`
	}

	// Customer places orders.
	Customer struct {
		Name string `json:"name"`
	}
)

type Line struct {
	SKU string `json:"sku" schemagen:"title=Stock Keeping Unit"`
	Qty int    `json:"qty"`
	Pos [2]int `json:"pos"`
	Raw []byte `json:"raw"`
}
