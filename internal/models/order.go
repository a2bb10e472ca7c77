package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

// StatusPending is the state every new order starts in.
const StatusPending OrderStatus = "pending"

// StatusSet is the enumeration of statuses an order may be moved to.
type StatusSet map[OrderStatus]struct{}

// NewStatusSet builds a StatusSet from configured names. Names are matched case-insensitively.
func NewStatusSet(names []string) StatusSet {
	set := make(StatusSet, len(names))
	for _, name := range names {
		set[OrderStatus(strings.ToLower(strings.TrimSpace(name)))] = struct{}{}
	}
	return set
}

// Parse normalises raw and reports whether it is a member of the set.
func (s StatusSet) Parse(raw string) (OrderStatus, bool) {
	status := OrderStatus(strings.ToLower(strings.TrimSpace(raw)))
	_, ok := s[status]
	return status, ok && status != ""
}

// LineItem is one product line in an order.
type LineItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Size      string  `json:"size,omitempty"`
	Color     string  `json:"color,omitempty"`
	Image     string  `json:"image,omitempty"`
}

// Subtotal is price times quantity.
func (li LineItem) Subtotal() float64 {
	return li.Price * float64(li.Quantity)
}

// Customer holds the delivery contact of an order.
type Customer struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address,omitempty"`
	Phone1  string `json:"phone1,omitempty"`
	Phone2  string `json:"phone2,omitempty"`
}

// Order represents a customer order.
type Order struct {
	ID        string      `json:"id"`
	Items     []LineItem  `json:"items"`
	Total     float64     `json:"total"`
	Customer  Customer    `json:"customer"`
	Status    OrderStatus `json:"status"`
	CreatedAt string      `json:"createdAt"`
	UpdatedAt string      `json:"updatedAt"`
}

// OrderFromDocument builds an Order from a stored document.
func OrderFromDocument(id string, doc map[string]any) (*Order, error) {
	o := &Order{}
	if err := decodeDocument(doc, o); err != nil {
		return nil, fmt.Errorf("failed to decode order %s: %w", id, err)
	}
	o.ID = id
	if o.Items == nil {
		o.Items = []LineItem{}
	}
	return o, nil
}

// Document returns the stored form of the order, without its id.
func (o *Order) Document() (map[string]any, error) {
	items := o.Items
	if items == nil {
		items = []LineItem{}
	}
	// Nested values go through JSON so every backend stores plain maps and lists.
	encoded, err := json.Marshal(struct {
		Items    []LineItem `json:"items"`
		Customer Customer   `json:"customer"`
	}{items, o.Customer})
	if err != nil {
		return nil, fmt.Errorf("failed to encode order: %w", err)
	}
	var nested map[string]any
	if err := json.Unmarshal(encoded, &nested); err != nil {
		return nil, fmt.Errorf("failed to encode order: %w", err)
	}

	return map[string]any{
		"items":     nested["items"],
		"customer":  nested["customer"],
		"total":     o.Total,
		"status":    string(o.Status),
		"createdAt": o.CreatedAt,
		"updatedAt": o.UpdatedAt,
	}, nil
}
