package models

import (
	"fmt"
	"reflect"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// Product represents a catalog entry.
type Product struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Price         float64  `json:"price"`
	OriginalPrice *float64 `json:"originalPrice,omitempty"`
	Category      *string  `json:"category"`
	Sizes         []string `json:"sizes"`
	Colors        []string `json:"colors"`
	Images        []string `json:"images"`
	Active        bool     `json:"active"`
	SoldOut       bool     `json:"soldOut"`
	CreatedAt     string   `json:"createdAt"`
	UpdatedAt     string   `json:"updatedAt"`
}

// ProductFromDocument builds a Product from a stored document. Stored data is trusted loosely:
// a scalar size or color becomes a one-element list and missing lists come back empty.
func ProductFromDocument(id string, doc map[string]any) (*Product, error) {
	p := &Product{Active: true}
	if err := decodeDocument(doc, p); err != nil {
		return nil, fmt.Errorf("failed to decode product %s: %w", id, err)
	}
	p.ID = id
	p.Sizes = nonNil(p.Sizes)
	p.Colors = nonNil(p.Colors)
	p.Images = nonNil(p.Images)
	return p, nil
}

// Document returns the stored form of the product, without its id.
func (p *Product) Document() map[string]any {
	doc := map[string]any{
		"name":        p.Name,
		"description": p.Description,
		"price":       p.Price,
		"category":    nil,
		"sizes":       nonNil(p.Sizes),
		"colors":      nonNil(p.Colors),
		"images":      nonNil(p.Images),
		"active":      p.Active,
		"soldOut":     p.SoldOut,
		"createdAt":   p.CreatedAt,
		"updatedAt":   p.UpdatedAt,
	}
	if p.Category != nil {
		doc["category"] = *p.Category
	}
	if p.OriginalPrice != nil {
		doc["originalPrice"] = *p.OriginalPrice
	}
	return doc
}

func decodeDocument(doc map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.DecodeHookFuncType(timeToString),
		Result:           out,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(doc)
}

// timeToString lets documents written with native timestamps decode into the string fields.
func timeToString(from, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.String {
		return data, nil
	}
	if t, ok := data.(time.Time); ok {
		return FormatTime(t), nil
	}
	return data, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
