package models_test

import (
	"testing"
	"time"

	"storefront/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductFromDocument(t *testing.T) {
	t.Run("scalar sizes and colors become lists", func(t *testing.T) {
		p, err := models.ProductFromDocument("p1", map[string]any{
			"name":     "Tee",
			"price":    float64(100),
			"category": "t-shirt",
			"sizes":    "M",
			"colors":   nil,
		})
		require.NoError(t, err)
		assert.Equal(t, "p1", p.ID)
		assert.Equal(t, []string{"M"}, p.Sizes)
		assert.Equal(t, []string{}, p.Colors)
		assert.Equal(t, []string{}, p.Images)
		require.NotNil(t, p.Category)
		assert.Equal(t, "t-shirt", *p.Category)
	})

	t.Run("active defaults to true", func(t *testing.T) {
		p, err := models.ProductFromDocument("p2", map[string]any{"name": "Cap"})
		require.NoError(t, err)
		assert.True(t, p.Active)
		assert.False(t, p.SoldOut)
		assert.Nil(t, p.OriginalPrice)

		p, err = models.ProductFromDocument("p3", map[string]any{"name": "Cap", "active": false})
		require.NoError(t, err)
		assert.False(t, p.Active)
	})

	t.Run("native timestamps", func(t *testing.T) {
		at := time.Date(2024, 5, 1, 12, 30, 0, 123456789, time.UTC)
		p, err := models.ProductFromDocument("p4", map[string]any{"createdAt": at, "updatedAt": at})
		require.NoError(t, err)
		assert.Equal(t, "2024-05-01T12:30:00.123Z", p.CreatedAt)
	})
}

func TestProduct_Document(t *testing.T) {
	original := 150.0
	category := "t-shirt"
	p := &models.Product{
		ID:            "ignored",
		Name:          "Tee",
		Price:         100,
		OriginalPrice: &original,
		Category:      &category,
		Active:        true,
	}

	doc := p.Document()
	assert.NotContains(t, doc, "id")
	assert.Equal(t, 150.0, doc["originalPrice"])
	assert.Equal(t, "t-shirt", doc["category"])
	assert.Equal(t, []string{}, doc["sizes"])

	p.OriginalPrice = nil
	assert.NotContains(t, p.Document(), "originalPrice")
}

func TestOrder_DocumentRoundTrip(t *testing.T) {
	o := &models.Order{
		Items:     []models.LineItem{{ProductID: "p1", Name: "Tee", Price: 100, Quantity: 2, Size: "M"}},
		Total:     200,
		Customer:  models.Customer{Name: "Ann", Address: "Main St 1", Phone1: "555"},
		Status:    models.StatusPending,
		CreatedAt: "2024-01-01T00:00:00.000Z",
		UpdatedAt: "2024-01-01T00:00:00.000Z",
	}

	doc, err := o.Document()
	require.NoError(t, err)
	assert.Equal(t, "pending", doc["status"])
	assert.IsType(t, []any{}, doc["items"])
	assert.Equal(t, map[string]any{"name": "Ann", "address": "Main St 1", "phone1": "555"}, doc["customer"])

	back, err := models.OrderFromDocument("o1", doc)
	require.NoError(t, err)
	o.ID = "o1"
	assert.Equal(t, o, back)
	assert.Equal(t, 200.0, back.Items[0].Subtotal())
}

func TestOrderFromDocument_EmptyItems(t *testing.T) {
	o, err := models.OrderFromDocument("o2", map[string]any{"status": "paid"})
	require.NoError(t, err)
	assert.Equal(t, []models.LineItem{}, o.Items)
	assert.Equal(t, models.OrderStatus("paid"), o.Status)
}

func TestStatusSet_Parse(t *testing.T) {
	set := models.NewStatusSet([]string{"pending", "Shipped "})

	status, ok := set.Parse("SHIPPED")
	assert.True(t, ok)
	assert.Equal(t, models.OrderStatus("shipped"), status)

	_, ok = set.Parse("lost")
	assert.False(t, ok)

	_, ok = set.Parse("")
	assert.False(t, ok)
}

func TestFormatTime(t *testing.T) {
	loc := time.FixedZone("UTC+7", 7*3600)
	at := time.Date(2024, 1, 1, 7, 0, 0, 0, loc)
	assert.Equal(t, "2024-01-01T00:00:00.000Z", models.FormatTime(at))
}
