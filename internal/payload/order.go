package payload

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/request"
)

type lineItem struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gte=1"`
}

// OrderCreate builds an order from a checkout request. Missing items default to an empty list,
// a missing or non-numeric total to 0 and a missing customer to an empty one.
func OrderCreate(body request.Body) (*models.Order, error) {
	order := &models.Order{Items: []models.LineItem{}}

	if raw, ok := body.Fields["items"]; ok && raw != nil {
		list, ok := raw.([]any)
		if !ok {
			return nil, apperr.Validation(MsgInvalidItems)
		}
		for _, entry := range list {
			item, err := orderItem(entry)
			if err != nil {
				return nil, err
			}
			order.Items = append(order.Items, item)
		}
	}

	if total, ok := toNumber(body.Fields["total"]); ok && !math.IsNaN(total) && !math.IsInf(total, 0) {
		order.Total = total
	}

	if customer, ok := body.Fields["customer"].(map[string]any); ok {
		order.Customer = models.Customer{
			Name:    toString(customer["name"]),
			Address: toString(customer["address"]),
			Phone1:  toString(customer["phone1"]),
			Phone2:  toString(customer["phone2"]),
		}
	}
	return order, nil
}

func orderItem(entry any) (models.LineItem, error) {
	fields, ok := entry.(map[string]any)
	if !ok {
		return models.LineItem{}, apperr.Validation(MsgInvalidItems)
	}

	in := lineItem{ProductID: toString(fields["productId"]), Quantity: 1}
	if raw, supplied := fields["quantity"]; supplied && raw != nil {
		q, ok := toNumber(raw)
		if !ok || q != math.Trunc(q) || q > math.MaxInt32 {
			return models.LineItem{}, apperr.Validation(MsgItemQuantity)
		}
		in.Quantity = int(q)
	}
	if err := validate.Struct(in); err != nil {
		if slices.Contains(failedFields(err), "productId") {
			return models.LineItem{}, apperr.Validation(MsgItemProductID)
		}
		return models.LineItem{}, apperr.Validation(MsgItemQuantity)
	}

	price, _ := toNumber(fields["price"])
	return models.LineItem{
		ProductID: in.ProductID,
		Name:      toString(fields["name"]),
		Price:     price,
		Quantity:  in.Quantity,
		Size:      toString(fields["size"]),
		Color:     toString(fields["color"]),
		Image:     toString(fields["image"]),
	}, nil
}

// Status reads the target status of a status update and checks it against the allowed set.
func Status(body request.Body, allowed models.StatusSet) (models.OrderStatus, error) {
	raw, _ := body.Fields["status"].(string)
	status, ok := allowed.Parse(raw)
	if !ok {
		names := make([]string, 0, len(allowed))
		for s := range allowed {
			names = append(names, string(s))
		}
		slices.Sort(names)
		return "", apperr.Validation(fmt.Sprintf("Invalid status. Allowed: %s", strings.Join(names, ", ")))
	}
	return status, nil
}
