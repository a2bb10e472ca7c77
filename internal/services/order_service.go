package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/repositories"
)

// Order event routing keys.
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusUpdated = "order.status_updated"
	EventOrderDeleted       = "order.deleted"
)

// Publisher delivers order events to a message broker.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
}

// OrderEvent is the message body published for every order change.
type OrderEvent struct {
	Event   string             `json:"event"`
	OrderID string             `json:"orderId"`
	Status  models.OrderStatus `json:"status,omitempty"`
	Total   float64            `json:"total"`
	At      string             `json:"at"`
}

// OrderOptions tune OrderService.
type OrderOptions struct {
	Statuses models.StatusSet
	// RecomputeTotal makes the server price line items from the catalog instead of trusting
	// the client total.
	RecomputeTotal bool
	DeliveryFee    float64
	DefaultLimit   int
	MaxLimit       int
	Clock          models.Clock
}

// OrderService handles business logic related to orders.
type OrderService struct {
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	publisher   Publisher // nil disables events
	opts        OrderOptions
}

// NewOrderService creates a new OrderService.
func NewOrderService(orderRepo repositories.OrderRepository, productRepo repositories.ProductRepository, publisher Publisher, opts OrderOptions) *OrderService {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		publisher:   publisher,
		opts:        opts,
	}
}

// Statuses is the set of statuses an order may be moved to.
func (s *OrderService) Statuses() models.StatusSet {
	return s.opts.Statuses
}

// ListOrders returns the most recent orders first.
func (s *OrderService) ListOrders(ctx context.Context, rawLimit string) ([]models.Order, error) {
	limit := ClampLimit(rawLimit, s.opts.DefaultLimit, s.opts.MaxLimit)
	orders, err := s.orderRepo.ListRecent(ctx, limit)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return orders, nil
}

// GetOrder retrieves a single order by its ID.
func (s *OrderService) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	return order, nil
}

// CreateOrder stores a new pending order and publishes order.created.
func (s *OrderService) CreateOrder(ctx context.Context, order *models.Order) error {
	if s.opts.RecomputeTotal {
		if err := s.priceItems(ctx, order); err != nil {
			return err
		}
	}

	now := models.FormatTime(s.opts.Clock())
	order.Status = models.StatusPending
	order.CreatedAt = now
	order.UpdatedAt = now
	if order.Items == nil {
		order.Items = []models.LineItem{}
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return apperr.Internal(err)
	}
	s.publish(ctx, EventOrderCreated, order)
	return nil
}

// priceItems replaces line prices with catalog prices and recomputes the total.
func (s *OrderService) priceItems(ctx context.Context, order *models.Order) error {
	var total float64
	for i := range order.Items {
		item := &order.Items[i]
		product, err := s.productRepo.GetByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return apperr.Validation(fmt.Sprintf("Unknown product %s", item.ProductID))
			}
			return apperr.Internal(err)
		}
		if !product.Active || product.SoldOut {
			return apperr.Validation(fmt.Sprintf("Product %s is not available", item.ProductID))
		}
		item.Price = product.Price
		if item.Name == "" {
			item.Name = product.Name
		}
		total += item.Subtotal()
	}
	total += s.opts.DeliveryFee

	if math.Abs(total-order.Total) > 0.005 {
		log.Printf("Order total mismatch: client sent %.2f, computed %.2f", order.Total, total)
	}
	order.Total = total
	return nil
}

// UpdateOrderStatus moves an existing order to status and returns the stored result.
// status must already be a member of Statuses.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error) {
	if _, ok := s.opts.Statuses[status]; !ok {
		return nil, apperr.Validation(fmt.Sprintf("Invalid status: %s", status))
	}
	fields := map[string]any{"status": string(status), "updatedAt": models.FormatTime(s.opts.Clock())}
	if err := s.orderRepo.Update(ctx, id, fields); err != nil {
		return nil, storeError(err)
	}

	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, EventOrderStatusUpdated, order)
	return order, nil
}

// DeleteOrder deletes an order. Deleting a missing order succeeds.
func (s *OrderService) DeleteOrder(ctx context.Context, id string) error {
	if err := s.orderRepo.Delete(ctx, id); err != nil {
		return apperr.Internal(err)
	}
	s.publish(ctx, EventOrderDeleted, &models.Order{ID: id})
	return nil
}

// publish sends an order event. Broker failures are logged and never fail the request.
func (s *OrderService) publish(ctx context.Context, event string, order *models.Order) {
	if s.publisher == nil {
		return
	}
	body, err := json.Marshal(OrderEvent{
		Event:   event,
		OrderID: order.ID,
		Status:  order.Status,
		Total:   order.Total,
		At:      models.FormatTime(s.opts.Clock()),
	})
	if err != nil {
		log.Printf("Failed to marshal %s event for order %s: %v", event, order.ID, err)
		return
	}
	if err := s.publisher.Publish(ctx, event, body); err != nil {
		log.Printf("Warning: Failed to publish %s event for order %s: %v", event, order.ID, err)
	}
}
