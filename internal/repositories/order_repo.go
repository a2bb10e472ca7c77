package repositories

import (
	"context"
	"fmt"

	"storefront/internal/docstore"
	"storefront/internal/models"
)

// OrdersCollection is the document collection holding orders.
const OrdersCollection = "orders"

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	// ListRecent returns up to limit orders, newest first by createdAt.
	ListRecent(ctx context.Context, limit int) ([]models.Order, error)
	GetByID(ctx context.Context, id string) (*models.Order, error)
	// Create stores the order and sets its ID.
	Create(ctx context.Context, order *models.Order) error
	// Update merges fields into an existing order.
	Update(ctx context.Context, id string, fields map[string]any) error
	Delete(ctx context.Context, id string) error
}

// DocOrderRepository is an OrderRepository on top of a document store.
type DocOrderRepository struct {
	store docstore.Store
}

// NewDocOrderRepository creates a new instance of DocOrderRepository.
func NewDocOrderRepository(store docstore.Store) *DocOrderRepository {
	return &DocOrderRepository{
		store: store,
	}
}

func (r *DocOrderRepository) ListRecent(ctx context.Context, limit int) ([]models.Order, error) {
	snapshots, err := r.store.Scan(ctx, OrdersCollection, docstore.Query{OrderBy: "createdAt", Descending: true, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	orders := make([]models.Order, 0, len(snapshots))
	for _, s := range snapshots {
		o, err := models.OrderFromDocument(s.ID, s.Data)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, nil
}

func (r *DocOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	doc, err := r.store.Get(ctx, OrdersCollection, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return models.OrderFromDocument(id, doc)
}

func (r *DocOrderRepository) Create(ctx context.Context, order *models.Order) error {
	doc, err := order.Document()
	if err != nil {
		return err
	}
	id, err := r.store.Add(ctx, OrdersCollection, doc)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	order.ID = id
	return nil
}

func (r *DocOrderRepository) Update(ctx context.Context, id string, fields map[string]any) error {
	if err := r.store.Merge(ctx, OrdersCollection, id, fields); err != nil {
		return fmt.Errorf("failed to update order %s: %w", id, err)
	}
	return nil
}

func (r *DocOrderRepository) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, OrdersCollection, id); err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	return nil
}
