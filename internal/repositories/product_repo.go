package repositories

import (
	"context"
	"fmt"

	"storefront/internal/docstore"
	"storefront/internal/models"
)

// ProductsCollection is the document collection holding products.
const ProductsCollection = "products"

// ErrNotFound is returned (wrapped) when an id does not resolve.
var ErrNotFound = docstore.ErrNotFound

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	// List returns up to limit products ordered by id, starting after cursor when it is set.
	List(ctx context.Context, limit int, cursor string) ([]models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	// Create stores the product and sets its ID.
	Create(ctx context.Context, product *models.Product) error
	// Update merges fields into an existing product.
	Update(ctx context.Context, id string, fields map[string]any) error
	// Replace overwrites the whole stored document of product.ID.
	Replace(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error
}

// DocProductRepository is a ProductRepository on top of a document store.
type DocProductRepository struct {
	store docstore.Store
}

// NewDocProductRepository creates a new instance of DocProductRepository.
func NewDocProductRepository(store docstore.Store) *DocProductRepository {
	return &DocProductRepository{
		store: store,
	}
}

func (r *DocProductRepository) List(ctx context.Context, limit int, cursor string) ([]models.Product, error) {
	snapshots, err := r.store.Scan(ctx, ProductsCollection, docstore.Query{Limit: limit, StartAfter: cursor})
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	products := make([]models.Product, 0, len(snapshots))
	for _, s := range snapshots {
		p, err := models.ProductFromDocument(s.ID, s.Data)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, nil
}

func (r *DocProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	doc, err := r.store.Get(ctx, ProductsCollection, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return models.ProductFromDocument(id, doc)
}

func (r *DocProductRepository) Create(ctx context.Context, product *models.Product) error {
	id, err := r.store.Add(ctx, ProductsCollection, product.Document())
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	product.ID = id
	return nil
}

func (r *DocProductRepository) Update(ctx context.Context, id string, fields map[string]any) error {
	if err := r.store.Merge(ctx, ProductsCollection, id, fields); err != nil {
		return fmt.Errorf("failed to update product %s: %w", id, err)
	}
	return nil
}

func (r *DocProductRepository) Replace(ctx context.Context, product *models.Product) error {
	if err := r.store.Set(ctx, ProductsCollection, product.ID, product.Document()); err != nil {
		return fmt.Errorf("failed to replace product %s: %w", product.ID, err)
	}
	return nil
}

func (r *DocProductRepository) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, ProductsCollection, id); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}
