package services_test

import (
	"context"
	"encoding/json"
	"testing"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockOrderRepository is a mock implementation of repositories.OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) ListRecent(ctx context.Context, limit int) ([]models.Order, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderRepository) Create(ctx context.Context, order *models.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) Update(ctx context.Context, id string, fields map[string]any) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}

func (m *MockOrderRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockPublisher records published order events.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, routingKey string, body []byte) error {
	args := m.Called(ctx, routingKey, body)
	return args.Error(0)
}

func orderOptions(recompute bool) services.OrderOptions {
	return services.OrderOptions{
		Statuses:       models.NewStatusSet([]string{"pending", "processing", "shipped", "cancelled"}),
		RecomputeTotal: recompute,
		DeliveryFee:    120,
		DefaultLimit:   50,
		MaxLimit:       100,
		Clock:          fixedClock,
	}
}

func eventBody(t *testing.T, event, id string, status models.OrderStatus, total float64) []byte {
	t.Helper()
	body, err := json.Marshal(services.OrderEvent{Event: event, OrderID: id, Status: status, Total: total, At: fixedStamp})
	require.NoError(t, err)
	return body
}

func TestOrderService_CreateOrder_RecomputesTotal(t *testing.T) {
	ctx := context.Background()
	orderRepo := new(MockOrderRepository)
	productRepo := new(MockProductRepository)
	publisher := new(MockPublisher)
	service := services.NewOrderService(orderRepo, productRepo, publisher, orderOptions(true))

	productRepo.On("GetByID", ctx, "p1").Return(&models.Product{ID: "p1", Name: "Tee", Price: 100, Active: true}, nil).Once()
	productRepo.On("GetByID", ctx, "p2").Return(&models.Product{ID: "p2", Name: "Cap", Price: 50, Active: true}, nil).Once()
	orderRepo.On("Create", ctx, mock.AnythingOfType("*models.Order")).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Order).ID = "o1"
	}).Return(nil).Once()
	publisher.On("Publish", ctx, services.EventOrderCreated, eventBody(t, services.EventOrderCreated, "o1", models.StatusPending, 370)).Return(nil).Once()

	order := &models.Order{
		Items: []models.LineItem{
			{ProductID: "p1", Price: 1, Quantity: 2},
			{ProductID: "p2", Name: "Client name", Price: 1, Quantity: 1},
		},
		Total:    3,
		Customer: models.Customer{Name: "Ann"},
	}
	require.NoError(t, service.CreateOrder(ctx, order))

	assert.Equal(t, "o1", order.ID)
	assert.Equal(t, models.StatusPending, order.Status)
	assert.Equal(t, fixedStamp, order.CreatedAt)
	assert.Equal(t, order.CreatedAt, order.UpdatedAt)
	assert.Equal(t, 100.0, order.Items[0].Price)
	assert.Equal(t, "Tee", order.Items[0].Name)
	assert.Equal(t, "Client name", order.Items[1].Name)
	assert.Equal(t, 370.0, order.Total)

	orderRepo.AssertExpectations(t)
	productRepo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestOrderService_CreateOrder_UnknownProduct(t *testing.T) {
	ctx := context.Background()
	orderRepo := new(MockOrderRepository)
	productRepo := new(MockProductRepository)
	service := services.NewOrderService(orderRepo, productRepo, nil, orderOptions(true))

	productRepo.On("GetByID", ctx, "ghost").Return(nil, notFound("ghost")).Once()

	err := service.CreateOrder(ctx, &models.Order{Items: []models.LineItem{{ProductID: "ghost", Quantity: 1}}})
	assert.Equal(t, 400, apperr.Status(err))
	assert.Equal(t, "Unknown product ghost", err.Error())
	orderRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestOrderService_CreateOrder_UnavailableProduct(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		product *models.Product
	}{
		{name: "sold out", product: &models.Product{ID: "p1", Price: 100, Active: true, SoldOut: true}},
		{name: "inactive", product: &models.Product{ID: "p1", Price: 100, Active: false}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orderRepo := new(MockOrderRepository)
			productRepo := new(MockProductRepository)
			service := services.NewOrderService(orderRepo, productRepo, nil, orderOptions(true))

			productRepo.On("GetByID", ctx, "p1").Return(tt.product, nil).Once()

			err := service.CreateOrder(ctx, &models.Order{Items: []models.LineItem{{ProductID: "p1", Quantity: 1}}})
			assert.Equal(t, 400, apperr.Status(err))
			assert.Equal(t, "Product p1 is not available", err.Error())
			orderRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestOrderService_CreateOrder_TrustsClientTotal(t *testing.T) {
	ctx := context.Background()
	orderRepo := new(MockOrderRepository)
	productRepo := new(MockProductRepository)
	service := services.NewOrderService(orderRepo, productRepo, nil, orderOptions(false))

	orderRepo.On("Create", ctx, mock.AnythingOfType("*models.Order")).Return(nil).Once()

	order := &models.Order{Total: 42}
	require.NoError(t, service.CreateOrder(ctx, order))
	assert.Equal(t, 42.0, order.Total)
	assert.Equal(t, []models.LineItem{}, order.Items)

	productRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	orderRepo.AssertExpectations(t)
}

func TestOrderService_CreateOrder_PublishFailureIsIgnored(t *testing.T) {
	ctx := context.Background()
	orderRepo := new(MockOrderRepository)
	publisher := new(MockPublisher)
	service := services.NewOrderService(orderRepo, new(MockProductRepository), publisher, orderOptions(false))

	orderRepo.On("Create", ctx, mock.Anything).Return(nil).Once()
	publisher.On("Publish", ctx, services.EventOrderCreated, mock.Anything).Return(errStore).Once()

	assert.NoError(t, service.CreateOrder(ctx, &models.Order{}))
	publisher.AssertExpectations(t)
}

func TestOrderService_ListOrders(t *testing.T) {
	ctx := context.Background()
	orderRepo := new(MockOrderRepository)
	service := services.NewOrderService(orderRepo, nil, nil, orderOptions(true))

	orderRepo.On("ListRecent", ctx, 50).Return([]models.Order{{ID: "o2"}, {ID: "o1"}}, nil).Once()
	orders, err := service.ListOrders(ctx, "")
	require.NoError(t, err)
	assert.Len(t, orders, 2)

	orderRepo.On("ListRecent", ctx, 100).Return(nil, errStore).Once()
	_, err = service.ListOrders(ctx, "250")
	assert.Equal(t, 500, apperr.Status(err))

	orderRepo.AssertExpectations(t)
}

func TestOrderService_UpdateOrderStatus(t *testing.T) {
	ctx := context.Background()
	orderRepo := new(MockOrderRepository)
	publisher := new(MockPublisher)
	service := services.NewOrderService(orderRepo, nil, publisher, orderOptions(true))

	updated := &models.Order{ID: "o1", Status: "shipped", Total: 220}
	orderRepo.On("Update", ctx, "o1", map[string]any{"status": "shipped", "updatedAt": fixedStamp}).Return(nil).Once()
	orderRepo.On("GetByID", ctx, "o1").Return(updated, nil).Once()
	publisher.On("Publish", ctx, services.EventOrderStatusUpdated, eventBody(t, services.EventOrderStatusUpdated, "o1", "shipped", 220)).Return(nil).Once()

	order, err := service.UpdateOrderStatus(ctx, "o1", "shipped")
	require.NoError(t, err)
	assert.Equal(t, updated, order)

	// Nonexistent order: nothing is written and nothing is published.
	orderRepo.On("Update", ctx, "missing", mock.Anything).Return(notFound("missing")).Once()
	_, err = service.UpdateOrderStatus(ctx, "missing", "shipped")
	assert.Equal(t, 404, apperr.Status(err))

	// Status outside the configured set never reaches the store.
	_, err = service.UpdateOrderStatus(ctx, "o1", "paid")
	assert.Equal(t, 400, apperr.Status(err))

	orderRepo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestOrderService_DeleteOrder(t *testing.T) {
	ctx := context.Background()
	orderRepo := new(MockOrderRepository)
	publisher := new(MockPublisher)
	service := services.NewOrderService(orderRepo, nil, publisher, orderOptions(true))

	orderRepo.On("Delete", ctx, "o1").Return(nil).Once()
	publisher.On("Publish", ctx, services.EventOrderDeleted, eventBody(t, services.EventOrderDeleted, "o1", "", 0)).Return(nil).Once()
	assert.NoError(t, service.DeleteOrder(ctx, "o1"))

	orderRepo.On("Delete", ctx, "o2").Return(errStore).Once()
	assert.Equal(t, 500, apperr.Status(service.DeleteOrder(ctx, "o2")))

	orderRepo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

var _ repositories.OrderRepository = (*MockOrderRepository)(nil)
