package basket

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"

	"github.com/ecomkit/basket/internal/attribute"
	"github.com/ecomkit/basket/internal/catalog"
	"github.com/ecomkit/basket/internal/domain"
	"github.com/ecomkit/basket/internal/repository"
)

var testLocale = domain.LocaleKey{SiteID: "default", LanguageID: "en", CurrencyID: "EUR"}

type mockProductManager struct {
	mock.Mock
}

func (m *mockProductManager) Get(ctx context.Context, productID string, locale domain.LocaleKey) (*domain.Product, error) {
	args := m.Called(ctx, productID, locale)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductManager) FindByCode(ctx context.Context, code string, locale domain.LocaleKey) (*domain.Product, error) {
	args := m.Called(ctx, code, locale)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

type mockAttributeManager struct {
	mock.Mock
}

func (m *mockAttributeManager) GetBatch(ctx context.Context, ids []string, locale domain.LocaleKey) ([]domain.Attribute, error) {
	args := m.Called(ctx, ids, locale)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Attribute), args.Error(1)
}

type mockCategorySearcher struct {
	mock.Mock
}

func (m *mockCategorySearcher) HasVisibleCategory(ctx context.Context, categoryIDs []string, locale domain.LocaleKey) (bool, error) {
	args := m.Called(ctx, categoryIDs, locale)
	return args.Bool(0), args.Error(1)
}

type mockStockManager struct {
	mock.Mock
}

func (m *mockStockManager) Level(ctx context.Context, productCode, stockType string, locale domain.LocaleKey) (float64, error) {
	args := m.Called(ctx, productCode, stockType, locale)
	return args.Get(0).(float64), args.Error(1)
}

type mockProviderManager struct {
	mock.Mock
}

func (m *mockProviderManager) GetProvider(ctx context.Context, serviceID string, locale domain.LocaleKey) (catalog.Provider, error) {
	args := m.Called(ctx, serviceID, locale)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(catalog.Provider), args.Error(1)
}

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Service() domain.Service {
	args := m.Called()
	return args.Get(0).(domain.Service)
}

func (m *mockProvider) CheckConfig(ctx context.Context, config map[string]string) (map[string]string, error) {
	args := m.Called(ctx, config)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

func (m *mockProvider) CalcPrice(ctx context.Context, basket *domain.Basket) (domain.Price, error) {
	args := m.Called(ctx, basket)
	return args.Get(0).(domain.Price), args.Error(1)
}

type mockEvents struct {
	mock.Mock
}

func (m *mockEvents) BasketUpdated(ctx context.Context, basket *domain.Basket) error {
	args := m.Called(ctx, basket)
	return args.Error(0)
}

func (m *mockEvents) OrderCreated(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockEvents) SubscriptionCreated(ctx context.Context, order *domain.Order, item domain.LineItem, interval string) error {
	args := m.Called(ctx, order, item, interval)
	return args.Error(0)
}

// testEnv wires a factory against mocked collaborators and a miniredis-backed
// repository. Category checks pass and stock is unlimited unless a test sets
// stricter expectations first.
type testEnv struct {
	products   *mockProductManager
	attributes *mockAttributeManager
	categories *mockCategorySearcher
	stock      *mockStockManager
	providers  *mockProviderManager
	events     *mockEvents

	baskets repository.BasketRepository
	orders  repository.OrderRepository

	factory *Factory
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	env := &testEnv{
		products:   new(mockProductManager),
		attributes: new(mockAttributeManager),
		categories: new(mockCategorySearcher),
		stock:      new(mockStockManager),
		providers:  new(mockProviderManager),
		events:     new(mockEvents),
		baskets:    repository.NewRedisBasketRepository(client, time.Hour),
		orders:     repository.NewRedisOrderRepository(client),
	}

	env.categories.On("HasVisibleCategory", mock.Anything, mock.Anything, mock.Anything).Return(true, nil).Maybe()
	env.stock.On("Level", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(-1.0, nil).Maybe()
	env.events.On("BasketUpdated", mock.Anything, mock.Anything).Return(nil).Maybe()

	env.factory = NewFactory(Deps{
		Baskets:    env.baskets,
		Orders:     env.orders,
		Products:   env.products,
		Attributes: attribute.NewResolver(env.attributes),
		Categories: env.categories,
		Stock:      env.stock,
		Providers:  env.providers,
		Events:     env.events,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, opts)

	return env
}

func (e *testEnv) controller() Controller {
	return e.factory.Controller(Session{ID: "sess-1", Locale: testLocale})
}

// catalogProduct builds a plain product with two price tiers and a visible
// category link.
func catalogProduct(id, code string) *domain.Product {
	return &domain.Product{
		ID:          id,
		Code:        code,
		Name:        code,
		Type:        domain.ProductTypeDefault,
		Status:      "active",
		CategoryIDs: []string{"cat-1"},
		PriceTiers: []domain.PriceTier{
			{MinQuantity: 1, Price: domain.NewPrice("10.00", "EUR")},
			{MinQuantity: 5, Price: domain.NewPrice("8.00", "EUR")},
		},
	}
}
