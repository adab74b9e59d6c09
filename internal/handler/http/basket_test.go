package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ecomkit/basket/internal/attribute"
	"github.com/ecomkit/basket/internal/basket"
	"github.com/ecomkit/basket/internal/domain"
	"github.com/ecomkit/basket/internal/repository"
	"github.com/ecomkit/basket/pkg/health"
)

type stubProducts struct {
	mock.Mock
}

func (m *stubProducts) Get(ctx context.Context, productID string, locale domain.LocaleKey) (*domain.Product, error) {
	args := m.Called(ctx, productID, locale)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *stubProducts) FindByCode(ctx context.Context, code string, locale domain.LocaleKey) (*domain.Product, error) {
	args := m.Called(ctx, code, locale)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

type stubAttributes struct {
	mock.Mock
}

func (m *stubAttributes) GetBatch(ctx context.Context, ids []string, locale domain.LocaleKey) ([]domain.Attribute, error) {
	args := m.Called(ctx, ids, locale)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Attribute), args.Error(1)
}

type stubCategories struct {
	mock.Mock
}

func (m *stubCategories) HasVisibleCategory(ctx context.Context, categoryIDs []string, locale domain.LocaleKey) (bool, error) {
	args := m.Called(ctx, categoryIDs, locale)
	return args.Bool(0), args.Error(1)
}

type stubStock struct {
	mock.Mock
}

func (m *stubStock) Level(ctx context.Context, productCode, stockType string, locale domain.LocaleKey) (float64, error) {
	args := m.Called(ctx, productCode, stockType, locale)
	return args.Get(0).(float64), args.Error(1)
}

type handlerEnv struct {
	products   *stubProducts
	categories *stubCategories
	stock      *stubStock
	server     http.Handler
}

func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	env := &handlerEnv{
		products:   new(stubProducts),
		categories: new(stubCategories),
		stock:      new(stubStock),
	}
	env.categories.On("HasVisibleCategory", mock.Anything, mock.Anything, mock.Anything).Return(true, nil).Maybe()
	env.stock.On("Level", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(-1.0, nil).Maybe()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	factory := basket.NewFactory(basket.Deps{
		Baskets:    repository.NewRedisBasketRepository(client, time.Hour),
		Orders:     repository.NewRedisOrderRepository(client),
		Products:   env.products,
		Attributes: attribute.NewResolver(new(stubAttributes)),
		Categories: env.categories,
		Stock:      env.stock,
		Logger:     log,
	}, basket.Options{CouponsAllowed: 1})

	env.server = NewRouter(factory, health.NewHandler(), log)
	return env
}

func (e *handlerEnv) request(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("X-Session-ID", "sess-1")
	req.Header.Set("X-Site", "default")
	req.Header.Set("X-Language", "en")
	req.Header.Set("X-Currency", "EUR")

	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

func testProduct() *domain.Product {
	return &domain.Product{
		ID:          "p-1",
		Code:        "CNC",
		Name:        "CNC",
		Type:        domain.ProductTypeDefault,
		CategoryIDs: []string{"cat-1"},
		PriceTiers: []domain.PriceTier{
			{MinQuantity: 1, Price: domain.NewPrice("10.00", "EUR")},
		},
	}
}

func TestGetBasket(t *testing.T) {
	env := newHandlerEnv(t)

	rec := env.request(t, http.MethodGet, "/api/v1/basket", nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data domain.Basket `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "sess-1", resp.Data.CustomerID)
	assert.Equal(t, "en", resp.Data.Locale.LanguageID)
}

func TestGetBasket_MissingSession(t *testing.T) {
	env := newHandlerEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/basket", nil)
	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "MISSING_SESSION")
}

func TestAddProduct(t *testing.T) {
	env := newHandlerEnv(t)
	locale := domain.LocaleKey{SiteID: "default", LanguageID: "en", CurrencyID: "EUR"}
	env.products.On("Get", mock.Anything, "p-1", locale).Return(testProduct(), nil)

	rec := env.request(t, http.MethodPost, "/api/v1/basket/products",
		map[string]any{"product_id": "p-1", "quantity": 2})

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Data domain.Basket `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Products, 1)
	assert.Equal(t, "CNC", resp.Data.Products[0].Code)
}

func TestAddProduct_ValidationFailure(t *testing.T) {
	env := newHandlerEnv(t)

	rec := env.request(t, http.MethodPost, "/api/v1/basket/products",
		map[string]any{"quantity": 0})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_FAILED")
}

func TestAddProduct_StockClampReturnsBasket(t *testing.T) {
	env := newHandlerEnv(t)
	locale := domain.LocaleKey{SiteID: "default", LanguageID: "en", CurrencyID: "EUR"}
	env.products.On("Get", mock.Anything, "p-1", locale).Return(testProduct(), nil)

	env.stock.ExpectedCalls = nil
	env.stock.On("Level", mock.Anything, "CNC", "", locale).Return(1.0, nil)

	rec := env.request(t, http.MethodPost, "/api/v1/basket/products",
		map[string]any{"product_id": "p-1", "quantity": 5})

	// Conflict, but the clamped basket is still in the payload.
	require.Equal(t, http.StatusConflict, rec.Code)

	var resp struct {
		Data  domain.Basket `json:"data"`
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "INSUFFICIENT_STOCK", resp.Error.Code)
	require.Len(t, resp.Data.Products, 1)
	assert.Equal(t, 1.0, resp.Data.Products[0].Quantity)
}

func TestAddCoupon_LimitConflict(t *testing.T) {
	env := newHandlerEnv(t)

	rec := env.request(t, http.MethodPost, "/api/v1/basket/coupons", map[string]any{"code": "GHIJ"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.request(t, http.MethodPost, "/api/v1/basket/coupons", map[string]any{"code": "OPQR"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "COUPON_LIMIT_REACHED")
}

func TestDeleteProduct_NotFound(t *testing.T) {
	env := newHandlerEnv(t)

	rec := env.request(t, http.MethodDelete, "/api/v1/basket/products/7", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	env := newHandlerEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
