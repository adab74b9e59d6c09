package basket

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ecomkit/basket/internal/domain"
	apperrors "github.com/ecomkit/basket/pkg/errors"
)

func TestCategoryDecorator_RejectsInvisibleProduct(t *testing.T) {
	env := newTestEnv(t, Options{})
	product := catalogProduct("p-1", "CNC")
	env.products.On("Get", mock.Anything, "p-1", testLocale).Return(product, nil)

	env.categories.ExpectedCalls = nil
	env.categories.On("HasVisibleCategory", mock.Anything, []string{"cat-1"}, testLocale).Return(false, nil)

	ctrl := env.controller()
	_, err := ctrl.AddProduct(context.Background(), AddProductInput{ProductID: "p-1", Quantity: 1})

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))
}

func TestCategoryDecorator_RejectsOrphanedProduct(t *testing.T) {
	env := newTestEnv(t, Options{})
	product := catalogProduct("p-1", "CNC")
	product.CategoryIDs = nil
	env.products.On("Get", mock.Anything, "p-1", testLocale).Return(product, nil)

	_, err := env.controller().AddProduct(context.Background(), AddProductInput{ProductID: "p-1", Quantity: 1})

	assert.True(t, errors.Is(err, apperrors.ErrForbidden))
}

func TestBundleDecorator_NestsChildLines(t *testing.T) {
	env := newTestEnv(t, Options{})
	bundle := catalogProduct("p-b", "BNDL")
	bundle.Type = domain.ProductTypeBundle
	x := catalogProduct("p-x", "ABCD")
	y := catalogProduct("p-y", "EFGH")
	y.PriceTiers = []domain.PriceTier{{MinQuantity: 1, Price: domain.NewPrice("5.00", "EUR")}}
	bundle.Children = []domain.Product{*x, *y}
	env.products.On("Get", mock.Anything, "p-b", testLocale).Return(bundle, nil)

	ctrl := env.controller()
	basket, err := ctrl.AddProduct(context.Background(), AddProductInput{ProductID: "p-b", Quantity: 1})

	require.NoError(t, err)
	require.Len(t, basket.Products, 1)

	parent := basket.Products[0]
	assert.Equal(t, "BNDL", parent.Code)
	assert.True(t, parent.Immutable)
	require.Len(t, parent.Children, 2)
	assert.Equal(t, "ABCD", parent.Children[0].Code)
	assert.Equal(t, "EFGH", parent.Children[1].Code)
	assert.Equal(t, "p-b", parent.Children[0].ParentProductID)
	// Each bundled item carries its own price.
	assert.True(t, parent.Children[0].Price.Value.Equal(decimal.RequireFromString("10.00")))
	assert.True(t, parent.Children[1].Price.Value.Equal(decimal.RequireFromString("5.00")))
}

func selectionProduct() *domain.Product {
	parent := catalogProduct("p-sel", "SHIRT")
	parent.Type = domain.ProductTypeSelect

	redS := catalogProduct("p-red-s", "SHIRT-RED-S")
	redS.AttributeRefs = map[string][]string{domain.AttrTypeVariant: {"attr-red", "attr-s"}}
	redM := catalogProduct("p-red-m", "SHIRT-RED-M")
	redM.AttributeRefs = map[string][]string{domain.AttrTypeVariant: {"attr-red", "attr-m"}}
	parent.Children = []domain.Product{*redS, *redM}
	return parent
}

func TestSelectDecorator_ResolvesUniqueArticle(t *testing.T) {
	env := newTestEnv(t, Options{SelectRequireVariant: true})
	parent := selectionProduct()
	article := parent.Children[0]
	env.products.On("Get", mock.Anything, "p-sel", testLocale).Return(parent, nil)
	env.products.On("Get", mock.Anything, "p-red-s", testLocale).Return(&article, nil)
	env.attributes.On("GetBatch", mock.Anything, []string{"attr-red", "attr-s"}, testLocale).Return([]domain.Attribute{
		{ID: "attr-red", Code: "red", Type: "color"},
		{ID: "attr-s", Code: "s", Type: "size"},
	}, nil)

	ctrl := env.controller()
	basket, err := ctrl.AddProduct(context.Background(), AddProductInput{
		ProductID:      "p-sel",
		Quantity:       1,
		VariantAttrIDs: []string{"attr-red", "attr-s"},
	})

	require.NoError(t, err)
	require.Len(t, basket.Products, 1)
	item := basket.Products[0]
	assert.Equal(t, "SHIRT-RED-S", item.Code)
	assert.Equal(t, "p-sel", item.ParentProductID)
	require.Len(t, item.Attributes, 2)
	assert.Equal(t, domain.AttrTypeVariant, item.Attributes[0].Type)
}

func TestSelectDecorator_AmbiguousVariant(t *testing.T) {
	env := newTestEnv(t, Options{SelectRequireVariant: true})
	env.products.On("Get", mock.Anything, "p-sel", testLocale).Return(selectionProduct(), nil)

	_, err := env.controller().AddProduct(context.Background(), AddProductInput{
		ProductID:      "p-sel",
		Quantity:       1,
		VariantAttrIDs: []string{"attr-red"},
	})

	require.Error(t, err)
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "NO_UNIQUE_ARTICLE", appErr.Code)
}

func TestSelectDecorator_NoArticleFound(t *testing.T) {
	env := newTestEnv(t, Options{SelectRequireVariant: true})
	env.products.On("Get", mock.Anything, "p-sel", testLocale).Return(selectionProduct(), nil)

	_, err := env.controller().AddProduct(context.Background(), AddProductInput{
		ProductID:      "p-sel",
		Quantity:       1,
		VariantAttrIDs: []string{"attr-blue"},
	})

	require.Error(t, err)
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "NO_ARTICLE_FOUND", appErr.Code)
}

func TestSelectDecorator_ParentFallback(t *testing.T) {
	env := newTestEnv(t, Options{SelectRequireVariant: false})
	parent := selectionProduct()
	parent.AttributeRefs = map[string][]string{domain.AttrTypeVariant: {"attr-blue"}}
	env.products.On("Get", mock.Anything, "p-sel", testLocale).Return(parent, nil)
	env.attributes.On("GetBatch", mock.Anything, []string{"attr-blue"}, testLocale).Return([]domain.Attribute{
		{ID: "attr-blue", Code: "blue", Type: "color"},
	}, nil)

	basket, err := env.controller().AddProduct(context.Background(), AddProductInput{
		ProductID:      "p-sel",
		Quantity:       1,
		VariantAttrIDs: []string{"attr-blue"},
	})

	// No article matches, but the selection itself may be ordered.
	require.NoError(t, err)
	require.Len(t, basket.Products, 1)
	assert.Equal(t, "SHIRT", basket.Products[0].Code)
}

func TestSelectDecorator_FallbackRejectsUnassignedVariant(t *testing.T) {
	env := newTestEnv(t, Options{SelectRequireVariant: false})
	env.products.On("Get", mock.Anything, "p-sel", testLocale).Return(selectionProduct(), nil)

	ctrl := env.controller()
	_, err := ctrl.AddProduct(context.Background(), AddProductInput{
		ProductID:      "p-sel",
		Quantity:       1,
		VariantAttrIDs: []string{"attr-rogue"},
	})

	// Falling back to the parent does not bypass the assignment check.
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))

	basket, err := ctrl.Get(context.Background())
	require.NoError(t, err)
	assert.Empty(t, basket.Products)
}

func TestStockDecorator_ClampsQuantity(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.products.On("Get", mock.Anything, "p-1", testLocale).Return(catalogProduct("p-1", "CNC"), nil)

	env.stock.ExpectedCalls = nil
	env.stock.On("Level", mock.Anything, "CNC", "", testLocale).Return(3.0, nil)

	ctrl := env.controller()
	basket, err := ctrl.AddProduct(context.Background(), AddProductInput{ProductID: "p-1", Quantity: 5})

	// The clamped quantity is committed and the shortage is surfaced.
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrCapacity))
	require.NotNil(t, basket)
	require.Len(t, basket.Products, 1)
	assert.Equal(t, 3.0, basket.Products[0].Quantity)

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 5.0, appErr.Details["requested"])
	assert.Equal(t, 3.0, appErr.Details["available"])
}

func TestStockDecorator_ClampFloorsToScale(t *testing.T) {
	env := newTestEnv(t, Options{})
	product := catalogProduct("p-1", "CNC")
	product.Scale = 2
	env.products.On("Get", mock.Anything, "p-1", testLocale).Return(product, nil)

	env.stock.ExpectedCalls = nil
	env.stock.On("Level", mock.Anything, "CNC", "", testLocale).Return(3.0, nil)

	ctrl := env.controller()
	basket, err := ctrl.AddProduct(context.Background(), AddProductInput{ProductID: "p-1", Quantity: 6})

	// 3 units are available but the sale unit is 2, so only 2 are committed.
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrCapacity))
	require.NotNil(t, basket)
	require.Len(t, basket.Products, 1)
	assert.Equal(t, 2.0, basket.Products[0].Quantity)
}

func TestStockDecorator_ClampBelowScaleCommitsNothing(t *testing.T) {
	env := newTestEnv(t, Options{})
	product := catalogProduct("p-1", "CNC")
	product.Scale = 5
	env.products.On("Get", mock.Anything, "p-1", testLocale).Return(product, nil)

	env.stock.ExpectedCalls = nil
	env.stock.On("Level", mock.Anything, "CNC", "", testLocale).Return(3.0, nil)

	ctrl := env.controller()
	basket, err := ctrl.AddProduct(context.Background(), AddProductInput{ProductID: "p-1", Quantity: 10})

	// Less than one sale unit in stock cannot be committed at all.
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrCapacity))
	assert.Nil(t, basket)

	committed, err := ctrl.Get(context.Background())
	require.NoError(t, err)
	assert.Empty(t, committed.Products)
}

func TestStockDecorator_OutOfStock(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.products.On("Get", mock.Anything, "p-1", testLocale).Return(catalogProduct("p-1", "CNC"), nil)

	env.stock.ExpectedCalls = nil
	env.stock.On("Level", mock.Anything, "CNC", "", testLocale).Return(0.0, nil)

	ctrl := env.controller()
	basket, err := ctrl.AddProduct(context.Background(), AddProductInput{ProductID: "p-1", Quantity: 1})

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrCapacity))
	assert.Nil(t, basket)

	committed, err := ctrl.Get(context.Background())
	require.NoError(t, err)
	assert.Empty(t, committed.Products)
}

func TestStockDecorator_DisabledCheck(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.products.On("Get", mock.Anything, "p-1", testLocale).Return(catalogProduct("p-1", "CNC"), nil)

	env.stock.ExpectedCalls = nil
	env.stock.On("Level", mock.Anything, "CNC", "", testLocale).Return(0.0, nil).Maybe()

	ctrl := env.controller()
	basket, err := ctrl.AddProduct(context.Background(), AddProductInput{
		ProductID:         "p-1",
		Quantity:          2,
		DisableStockCheck: true,
	})

	require.NoError(t, err)
	assert.Equal(t, 2.0, basket.Products[0].Quantity)
}

func TestStockDecorator_ClampsOnUpdate(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.products.On("Get", mock.Anything, "p-1", testLocale).Return(catalogProduct("p-1", "CNC"), nil)

	ctrl := env.controller()
	ctx := context.Background()
	_, err := ctrl.AddProduct(ctx, AddProductInput{ProductID: "p-1", Quantity: 2})
	require.NoError(t, err)

	env.stock.ExpectedCalls = nil
	env.stock.On("Level", mock.Anything, "CNC", "", testLocale).Return(4.0, nil)

	basket, err := ctrl.UpdateProduct(ctx, 0, 10)

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrCapacity))
	require.NotNil(t, basket)
	assert.Equal(t, 4.0, basket.Products[0].Quantity)
}

func TestFactory_SkipsUnknownDecorator(t *testing.T) {
	env := newTestEnv(t, Options{Decorators: []string{"category", "bogus", "stock"}})
	env.products.On("Get", mock.Anything, "p-1", testLocale).Return(catalogProduct("p-1", "CNC"), nil)

	basket, err := env.controller().AddProduct(context.Background(), AddProductInput{ProductID: "p-1", Quantity: 1})

	require.NoError(t, err)
	assert.Len(t, basket.Products, 1)
}
