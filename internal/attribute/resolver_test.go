package attribute

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

func testProducts() []domain.Product {
	return []domain.Product{
		{ID: "p1", AttributeRefs: map[string][]string{
			domain.AttrTypeConfig:  {"a1", "a2"},
			domain.AttrTypeVariant: {"v1"},
		}},
		{ID: "p2", AttributeRefs: map[string][]string{
			domain.AttrTypeConfig: {"a3"},
		}},
	}
}

func TestCheckAttributes(t *testing.T) {
	products := testProducts()

	// IDs assigned across the union of all products pass.
	assert.NoError(t, CheckAttributes(products, domain.AttrTypeConfig, []string{"a1", "a3"}))

	// No IDs requested is always fine.
	assert.NoError(t, CheckAttributes(products, domain.AttrTypeConfig, nil))
}

func TestCheckAttributes_NotAssigned(t *testing.T) {
	err := CheckAttributes(testProducts(), domain.AttrTypeConfig, []string{"a1", "bogus"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, []string{"bogus"}, appErr.Details["attribute_ids"])
}

func TestCheckAttributes_ListTypeScoped(t *testing.T) {
	// a1 is assigned as config, not as variant.
	err := CheckAttributes(testProducts(), domain.AttrTypeVariant, []string{"a1"})
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))
}

func TestFilterIDs(t *testing.T) {
	got := FilterIDs(testProducts(), domain.AttrTypeConfig, []string{"a3", "bogus", "a1"})
	assert.Equal(t, []string{"a3", "a1"}, got)

	assert.Nil(t, FilterIDs(testProducts(), domain.AttrTypeHidden, []string{"a1"}))
}

func TestResolver_OrderAttributes(t *testing.T) {
	locale := domain.LocaleKey{SiteID: "default", LanguageID: "en", CurrencyID: "EUR"}
	attrs := []domain.Attribute{
		{ID: "a1", Code: "giftwrap", Name: "Gift wrapping", PriceTiers: []domain.PriceTier{
			{MinQuantity: 1, Price: domain.NewPrice("1.50", "EUR")},
		}},
		{ID: "a2", Code: "engraving", Name: "Engraving"},
	}

	manager := new(mockAttributeManager)
	manager.On("GetBatch", mock.Anything, []string{"a1", "a2"}, locale).Return(attrs, nil)

	resolver := NewResolver(manager)
	got, err := resolver.OrderAttributes(context.Background(), domain.AttrTypeConfig, []string{"a1", "a2"},
		map[string]string{"a2": "hello"}, map[string]float64{"a1": 2}, locale)

	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, domain.AttrTypeConfig, got[0].Type)
	assert.Equal(t, "a1", got[0].AttributeID)
	// Value defaults to the attribute code.
	assert.Equal(t, "giftwrap", got[0].Value)
	assert.Equal(t, 2.0, got[0].Quantity)
	assert.True(t, got[0].Price.Value.Equal(decimal.RequireFromString("1.50")))

	assert.Equal(t, "hello", got[1].Value)
	// Quantity defaults to 1; unpriced attributes stay at zero.
	assert.Equal(t, 1.0, got[1].Quantity)
	assert.True(t, got[1].Price.IsZero())

	manager.AssertExpectations(t)
}

func TestResolver_OrderAttributes_CountMismatch(t *testing.T) {
	manager := new(mockAttributeManager)
	manager.On("GetBatch", mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.Attribute{{ID: "a1", Code: "giftwrap"}}, nil)

	resolver := NewResolver(manager)
	_, err := resolver.OrderAttributes(context.Background(), domain.AttrTypeConfig, []string{"a1", "gone"}, nil, nil, domain.LocaleKey{})

	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestResolver_OrderAttributes_Empty(t *testing.T) {
	resolver := NewResolver(new(mockAttributeManager))

	got, err := resolver.OrderAttributes(context.Background(), domain.AttrTypeConfig, nil, nil, nil, domain.LocaleKey{})

	require.NoError(t, err)
	assert.Nil(t, got)
}
