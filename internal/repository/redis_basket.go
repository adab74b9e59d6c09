package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ecomkit/basket/internal/domain"
	apperrors "github.com/ecomkit/basket/pkg/errors"
)

// redisBasketRepository stores each basket as a JSON blob under
// basket:<customer>:<type> and the customer's locale key under
// basket:locale:<customer>. Both keys share the basket TTL so abandoned
// sessions age out together.
type redisBasketRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisBasketRepository creates a redis-backed basket repository. Baskets
// expire after the given TTL, refreshed on every save.
func NewRedisBasketRepository(client *redis.Client, ttl time.Duration) BasketRepository {
	return &redisBasketRepository{client: client, ttl: ttl}
}

func basketKey(customerID, basketType string) string {
	return fmt.Sprintf("basket:%s:%s", customerID, basketType)
}

func localeKey(customerID string) string {
	return fmt.Sprintf("basket:locale:%s", customerID)
}

func (r *redisBasketRepository) GetBasket(ctx context.Context, customerID, basketType string) (*domain.Basket, error) {
	data, err := r.client.Get(ctx, basketKey(customerID, basketType)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperrors.NotFound("basket", customerID+":"+basketType)
	}
	if err != nil {
		return nil, fmt.Errorf("get basket: %w", err)
	}

	var basket domain.Basket
	if err := json.Unmarshal(data, &basket); err != nil {
		return nil, fmt.Errorf("unmarshal basket: %w", err)
	}
	return &basket, nil
}

func (r *redisBasketRepository) SaveBasket(ctx context.Context, customerID, basketType string, basket *domain.Basket) error {
	data, err := json.Marshal(basket)
	if err != nil {
		return fmt.Errorf("marshal basket: %w", err)
	}

	if err := r.client.Set(ctx, basketKey(customerID, basketType), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("save basket: %w", err)
	}
	return nil
}

func (r *redisBasketRepository) DeleteBasket(ctx context.Context, customerID, basketType string) error {
	if err := r.client.Del(ctx, basketKey(customerID, basketType)).Err(); err != nil {
		return fmt.Errorf("delete basket: %w", err)
	}
	return nil
}

func (r *redisBasketRepository) GetLocale(ctx context.Context, customerID string) (domain.LocaleKey, error) {
	data, err := r.client.Get(ctx, localeKey(customerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.LocaleKey{}, apperrors.NotFound("locale", customerID)
	}
	if err != nil {
		return domain.LocaleKey{}, fmt.Errorf("get locale: %w", err)
	}

	var locale domain.LocaleKey
	if err := json.Unmarshal(data, &locale); err != nil {
		return domain.LocaleKey{}, fmt.Errorf("unmarshal locale: %w", err)
	}
	return locale, nil
}

func (r *redisBasketRepository) SaveLocale(ctx context.Context, customerID string, locale domain.LocaleKey) error {
	data, err := json.Marshal(locale)
	if err != nil {
		return fmt.Errorf("marshal locale: %w", err)
	}

	if err := r.client.Set(ctx, localeKey(customerID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("save locale: %w", err)
	}
	return nil
}
