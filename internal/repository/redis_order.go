package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ecomkit/basket/internal/domain"
	apperrors "github.com/ecomkit/basket/pkg/errors"
)

// redisOrderRepository archives orders under order:<id> and keeps a sorted
// set per customer scored by creation time, which makes the trailing-window
// rate limit a single ZCOUNT.
type redisOrderRepository struct {
	client *redis.Client
}

// NewRedisOrderRepository creates a redis-backed order archive.
func NewRedisOrderRepository(client *redis.Client) OrderRepository {
	return &redisOrderRepository{client: client}
}

func orderKey(orderID string) string {
	return fmt.Sprintf("order:%s", orderID)
}

func customerOrdersKey(customerID string) string {
	return fmt.Sprintf("orders:customer:%s", customerID)
}

func (r *redisOrderRepository) StoreOrder(ctx context.Context, order *domain.Order) error {
	data, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, orderKey(order.ID), data, 0)
	pipe.ZAdd(ctx, customerOrdersKey(order.CustomerID), redis.Z{
		Score:  float64(order.CreatedAt.Unix()),
		Member: order.ID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store order: %w", err)
	}
	return nil
}

func (r *redisOrderRepository) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	data, err := r.client.Get(ctx, orderKey(orderID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperrors.NotFound("order", orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}

	var order domain.Order
	if err := json.Unmarshal(data, &order); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	return &order, nil
}

func (r *redisOrderRepository) CountOrdersSince(ctx context.Context, customerID string, since time.Time) (int, error) {
	count, err := r.client.ZCount(ctx, customerOrdersKey(customerID),
		strconv.FormatInt(since.Unix(), 10), "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return int(count), nil
}
