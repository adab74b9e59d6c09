package basket

import (
	"context"

	"github.com/ecomkit/basket/internal/domain"
)

// passThrough forwards every controller method to the next chain link.
// Concrete decorators embed it and override only the operations they
// intercept.
type passThrough struct {
	next Controller
}

func (d passThrough) Get(ctx context.Context) (*domain.Basket, error) {
	return d.next.Get(ctx)
}

func (d passThrough) Save(ctx context.Context) error {
	return d.next.Save(ctx)
}

func (d passThrough) Clear(ctx context.Context) (*domain.Basket, error) {
	return d.next.Clear(ctx)
}

func (d passThrough) SetType(basketType string) {
	d.next.SetType(basketType)
}

func (d passThrough) SetMeta(ctx context.Context, meta Meta) (*domain.Basket, error) {
	return d.next.SetMeta(ctx, meta)
}

func (d passThrough) Store(ctx context.Context) (*domain.Order, error) {
	return d.next.Store(ctx)
}

func (d passThrough) LoadOrder(ctx context.Context, orderID string, requireOwnership bool) (*domain.Basket, error) {
	return d.next.LoadOrder(ctx, orderID, requireOwnership)
}

func (d passThrough) AddProduct(ctx context.Context, input AddProductInput) (*domain.Basket, error) {
	return d.next.AddProduct(ctx, input)
}

func (d passThrough) UpdateProduct(ctx context.Context, position int, quantity float64) (*domain.Basket, error) {
	return d.next.UpdateProduct(ctx, position, quantity)
}

func (d passThrough) DeleteProduct(ctx context.Context, position int) (*domain.Basket, error) {
	return d.next.DeleteProduct(ctx, position)
}

func (d passThrough) AddAddress(ctx context.Context, address domain.Address) (*domain.Basket, error) {
	return d.next.AddAddress(ctx, address)
}

func (d passThrough) DeleteAddress(ctx context.Context, addressType string, position int) (*domain.Basket, error) {
	return d.next.DeleteAddress(ctx, addressType, position)
}

func (d passThrough) AddService(ctx context.Context, serviceID string, config map[string]string, position int) (*domain.Basket, error) {
	return d.next.AddService(ctx, serviceID, config, position)
}

func (d passThrough) DeleteService(ctx context.Context, serviceType string, position int) (*domain.Basket, error) {
	return d.next.DeleteService(ctx, serviceType, position)
}

func (d passThrough) AddCoupon(ctx context.Context, code string) (*domain.Basket, error) {
	return d.next.AddCoupon(ctx, code)
}

func (d passThrough) DeleteCoupon(ctx context.Context, code string) (*domain.Basket, error) {
	return d.next.DeleteCoupon(ctx, code)
}
