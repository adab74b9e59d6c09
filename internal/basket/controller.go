// Package basket implements the shopping basket core: the session-scoped
// basket controller, the product addition pipeline, the policy decorator
// chain and the locale migrator.
package basket

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ecomkit/basket/internal/attribute"
	"github.com/ecomkit/basket/internal/catalog"
	"github.com/ecomkit/basket/internal/domain"
	"github.com/ecomkit/basket/internal/repository"
	apperrors "github.com/ecomkit/basket/pkg/errors"
)

// Session identifies the caller a controller operates for.
type Session struct {
	// ID is the session identifier, used as the basket owner for guests.
	ID string

	// CustomerID is set for authenticated customers.
	CustomerID string

	// Locale is the active site/language/currency context.
	Locale domain.LocaleKey
}

// Key returns the identifier baskets are stored under.
func (s Session) Key() string {
	if s.CustomerID != "" {
		return s.CustomerID
	}
	return s.ID
}

// Meta carries basket-level metadata settable by the caller.
type Meta struct {
	CustomerRef string
	Comment     string
}

// AddProductInput carries everything needed to add a product to the basket.
type AddProductInput struct {
	ProductID string
	Quantity  float64

	// ParentProductID is set by the selection decorator when it swaps the
	// selection product for a concrete article.
	ParentProductID string

	// VariantAttrIDs select the concrete article of a selection product.
	VariantAttrIDs []string

	// ConfigAttrIDs are chosen configurable attributes with optional
	// per-attribute quantities.
	ConfigAttrIDs    []string
	ConfigQuantities map[string]float64

	// CustomAttrValues maps custom attribute IDs to free-form customer input.
	CustomAttrValues map[string]string

	StockType string
	SiteID    string

	// DisableStockCheck skips the stock clamp for this addition.
	DisableStockCheck bool
}

// Controller is the basket mutator surface. Every mutation commits before
// returning; decorators wrap this interface to layer product-type policies
// over the base operations.
type Controller interface {
	Get(ctx context.Context) (*domain.Basket, error)
	Save(ctx context.Context) error
	Clear(ctx context.Context) (*domain.Basket, error)
	SetType(basketType string)
	SetMeta(ctx context.Context, meta Meta) (*domain.Basket, error)
	Store(ctx context.Context) (*domain.Order, error)
	LoadOrder(ctx context.Context, orderID string, requireOwnership bool) (*domain.Basket, error)

	AddProduct(ctx context.Context, input AddProductInput) (*domain.Basket, error)
	UpdateProduct(ctx context.Context, position int, quantity float64) (*domain.Basket, error)
	DeleteProduct(ctx context.Context, position int) (*domain.Basket, error)

	AddAddress(ctx context.Context, address domain.Address) (*domain.Basket, error)
	DeleteAddress(ctx context.Context, addressType string, position int) (*domain.Basket, error)

	AddService(ctx context.Context, serviceID string, config map[string]string, position int) (*domain.Basket, error)
	DeleteService(ctx context.Context, serviceType string, position int) (*domain.Basket, error)

	AddCoupon(ctx context.Context, code string) (*domain.Basket, error)
	DeleteCoupon(ctx context.Context, code string) (*domain.Basket, error)
}

// EventPublisher publishes basket lifecycle events. Publishing is best
// effort; failures are logged and never fail the mutation.
type EventPublisher interface {
	BasketUpdated(ctx context.Context, basket *domain.Basket) error
	OrderCreated(ctx context.Context, order *domain.Order) error
	SubscriptionCreated(ctx context.Context, order *domain.Order, item domain.LineItem, interval string) error
}

// Deps bundles the collaborators the basket core consumes.
type Deps struct {
	Baskets      repository.BasketRepository
	Orders       repository.OrderRepository
	Products     catalog.ProductManager
	Attributes   *attribute.Resolver
	PricingRules catalog.PricingRuleManager
	Categories   catalog.CategorySearcher
	Stock        catalog.StockManager
	Providers    catalog.ProviderManager
	Events       EventPublisher
	Logger       *slog.Logger
}

// Options holds the configurable policy knobs of the basket core.
type Options struct {
	// CouponsAllowed caps the number of coupon codes per basket.
	CouponsAllowed int

	// OrderLimitCount and OrderLimitWindow bound how many orders a customer
	// may finalize within the trailing window.
	OrderLimitCount  int
	OrderLimitWindow time.Duration

	// SelectRequireVariant rejects selection products whose chosen attributes
	// match no article instead of falling back to the selection itself.
	SelectRequireVariant bool

	// Decorators lists the policy decorators to compose, outermost first.
	Decorators []string
}

// DefaultOptions returns the standard policy configuration.
func DefaultOptions() Options {
	return Options{
		CouponsAllowed:       1,
		OrderLimitCount:      5,
		OrderLimitWindow:     24 * time.Hour,
		SelectRequireVariant: true,
		Decorators:           []string{"category", "bundle", "select", "stock"},
	}
}

// entry is one cached basket with an explicit loaded flag, so an empty basket
// is not confused with a not-yet-loaded one.
type entry struct {
	basket *domain.Basket
	loaded bool
}

// controller is the base basket controller. It owns one basket per type for
// its session and is always the innermost link of the decorator chain.
type controller struct {
	sess Session
	typ  string

	entries map[string]*entry

	// outer is the outermost chain link; the locale migrator re-adds
	// products through it so every policy decorator applies again.
	outer Controller

	// localeChecked gates the migration check to the first Get per session.
	localeChecked bool

	deps   Deps
	opts   Options
	logger *slog.Logger
}

func newController(sess Session, deps Deps, opts Options) *controller {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	c := &controller{
		sess:    sess,
		typ:     domain.BasketTypeDefault,
		entries: make(map[string]*entry),
		deps:    deps,
		opts:    opts,
		logger:  logger.With(slog.String("customer_id", sess.Key())),
	}
	c.outer = c
	return c
}

func (c *controller) entryFor(basketType string) *entry {
	e, ok := c.entries[basketType]
	if !ok {
		e = &entry{}
		c.entries[basketType] = e
	}
	return e
}

func (c *controller) newBasket() *domain.Basket {
	now := time.Now().UTC()
	return &domain.Basket{
		ID:         uuid.NewString(),
		CustomerID: c.sess.Key(),
		Locale:     c.sess.Locale,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Get returns the basket for the current type, loading it from the store on
// first access. The first Get of a session also runs the locale migration
// check; migration failures never surface here.
func (c *controller) Get(ctx context.Context) (*domain.Basket, error) {
	e := c.entryFor(c.typ)
	if !e.loaded {
		basket, err := c.deps.Baskets.GetBasket(ctx, c.sess.Key(), c.typ)
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			basket = c.newBasket()
		case err != nil:
			return nil, fmt.Errorf("load basket: %w", err)
		}
		e.basket = basket
		e.loaded = true
	}

	if !c.localeChecked {
		c.localeChecked = true
		c.checkLocale(ctx, e)
	}

	return e.basket, nil
}

// Save persists the current basket if it carries unsaved changes. Saving an
// unmodified basket is a no-op.
func (c *controller) Save(ctx context.Context) error {
	e := c.entryFor(c.typ)
	if e.basket == nil || !e.basket.Modified {
		return nil
	}

	e.basket.UpdatedAt = time.Now().UTC()
	if err := c.deps.Baskets.SaveBasket(ctx, c.sess.Key(), c.typ, e.basket); err != nil {
		return fmt.Errorf("save basket: %w", err)
	}
	e.basket.Modified = false

	if c.deps.Events != nil {
		if err := c.deps.Events.BasketUpdated(ctx, e.basket); err != nil {
			c.logger.Warn("publish basket.updated failed", slog.String("error", err.Error()))
		}
	}

	c.logger.Info("basket saved",
		slog.String("basket_id", e.basket.ID),
		slog.String("basket_type", c.typ),
		slog.Int("products", len(e.basket.Products)),
	)
	return nil
}

// Clear replaces the current basket with a fresh empty one and removes the
// stored copy.
func (c *controller) Clear(ctx context.Context) (*domain.Basket, error) {
	if err := c.deps.Baskets.DeleteBasket(ctx, c.sess.Key(), c.typ); err != nil {
		return nil, fmt.Errorf("clear basket: %w", err)
	}

	e := c.entryFor(c.typ)
	e.basket = c.newBasket()
	e.loaded = true

	c.logger.Info("basket cleared", slog.String("basket_type", c.typ))
	return e.basket, nil
}

// SetType switches the controller to another basket type. Each type owns an
// independent basket.
func (c *controller) SetType(basketType string) {
	if basketType == "" {
		basketType = domain.BasketTypeDefault
	}
	c.typ = basketType
}

// SetMeta updates basket-level metadata.
func (c *controller) SetMeta(ctx context.Context, meta Meta) (*domain.Basket, error) {
	basket, err := c.Get(ctx)
	if err != nil {
		return nil, err
	}

	basket.CustomerRef = sanitize(meta.CustomerRef)
	basket.Comment = sanitize(meta.Comment)
	basket.Modified = true

	if err := c.Save(ctx); err != nil {
		return nil, err
	}
	return basket, nil
}

// Store finalizes the basket into an immutable order. The order rate limit
// is checked first; the basket itself stays available afterwards.
func (c *controller) Store(ctx context.Context) (*domain.Order, error) {
	basket, err := c.Get(ctx)
	if err != nil {
		return nil, err
	}
	if len(basket.Products) == 0 {
		return nil, apperrors.InvalidInput("cannot store an empty basket")
	}

	if c.opts.OrderLimitCount > 0 {
		since := time.Now().UTC().Add(-c.opts.OrderLimitWindow)
		count, err := c.deps.Orders.CountOrdersSince(ctx, c.sess.Key(), since)
		if err != nil {
			return nil, fmt.Errorf("check order limit: %w", err)
		}
		if count >= c.opts.OrderLimitCount {
			return nil, apperrors.OrderLimitReached(c.opts.OrderLimitCount, count)
		}
	}

	order := &domain.Order{
		ID:          uuid.NewString(),
		CustomerID:  basket.CustomerID,
		CustomerRef: basket.CustomerRef,
		Comment:     basket.Comment,
		Locale:      basket.Locale,
		Products:    basket.Products,
		Addresses:   basket.Addresses,
		Services:    basket.Services,
		Coupons:     basket.Coupons,
		CreatedAt:   time.Now().UTC(),
	}

	if err := c.deps.Orders.StoreOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("store order: %w", err)
	}

	c.publishOrderEvents(ctx, order)

	c.logger.Info("order stored",
		slog.String("order_id", order.ID),
		slog.Int("products", len(order.Products)),
	)
	return order, nil
}

func (c *controller) publishOrderEvents(ctx context.Context, order *domain.Order) {
	if c.deps.Events == nil {
		return
	}

	if err := c.deps.Events.OrderCreated(ctx, order); err != nil {
		c.logger.Warn("publish order.created failed", slog.String("error", err.Error()))
	}

	for _, item := range order.Products {
		interval := subscriptionInterval(item)
		if interval == "" {
			continue
		}
		if err := c.deps.Events.SubscriptionCreated(ctx, order, item, interval); err != nil {
			c.logger.Warn("publish subscription.created failed",
				slog.String("product_code", item.Code),
				slog.String("error", err.Error()),
			)
		}
	}
}

// subscriptionInterval returns the subscription interval of a line item, or
// empty when the item is not subscribable.
func subscriptionInterval(item domain.LineItem) string {
	for _, attrType := range []string{domain.AttrTypeConfig, domain.AttrTypeHidden} {
		if attr := item.FindAttribute(attrType, "interval"); attr != nil {
			return attr.Value
		}
	}
	return ""
}

// LoadOrder re-hydrates a stored order into the current basket.
func (c *controller) LoadOrder(ctx context.Context, orderID string, requireOwnership bool) (*domain.Basket, error) {
	order, err := c.deps.Orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if requireOwnership && order.CustomerID != c.sess.Key() {
		return nil, apperrors.Forbidden("order belongs to another customer")
	}

	e := c.entryFor(c.typ)
	basket := c.newBasket()
	basket.CustomerRef = order.CustomerRef
	basket.Comment = order.Comment
	basket.Products = order.Products
	basket.Addresses = order.Addresses
	basket.Services = order.Services
	basket.Coupons = order.Coupons
	basket.Modified = true
	e.basket = basket
	e.loaded = true

	if err := c.Save(ctx); err != nil {
		return nil, err
	}
	return basket, nil
}

// AddAddress attaches an address, replacing any existing one with the same
// type and position. Scalar fields are sanitized.
func (c *controller) AddAddress(ctx context.Context, address domain.Address) (*domain.Basket, error) {
	if address.Type != domain.AddressTypePayment && address.Type != domain.AddressTypeDelivery {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown address type %q", address.Type))
	}

	basket, err := c.Get(ctx)
	if err != nil {
		return nil, err
	}

	sanitizeAddress(&address)
	if idx := basket.FindAddress(address.Type, address.Position); idx >= 0 {
		basket.Addresses[idx] = address
	} else {
		basket.Addresses = append(basket.Addresses, address)
	}
	basket.Modified = true

	if err := c.Save(ctx); err != nil {
		return nil, err
	}
	return basket, nil
}

// DeleteAddress removes the address at (type, position). Removing a missing
// address is a no-op.
func (c *controller) DeleteAddress(ctx context.Context, addressType string, position int) (*domain.Basket, error) {
	basket, err := c.Get(ctx)
	if err != nil {
		return nil, err
	}

	if idx := basket.FindAddress(addressType, position); idx >= 0 {
		basket.Addresses = append(basket.Addresses[:idx], basket.Addresses[idx+1:]...)
		basket.Modified = true
		if err := c.Save(ctx); err != nil {
			return nil, err
		}
	}
	return basket, nil
}

// AddService resolves the service provider, validates the caller-supplied
// configuration and attaches the service with a freshly calculated,
// rebate-free price. At most one service per (type, position) is kept.
func (c *controller) AddService(ctx context.Context, serviceID string, config map[string]string, position int) (*domain.Basket, error) {
	basket, err := c.Get(ctx)
	if err != nil {
		return nil, err
	}

	provider, err := c.deps.Providers.GetProvider(ctx, serviceID, c.sess.Locale)
	if err != nil {
		return nil, err
	}
	service := provider.Service()

	if len(config) > 0 {
		fieldErrors, err := provider.CheckConfig(ctx, config)
		if err != nil {
			return nil, fmt.Errorf("check service config: %w", err)
		}
		if len(fieldErrors) > 0 {
			return nil, apperrors.ProviderConfigInvalid(service.Code, fieldErrors)
		}
	}

	price, err := provider.CalcPrice(ctx, basket)
	if err != nil {
		return nil, fmt.Errorf("calculate service price: %w", err)
	}

	service.Position = position
	service.Price = price.ClearRebate()
	for key, value := range config {
		service.Attributes = append(service.Attributes, domain.AttributeSnapshot{
			Type:     domain.AttrTypeConfig,
			Code:     key,
			Value:    sanitize(value),
			Quantity: 1,
		})
	}

	if idx := basket.FindService(service.Type, position); idx >= 0 {
		basket.Services[idx] = service
	} else {
		basket.Services = append(basket.Services, service)
	}
	basket.Modified = true

	if err := c.Save(ctx); err != nil {
		return nil, err
	}
	return basket, nil
}

// DeleteService removes the service at (type, position). Removing a missing
// service is a no-op.
func (c *controller) DeleteService(ctx context.Context, serviceType string, position int) (*domain.Basket, error) {
	basket, err := c.Get(ctx)
	if err != nil {
		return nil, err
	}

	if idx := basket.FindService(serviceType, position); idx >= 0 {
		basket.Services = append(basket.Services[:idx], basket.Services[idx+1:]...)
		basket.Modified = true
		if err := c.Save(ctx); err != nil {
			return nil, err
		}
	}
	return basket, nil
}

// AddCoupon applies a coupon code. Adding any code while the basket already
// holds the configured coupon count fails with CouponLimitReached; below the
// ceiling, duplicate codes are ignored.
func (c *controller) AddCoupon(ctx context.Context, code string) (*domain.Basket, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperrors.InvalidInput("coupon code must not be empty")
	}

	basket, err := c.Get(ctx)
	if err != nil {
		return nil, err
	}
	if c.opts.CouponsAllowed > 0 && len(basket.Coupons) >= c.opts.CouponsAllowed {
		return nil, apperrors.CouponLimitReached(c.opts.CouponsAllowed)
	}
	if basket.HasCoupon(code) {
		return basket, nil
	}

	basket.Coupons = append(basket.Coupons, code)
	basket.Modified = true

	if err := c.Save(ctx); err != nil {
		return nil, err
	}
	return basket, nil
}

// DeleteCoupon removes a coupon code. Removing an unknown code is a no-op.
func (c *controller) DeleteCoupon(ctx context.Context, code string) (*domain.Basket, error) {
	basket, err := c.Get(ctx)
	if err != nil {
		return nil, err
	}

	for i, existing := range basket.Coupons {
		if existing == code {
			basket.Coupons = append(basket.Coupons[:i], basket.Coupons[i+1:]...)
			basket.Modified = true
			if err := c.Save(ctx); err != nil {
				return nil, err
			}
			break
		}
	}
	return basket, nil
}

// sanitize trims and HTML-escapes free-form customer input.
func sanitize(s string) string {
	return html.EscapeString(strings.TrimSpace(s))
}

func sanitizeAddress(a *domain.Address) {
	a.Salutation = sanitize(a.Salutation)
	a.FirstName = sanitize(a.FirstName)
	a.LastName = sanitize(a.LastName)
	a.Address1 = sanitize(a.Address1)
	a.Address2 = sanitize(a.Address2)
	a.City = sanitize(a.City)
	a.PostalCode = sanitize(a.PostalCode)
	a.State = sanitize(a.State)
	a.CountryID = sanitize(a.CountryID)
	a.Email = sanitize(a.Email)
	a.Telephone = sanitize(a.Telephone)
}
