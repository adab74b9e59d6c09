package basket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ecomkit/basket/internal/domain"
	apperrors "github.com/ecomkit/basket/pkg/errors"
)

// MigrationReport collects the per-item outcomes of a locale migration.
// Failures are expected here and never abort the migration as a whole.
type MigrationReport struct {
	From     domain.LocaleKey
	To       domain.LocaleKey
	Migrated int
	Errors   map[string]string
}

func (r *MigrationReport) record(unit, key string, err error) {
	if r.Errors == nil {
		r.Errors = make(map[string]string)
	}
	r.Errors[fmt.Sprintf("%s:%s", unit, key)] = err.Error()
}

// checkLocale compares the stored locale key with the session's active one
// and migrates the basket on mismatch. The caller's Get never fails because
// of anything that happens here.
func (c *controller) checkLocale(ctx context.Context, e *entry) {
	stored, err := c.deps.Baskets.GetLocale(ctx, c.sess.Key())
	if errors.Is(err, apperrors.ErrNotFound) {
		if err := c.deps.Baskets.SaveLocale(ctx, c.sess.Key(), c.sess.Locale); err != nil {
			c.logger.Warn("persist locale key failed", slog.String("error", err.Error()))
		}
		return
	}
	if err != nil {
		c.logger.Warn("load locale key failed", slog.String("error", err.Error()))
		return
	}
	if stored.Equal(c.sess.Locale) {
		return
	}

	old := e.basket
	fresh := c.newBasket()
	fresh.CustomerRef = old.CustomerRef
	fresh.Comment = old.Comment
	e.basket = fresh

	report := c.migrate(ctx, old)
	report.From = stored
	report.To = c.sess.Locale

	e.basket.Modified = true
	if err := c.Save(ctx); err != nil {
		c.logger.Warn("save migrated basket failed", slog.String("error", err.Error()))
	}

	// Persisted regardless of per-item failures, so the migration does not
	// re-run on every request.
	if err := c.deps.Baskets.SaveLocale(ctx, c.sess.Key(), c.sess.Locale); err != nil {
		c.logger.Warn("persist locale key failed", slog.String("error", err.Error()))
	}

	c.logger.Info("basket migrated to new locale",
		slog.String("from", report.From.String()),
		slog.String("to", report.To.String()),
		slog.Int("migrated", report.Migrated),
		slog.Int("failed", len(report.Errors)),
		slog.Any("errors", report.Errors),
	)
}

// migrate copies the old basket's contents into the active basket through
// the outer decorator chain, so new-locale pricing and policies apply. Each
// unit fails independently.
func (c *controller) migrate(ctx context.Context, old *domain.Basket) *MigrationReport {
	report := &MigrationReport{}

	for _, address := range old.Addresses {
		if _, err := c.outer.AddAddress(ctx, address); err != nil {
			report.record("address", address.Type, err)
			continue
		}
		report.Migrated++
	}

	for _, service := range old.Services {
		if c.hasServiceCode(service.Type, service.Code) {
			continue
		}
		config := make(map[string]string, len(service.Attributes))
		for _, attr := range service.Attributes {
			config[attr.Code] = attr.Value
		}
		// Services are re-resolved from the provider since price and
		// configuration may differ under the new locale. Provider failures
		// must not block migration.
		if _, err := c.outer.AddService(ctx, service.ServiceID, config, service.Position); err != nil {
			c.logger.Info("service not migrated",
				slog.String("service_code", service.Code),
				slog.String("error", err.Error()),
			)
			continue
		}
		report.Migrated++
	}

	for _, item := range old.Products {
		if item.Immutable {
			continue
		}
		if _, err := c.outer.AddProduct(ctx, migrationInput(item)); err != nil {
			report.record("product", item.Code, err)
			continue
		}
		report.Migrated++
	}

	for _, code := range old.Coupons {
		if _, err := c.outer.AddCoupon(ctx, code); err != nil {
			report.record("coupon", code, err)
			continue
		}
		report.Migrated++
	}

	return report
}

func (c *controller) hasServiceCode(serviceType, code string) bool {
	basket := c.entryFor(c.typ).basket
	if basket == nil {
		return false
	}
	for _, service := range basket.Services {
		if service.Type == serviceType && service.Code == code {
			return true
		}
	}
	return false
}

// migrationInput rebuilds the addition input of a line item from its
// attribute snapshots. Selection articles are re-added through their parent
// so the article is re-resolved under the new locale.
func migrationInput(item domain.LineItem) AddProductInput {
	input := AddProductInput{
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
		StockType: item.StockType,
		SiteID:    item.SiteID,
	}
	if item.ParentProductID != "" {
		input.ProductID = item.ParentProductID
	}

	for _, attr := range item.Attributes {
		switch attr.Type {
		case domain.AttrTypeVariant:
			input.VariantAttrIDs = append(input.VariantAttrIDs, attr.AttributeID)
		case domain.AttrTypeConfig:
			input.ConfigAttrIDs = append(input.ConfigAttrIDs, attr.AttributeID)
			if attr.Quantity != 1 {
				if input.ConfigQuantities == nil {
					input.ConfigQuantities = make(map[string]float64)
				}
				input.ConfigQuantities[attr.AttributeID] = attr.Quantity
			}
		case domain.AttrTypeCustom:
			if input.CustomAttrValues == nil {
				input.CustomAttrValues = make(map[string]string)
			}
			input.CustomAttrValues[attr.AttributeID] = attr.Value
		}
	}

	return input
}
