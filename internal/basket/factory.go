package basket

import (
	"log/slog"
)

// Factory builds per-session basket controllers wrapped in the configured
// decorator chain.
type Factory struct {
	deps Deps
	opts Options
}

// NewFactory creates a controller factory. Zero option values fall back to
// the defaults.
func NewFactory(deps Deps, opts Options) *Factory {
	def := DefaultOptions()
	if opts.CouponsAllowed == 0 {
		opts.CouponsAllowed = def.CouponsAllowed
	}
	if opts.OrderLimitCount == 0 {
		opts.OrderLimitCount = def.OrderLimitCount
	}
	if opts.OrderLimitWindow == 0 {
		opts.OrderLimitWindow = def.OrderLimitWindow
	}
	if opts.Decorators == nil {
		opts.Decorators = def.Decorators
	}
	return &Factory{deps: deps, opts: opts}
}

// Controller returns the basket controller for the given session. Decorators
// wrap the base controller in the configured order, first name outermost; the
// base keeps a reference to the outermost link so re-additions during locale
// migration pass through every policy again.
func (f *Factory) Controller(sess Session) Controller {
	base := newController(sess, f.deps, f.opts)

	ctrl := Controller(base)
	for i := len(f.opts.Decorators) - 1; i >= 0; i-- {
		name := f.opts.Decorators[i]
		wrapped := wrapDecorator(name, ctrl, base)
		if wrapped == nil {
			base.logger.Warn("unknown basket decorator", slog.String("name", name))
			continue
		}
		ctrl = wrapped
	}
	base.outer = ctrl

	return ctrl
}

func wrapDecorator(name string, next Controller, base *controller) Controller {
	switch name {
	case "category":
		return newCategoryDecorator(next, base)
	case "bundle":
		return newBundleDecorator(next, base)
	case "select":
		return newSelectDecorator(next, base)
	case "stock":
		return newStockDecorator(next, base)
	default:
		return nil
	}
}
