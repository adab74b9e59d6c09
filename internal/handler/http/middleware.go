package http

import (
	"context"
	"net/http"

	"github.com/ecomkit/basket/internal/basket"
	"github.com/ecomkit/basket/internal/domain"
)

type contextKey string

const sessionKey contextKey = "basket_session"

// Default locale applied when the caller sends no locale headers.
var defaultLocale = domain.LocaleKey{SiteID: "default", LanguageID: "en", CurrencyID: "EUR"}

// SessionFromHeaders derives the basket session from request headers:
// X-Session-ID identifies the caller (X-User-ID takes precedence for
// authenticated customers), X-Site / X-Language / X-Currency select the
// locale. Requests without a session ID are rejected.
func SessionFromHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.Header.Get("X-Session-ID")
		if sessionID == "" {
			writeErrorResponse(w, http.StatusBadRequest, "MISSING_SESSION", "X-Session-ID header is required", nil)
			return
		}

		locale := domain.LocaleKey{
			SiteID:     headerOr(r, "X-Site", defaultLocale.SiteID),
			LanguageID: headerOr(r, "X-Language", defaultLocale.LanguageID),
			CurrencyID: headerOr(r, "X-Currency", defaultLocale.CurrencyID),
		}

		sess := basket.Session{
			ID:         sessionID,
			CustomerID: r.Header.Get("X-User-ID"),
			Locale:     locale,
		}

		ctx := context.WithValue(r.Context(), sessionKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFromContext(ctx context.Context) basket.Session {
	sess, _ := ctx.Value(sessionKey).(basket.Session)
	return sess
}

func headerOr(r *http.Request, name, fallback string) string {
	if v := r.Header.Get(name); v != "" {
		return v
	}
	return fallback
}
