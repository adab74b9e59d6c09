package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ecomkit/basket/internal/domain"
	apperrors "github.com/ecomkit/basket/pkg/errors"
	"github.com/ecomkit/basket/pkg/httpclient"
)

// Doer abstracts the HTTP client so callers can choose between the plain
// retrying client and the circuit-breaker wrapped one.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
	Get(ctx context.Context, url string) (*http.Response, error)
}

// Client talks to the catalog service. It implements ProductManager,
// AttributeManager, PricingRuleManager, CategorySearcher and ProviderManager.
type Client struct {
	baseURL string
	http    Doer
}

// NewClient creates a catalog client for the given base URL.
func NewClient(baseURL string, doer Doer) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: doer}
}

func localeQuery(q url.Values, locale domain.LocaleKey) {
	if locale.SiteID != "" {
		q.Set("site", locale.SiteID)
	}
	if locale.LanguageID != "" {
		q.Set("language", locale.LanguageID)
	}
	if locale.CurrencyID != "" {
		q.Set("currency", locale.CurrencyID)
	}
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	resp, err := c.http.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("call catalog service: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return httpclient.ParseResponseError(resp, "catalog")
	}
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode catalog response: %w", err)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, url string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode catalog request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create catalog request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("call catalog service: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return httpclient.ParseResponseError(resp, "catalog")
	}
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode catalog response: %w", err)
	}
	return nil
}

// Get implements ProductManager.
func (c *Client) Get(ctx context.Context, productID string, locale domain.LocaleKey) (*domain.Product, error) {
	q := url.Values{}
	localeQuery(q, locale)

	var product domain.Product
	endpoint := fmt.Sprintf("%s/api/v1/products/%s?%s", c.baseURL, url.PathEscape(productID), q.Encode())
	if err := c.getJSON(ctx, endpoint, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByCode implements ProductManager.
func (c *Client) FindByCode(ctx context.Context, code string, locale domain.LocaleKey) (*domain.Product, error) {
	q := url.Values{}
	q.Set("code", code)
	localeQuery(q, locale)

	var result struct {
		Products []domain.Product `json:"products"`
	}
	if err := c.getJSON(ctx, fmt.Sprintf("%s/api/v1/products?%s", c.baseURL, q.Encode()), &result); err != nil {
		return nil, err
	}
	if len(result.Products) == 0 {
		return nil, apperrors.NotFound("product", code)
	}
	return &result.Products[0], nil
}

// GetBatch implements AttributeManager.
func (c *Client) GetBatch(ctx context.Context, ids []string, locale domain.LocaleKey) ([]domain.Attribute, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	q := url.Values{}
	q.Set("ids", strings.Join(ids, ","))
	localeQuery(q, locale)

	var result struct {
		Attributes []domain.Attribute `json:"attributes"`
	}
	if err := c.getJSON(ctx, fmt.Sprintf("%s/api/v1/attributes?%s", c.baseURL, q.Encode()), &result); err != nil {
		return nil, err
	}
	return result.Attributes, nil
}

// Apply implements PricingRuleManager. The catalog service evaluates the
// site's pricing rules against the product and returns the adjusted tiers.
func (c *Client) Apply(ctx context.Context, product *domain.Product, locale domain.LocaleKey) ([]domain.PriceTier, error) {
	q := url.Values{}
	localeQuery(q, locale)

	var result struct {
		PriceTiers []domain.PriceTier `json:"price_tiers"`
	}
	endpoint := fmt.Sprintf("%s/api/v1/pricing/apply?%s", c.baseURL, q.Encode())
	if err := c.postJSON(ctx, endpoint, product, &result); err != nil {
		return nil, err
	}
	if len(result.PriceTiers) == 0 {
		return product.PriceTiers, nil
	}
	return result.PriceTiers, nil
}

// HasVisibleCategory implements CategorySearcher.
func (c *Client) HasVisibleCategory(ctx context.Context, categoryIDs []string, locale domain.LocaleKey) (bool, error) {
	if len(categoryIDs) == 0 {
		return false, nil
	}

	q := url.Values{}
	q.Set("ids", strings.Join(categoryIDs, ","))
	localeQuery(q, locale)

	var result struct {
		Visible bool `json:"visible"`
	}
	if err := c.getJSON(ctx, fmt.Sprintf("%s/api/v1/categories/visible?%s", c.baseURL, q.Encode()), &result); err != nil {
		return false, err
	}
	return result.Visible, nil
}

// GetProvider implements ProviderManager.
func (c *Client) GetProvider(ctx context.Context, serviceID string, locale domain.LocaleKey) (Provider, error) {
	q := url.Values{}
	localeQuery(q, locale)

	var service domain.Service
	endpoint := fmt.Sprintf("%s/api/v1/services/%s?%s", c.baseURL, url.PathEscape(serviceID), q.Encode())
	if err := c.getJSON(ctx, endpoint, &service); err != nil {
		return nil, err
	}

	return &httpProvider{client: c, service: service, locale: locale}, nil
}

// httpProvider delegates configuration checks and price calculation to the
// catalog service owning the provider implementation.
type httpProvider struct {
	client  *Client
	service domain.Service
	locale  domain.LocaleKey
}

func (p *httpProvider) Service() domain.Service {
	return p.service
}

func (p *httpProvider) CheckConfig(ctx context.Context, config map[string]string) (map[string]string, error) {
	q := url.Values{}
	localeQuery(q, p.locale)

	var result struct {
		Errors map[string]string `json:"errors"`
	}
	endpoint := fmt.Sprintf("%s/api/v1/services/%s/config/check?%s",
		p.client.baseURL, url.PathEscape(p.service.ServiceID), q.Encode())
	if err := p.client.postJSON(ctx, endpoint, config, &result); err != nil {
		return nil, err
	}
	return result.Errors, nil
}

func (p *httpProvider) CalcPrice(ctx context.Context, basket *domain.Basket) (domain.Price, error) {
	q := url.Values{}
	localeQuery(q, p.locale)

	var result struct {
		Price domain.Price `json:"price"`
	}
	endpoint := fmt.Sprintf("%s/api/v1/services/%s/price?%s",
		p.client.baseURL, url.PathEscape(p.service.ServiceID), q.Encode())
	if err := p.client.postJSON(ctx, endpoint, basket, &result); err != nil {
		return domain.Price{}, err
	}
	return result.Price, nil
}

// StockClient talks to the inventory service. It implements StockManager.
type StockClient struct {
	baseURL string
	http    Doer
}

// NewStockClient creates an inventory client for the given base URL.
func NewStockClient(baseURL string, doer Doer) *StockClient {
	return &StockClient{baseURL: strings.TrimRight(baseURL, "/"), http: doer}
}

// Level implements StockManager. A negative level means unlimited stock.
func (c *StockClient) Level(ctx context.Context, productCode, stockType string, locale domain.LocaleKey) (float64, error) {
	q := url.Values{}
	if stockType != "" {
		q.Set("type", stockType)
	}
	localeQuery(q, locale)

	resp, err := c.http.Get(ctx, fmt.Sprintf("%s/api/v1/stock/%s?%s", c.baseURL, url.PathEscape(productCode), q.Encode()))
	if err != nil {
		return 0, fmt.Errorf("call inventory service: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, httpclient.ParseResponseError(resp, "inventory")
	}
	defer func() { _ = resp.Body.Close() }()

	var result struct {
		Level float64 `json:"level"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("decode inventory response: %w", err)
	}
	return result.Level, nil
}
