package out

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	advertout "siteaudit/internal/modules/advert/port/out"
)

// HTTPCheckout creates hosted checkout sessions with a form-encoded POST to
// <base>/v1/checkout/sessions authenticated by a bearer key.
type HTTPCheckout struct {
	baseURL   string
	key       string
	returnURL string
	currency  string
	client    *http.Client
}

func NewHTTPCheckout(baseURL, key, returnURL string) *HTTPCheckout {
	return &HTTPCheckout{
		baseURL:   strings.TrimRight(baseURL, "/"),
		key:       key,
		returnURL: returnURL,
		currency:  "usd",
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

var _ advertout.Checkout = (*HTTPCheckout)(nil)

type checkoutResponse struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *HTTPCheckout) CreateSession(ctx context.Context, req advertout.CheckoutRequest) (advertout.CheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("client_reference_id", req.AdvertID)
	form.Set("customer_email", req.Email)
	form.Set("success_url", c.returnURL+"?advert="+url.QueryEscape(req.AdvertID))
	form.Set("cancel_url", c.returnURL+"?advert="+url.QueryEscape(req.AdvertID)+"&cancelled=1")
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", c.currency)
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(req.AmountCents, 10))
	form.Set("line_items[0][price_data][product_data][name]", req.Description)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return advertout.CheckoutSession{}, fmt.Errorf("build checkout request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Authorization", "Bearer "+c.key)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return advertout.CheckoutSession{}, fmt.Errorf("post checkout session: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return advertout.CheckoutSession{}, fmt.Errorf("read checkout response: %w", err)
	}
	var decoded checkoutResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return advertout.CheckoutSession{}, fmt.Errorf("decode checkout response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode/100 != 2 {
		msg := decoded.Error.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return advertout.CheckoutSession{}, fmt.Errorf("checkout provider returned %d: %s", resp.StatusCode, msg)
	}
	if decoded.ID == "" || decoded.URL == "" {
		return advertout.CheckoutSession{}, fmt.Errorf("checkout response missing id or url")
	}
	return advertout.CheckoutSession{ID: decoded.ID, URL: decoded.URL}, nil
}
