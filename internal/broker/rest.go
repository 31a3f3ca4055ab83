package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"dhan-trader/internal/credentials"
	errs "dhan-trader/internal/errors"
	"dhan-trader/internal/models"
)

// RESTTransport is the raw-HTTP fallback. It deliberately depends on nothing
// but net/http so it keeps working when the richer client cannot be built.
// Every call first ensures the access-token header reflects the latest
// rotated credential; the header map is only touched when the value changed.
type RESTTransport struct {
	baseURL string
	source  credentials.Source
	http    *http.Client

	mu      sync.Mutex
	headers map[string]string
	token   string
}

// NewRESTTransport builds the REST fallback transport.
func NewRESTTransport(clientID, baseURL string, source credentials.Source) *RESTTransport {
	if baseURL == "" {
		baseURL = "https://api.dhan.co/v2"
	}
	return &RESTTransport{
		baseURL: baseURL,
		source:  source,
		http:    &http.Client{Timeout: 5 * time.Second},
		headers: map[string]string{
			"Accept":       "application/json",
			"Content-Type": "application/json",
			"client-id":    clientID,
		},
	}
}

// Name identifies this transport in logs.
func (t *RESTTransport) Name() string { return "rest" }

func (t *RESTTransport) ensureToken() error {
	token, err := t.source.Token()
	if err != nil {
		return err
	}
	t.mu.Lock()
	if token != t.token {
		t.headers["access-token"] = token
		t.token = token
	}
	t.mu.Unlock()
	return nil
}

func (t *RESTTransport) request(ctx context.Context, method, path string, body interface{}) (map[string]interface{}, error) {
	raw, err := t.requestRaw(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	var obj map[string]interface{}
	if err := json.Unmarshal(raw, &obj); err != nil {
		// Preserve provider quirks: non-JSON success bodies pass through.
		return map[string]interface{}{"raw": string(raw)}, nil
	}
	return obj, nil
}

func (t *RESTTransport) requestRaw(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	if err := t.ensureToken(); err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, errs.Wrapf(err, "encoding %s %s body", method, path)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, reader)
	if err != nil {
		return nil, errs.Wrapf(err, "building %s %s", method, path)
	}
	t.mu.Lock()
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	t.mu.Unlock()

	resp, err := t.http.Do(req)
	if err != nil {
		return nil, errs.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Wrapf(err, "reading %s %s response", method, path)
	}
	if resp.StatusCode >= 300 {
		return nil, errs.NewRequestError(method, path, resp.StatusCode, string(raw))
	}
	return raw, nil
}

// FundLimits returns the account fund limits.
func (t *RESTTransport) FundLimits(ctx context.Context) (map[string]interface{}, error) {
	return t.request(ctx, http.MethodGet, "/fundlimit", nil)
}

// Positions returns open positions as raw field maps.
func (t *RESTTransport) Positions(ctx context.Context) ([]map[string]interface{}, error) {
	raw, err := t.requestRaw(ctx, http.MethodGet, "/positions", nil)
	if err != nil {
		return nil, err
	}
	var list []map[string]interface{}
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var envelope struct {
		Data []map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Data == nil {
		// A malformed response must not read as a flat book.
		return nil, errs.Wrapf(errs.ErrUnexpectedResponse, "decoding positions: %.80q", string(raw))
	}
	return envelope.Data, nil
}

// Order returns a single order by id.
func (t *RESTTransport) Order(ctx context.Context, orderID string) (map[string]interface{}, error) {
	return t.request(ctx, http.MethodGet, "/orders/"+orderID, nil)
}

// CancelOrder cancels an order by id.
func (t *RESTTransport) CancelOrder(ctx context.Context, orderID string) (map[string]interface{}, error) {
	return t.request(ctx, http.MethodDelete, "/orders/"+orderID, nil)
}

// PlaceOrder renders the shared intent into the wire payload and submits it.
func (t *RESTTransport) PlaceOrder(ctx context.Context, intent models.OrderIntent) (*OrderResult, error) {
	resp, err := t.request(ctx, http.MethodPost, "/orders", intent.RESTPayload())
	if err != nil {
		return nil, err
	}
	result := &OrderResult{}
	if id, ok := resp["orderId"].(string); ok {
		result.OrderID = id
	}
	if status, ok := resp["orderStatus"].(string); ok {
		result.Status = status
	}
	return result, nil
}

var _ Transport = (*RESTTransport)(nil)
