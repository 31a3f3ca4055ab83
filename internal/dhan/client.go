// Package dhan provides a typed client for the DhanHQ trading API. It plays
// the role of the vendor SDK: callers work with keyword-style parameter
// structs and typed responses instead of raw HTTP.
package dhan

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"dhan-trader/internal/credentials"
	errs "dhan-trader/internal/errors"
)

// DefaultBaseURL is the production Dhan API base.
const DefaultBaseURL = "https://api.dhan.co/v2"

// Client is a typed Dhan API client. The bearer token is re-resolved from
// the credential source on every call, so out-of-band rotation is picked up
// without reconstructing the client.
type Client struct {
	clientID string
	source   credentials.Source
	http     *resty.Client
}

// New creates a Client. It fails when the client id is missing or when the
// credential source cannot produce an initial token; callers use that
// failure to fall back to a simpler transport.
func New(clientID, baseURL string, source credentials.Source) (*Client, error) {
	if clientID == "" {
		return nil, errs.Wrap(errs.ErrInvalidConfiguration, "dhan: client id required")
	}
	if source == nil {
		return nil, errs.Wrap(errs.ErrInvalidConfiguration, "dhan: credential source required")
	}
	if _, err := source.Token(); err != nil {
		return nil, fmt.Errorf("dhan: initial token read: %w", err)
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(5 * time.Second).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetHeader("client-id", clientID)

	return &Client{clientID: clientID, source: source, http: http}, nil
}

// OrderParams carries the keyword-style arguments for order placement.
type OrderParams struct {
	SecurityID        string  `json:"securityId"`
	ExchangeSegment   string  `json:"exchangeSegment"`
	TransactionType   string  `json:"transactionType"`
	Quantity          int     `json:"quantity"`
	OrderType         string  `json:"orderType"`
	ProductType       string  `json:"productType"`
	Price             float64 `json:"price"`
	TriggerPrice      float64 `json:"triggerPrice"`
	AfterMarketOrder  bool    `json:"afterMarketOrder"`
	Validity          string  `json:"validity"`
	DisclosedQuantity int     `json:"disclosedQuantity"`
	CorrelationID     string  `json:"correlationId,omitempty"`
}

// OrderResponse is the provider's acknowledgement of an order operation.
type OrderResponse struct {
	OrderID     string `json:"orderId"`
	OrderStatus string `json:"orderStatus"`
}

func (c *Client) request(method, path string, body interface{}) ([]byte, error) {
	token, err := c.source.Token()
	if err != nil {
		return nil, err
	}

	req := c.http.R().SetHeader("access-token", token)
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, errs.Wrapf(err, "dhan: %s %s", method, path)
	}
	if resp.StatusCode() >= 300 {
		return nil, errs.NewRequestError(method, path, resp.StatusCode(), string(resp.Body()))
	}
	return resp.Body(), nil
}

// FundLimits returns the account fund limits as a raw field map.
func (c *Client) FundLimits() (map[string]interface{}, error) {
	body, err := c.request("GET", "/fundlimit", nil)
	if err != nil {
		return nil, err
	}
	return decodeObject(body)
}

// Positions returns the open positions as raw field maps.
func (c *Client) Positions() ([]map[string]interface{}, error) {
	body, err := c.request("GET", "/positions", nil)
	if err != nil {
		return nil, err
	}
	var list []map[string]interface{}
	if err := json.Unmarshal(body, &list); err == nil {
		return list, nil
	}
	// Some provider deployments wrap the list in an envelope. Anything else
	// is an error: the sell-side check must not mistake a malformed response
	// for a flat book.
	var envelope struct {
		Data []map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Data == nil {
		return nil, errs.Wrapf(errs.ErrUnexpectedResponse, "dhan: decode positions: %.80q", string(body))
	}
	return envelope.Data, nil
}

// Order returns a single order by id.
func (c *Client) Order(orderID string) (map[string]interface{}, error) {
	body, err := c.request("GET", "/orders/"+orderID, nil)
	if err != nil {
		return nil, err
	}
	return decodeObject(body)
}

// CancelOrder cancels an order by id.
func (c *Client) CancelOrder(orderID string) (map[string]interface{}, error) {
	body, err := c.request("DELETE", "/orders/"+orderID, nil)
	if err != nil {
		return nil, err
	}
	return decodeObject(body)
}

// PlaceOrder submits an order and returns the provider acknowledgement.
func (c *Client) PlaceOrder(params OrderParams) (*OrderResponse, error) {
	body, err := c.request("POST", "/orders", params)
	if err != nil {
		return nil, err
	}
	var ack OrderResponse
	if err := json.Unmarshal(body, &ack); err != nil {
		return nil, errs.Wrap(err, "dhan: decode order ack")
	}
	return &ack, nil
}

// decodeObject parses a JSON object, preserving non-JSON success bodies as a
// raw passthrough instead of failing. Providers occasionally return plain
// text on success.
func decodeObject(body []byte) (map[string]interface{}, error) {
	var obj map[string]interface{}
	if err := json.Unmarshal(body, &obj); err != nil {
		return map[string]interface{}{"raw": string(body)}, nil
	}
	return obj, nil
}
