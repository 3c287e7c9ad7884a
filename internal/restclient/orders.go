package restclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/jpalmerr/productboard/catalog"
)

type addItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// InitOrder opens a new pending order and returns its id.
func (c *Client) InitOrder(ctx context.Context) (string, error) {
	var out catalog.IDResponse
	if err := c.do(ctx, http.MethodPost, "/orders/init", nil, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// AddOrderItem adds quantity units of a product to a pending order and
// returns the id of the new line item.
func (c *Client) AddOrderItem(ctx context.Context, orderID, productID string, quantity int) (string, error) {
	var out catalog.IDResponse
	body := addItemRequest{ProductID: productID, Quantity: quantity}
	if err := c.do(ctx, http.MethodPost, "/orders/"+url.PathEscape(orderID)+"/items", body, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// PayOrder completes a pending order.
func (c *Client) PayOrder(ctx context.Context, orderID string) error {
	return c.do(ctx, http.MethodPost, "/orders/"+url.PathEscape(orderID)+"/pay", nil, nil)
}

// CancelOrder cancels a pending order, releasing its reserved stock.
func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	return c.do(ctx, http.MethodPost, "/orders/"+url.PathEscape(orderID)+"/cancel", nil, nil)
}
