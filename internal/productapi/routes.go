// Package productapi serves the product backend REST contract over a
// [store.Store]: product CRUD under /api/products and the order workflow
// under /api/orders. Errors use the {timestamp, status, error, message}
// body that the REST client decodes.
package productapi

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jpalmerr/productboard/catalog"
	"github.com/jpalmerr/productboard/internal/httpserve"
	"github.com/jpalmerr/productboard/internal/store"
)

// Routes handles HTTP requests for the product API.
type Routes struct {
	store  store.Store
	logger *slog.Logger
}

// NewRouter builds the chi router for the product API.
func NewRouter(st store.Store, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	routes := &Routes{store: st, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(httpserve.LoggingMiddleware(logger))
	r.Use(httpserve.RecoverMiddleware(logger))

	r.Route("/api", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", routes.listProducts)
			r.Post("/", routes.createProduct)
			r.Get("/{id}", routes.getProduct)
			r.Put("/{id}", routes.updateProduct)
			r.Delete("/{id}", routes.deleteProduct)
		})
		r.Route("/orders", func(r chi.Router) {
			r.Post("/init", routes.initOrder)
			r.Get("/{id}", routes.getOrder)
			r.Post("/{id}/items", routes.addOrderItem)
			r.Post("/{id}/pay", routes.payOrder)
			r.Post("/{id}/cancel", routes.cancelOrder)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpserve.WriteError(w, http.StatusNotFound, catalog.CodeNotFound, "No handler for "+r.URL.Path)
	})
	return r
}

// listProducts handles GET /api/products
func (routes *Routes) listProducts(w http.ResponseWriter, _ *http.Request) {
	httpserve.WriteJSON(w, http.StatusOK, routes.store.ListProducts())
}

// getProduct handles GET /api/products/{id}
func (routes *Routes) getProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := routes.store.GetProduct(id)
	if err != nil {
		routes.writeStoreError(w, err, "Product not found with id: "+id)
		return
	}
	httpserve.WriteJSON(w, http.StatusOK, p)
}

// createProduct handles POST /api/products
func (routes *Routes) createProduct(w http.ResponseWriter, r *http.Request) {
	req, ok := routes.decodeProductRequest(w, r)
	if !ok {
		return
	}

	p, err := routes.store.CreateProduct(req)
	if err != nil {
		routes.writeStoreError(w, err, "")
		return
	}
	routes.logger.Info("product created", "id", p.ID, "name", p.Name)
	httpserve.WriteJSON(w, http.StatusCreated, catalog.IDResponse{ID: p.ID})
}

// updateProduct handles PUT /api/products/{id}
func (routes *Routes) updateProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	req, ok := routes.decodeProductRequest(w, r)
	if !ok {
		return
	}

	if _, err := routes.store.UpdateProduct(id, req); err != nil {
		routes.writeStoreError(w, err, "Product not found with id: "+id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// deleteProduct handles DELETE /api/products/{id}
func (routes *Routes) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := routes.store.DeleteProduct(id); err != nil {
		routes.writeStoreError(w, err, "Product not found with id: "+id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// initOrder handles POST /api/orders/init
func (routes *Routes) initOrder(w http.ResponseWriter, _ *http.Request) {
	o := routes.store.InitOrder()
	httpserve.WriteJSON(w, http.StatusCreated, catalog.IDResponse{ID: o.ID})
}

// getOrder handles GET /api/orders/{id}
func (routes *Routes) getOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	o, err := routes.store.GetOrder(id)
	if err != nil {
		routes.writeStoreError(w, err, "Order not found with id: "+id)
		return
	}
	httpserve.WriteJSON(w, http.StatusOK, o)
}

type addItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// addOrderItem handles POST /api/orders/{id}/items
func (routes *Routes) addOrderItem(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	var req addItemRequest
	if err := httpserve.DecodeJSON(w, r, &req); err != nil {
		httpserve.WriteError(w, http.StatusBadRequest, catalog.CodeBadRequest, "Malformed request body")
		return
	}
	if req.ProductID == "" {
		httpserve.WriteError(w, http.StatusBadRequest, catalog.CodeValidation, "Product id is required")
		return
	}

	item, err := routes.store.AddOrderItem(orderID, req.ProductID, req.Quantity)
	if err != nil {
		routes.writeStoreError(w, err, "")
		return
	}
	httpserve.WriteJSON(w, http.StatusCreated, catalog.IDResponse{ID: item.ID})
}

// payOrder handles POST /api/orders/{id}/pay
func (routes *Routes) payOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	o, err := routes.store.PayOrder(id)
	if err != nil {
		routes.writeStoreError(w, err, "Order not found with id: "+id)
		return
	}
	routes.logger.Debug("order paid", "id", o.ID, "items", len(o.Items))
	httpserve.WriteJSON(w, http.StatusOK, o)
}

// cancelOrder handles POST /api/orders/{id}/cancel
func (routes *Routes) cancelOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	o, err := routes.store.CancelOrder(id)
	if err != nil {
		routes.writeStoreError(w, err, "Order not found with id: "+id)
		return
	}
	routes.logger.Debug("order cancelled", "id", o.ID, "items", len(o.Items))
	httpserve.WriteJSON(w, http.StatusOK, o)
}

func (routes *Routes) decodeProductRequest(w http.ResponseWriter, r *http.Request) (catalog.ProductRequest, bool) {
	var req catalog.ProductRequest
	if err := httpserve.DecodeJSON(w, r, &req); err != nil {
		httpserve.WriteError(w, http.StatusBadRequest, catalog.CodeBadRequest, "Malformed request body")
		return req, false
	}
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		httpserve.WriteError(w, http.StatusBadRequest, catalog.CodeValidation, err.Error())
		return req, false
	}
	return req, true
}

// writeStoreError maps store sentinels to HTTP errors. notFoundMsg replaces
// the error text for 404s when set.
func (routes *Routes) writeStoreError(w http.ResponseWriter, err error, notFoundMsg string) {
	var verrs catalog.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		httpserve.WriteError(w, http.StatusBadRequest, catalog.CodeValidation, verrs.Error())
	case errors.Is(err, store.ErrNotFound):
		msg := notFoundMsg
		if msg == "" {
			msg = capitalize(err.Error())
		}
		httpserve.WriteError(w, http.StatusNotFound, catalog.CodeNotFound, msg)
	case errors.Is(err, store.ErrInvalidQuantity):
		httpserve.WriteError(w, http.StatusBadRequest, catalog.CodeValidation, "Quantity must be at least 1")
	case errors.Is(err, store.ErrInsufficientStock),
		errors.Is(err, store.ErrOrderClosed),
		errors.Is(err, store.ErrDuplicateItem):
		httpserve.WriteError(w, http.StatusConflict, catalog.CodeConflict, capitalize(err.Error()))
	default:
		routes.logger.Error("unexpected store error", "error", err)
		httpserve.WriteError(w, http.StatusInternalServerError, catalog.CodeInternal, "Unexpected error")
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	if c := s[0]; c >= 'a' && c <= 'z' {
		return fmt.Sprintf("%c%s", c-'a'+'A', s[1:])
	}
	return s
}
