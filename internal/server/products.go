package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jpalmerr/productboard/catalog"
	"github.com/jpalmerr/productboard/internal/httpserve"
)

// mutationResponse is returned by the product mutation endpoints.
type mutationResponse struct {
	Success bool                 `json:"success"`
	Error   string               `json:"error,omitempty"`
	Fields  []catalog.FieldError `json:"fields,omitempty"`
}

// handleListProducts returns the coordinator's products filtered and sorted
// by query parameters.
func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	filter, sort, err := parseProductQuery(r.URL.Query())
	if err != nil {
		httpserve.WriteError(w, http.StatusBadRequest, catalog.CodeBadRequest, err.Error())
		return
	}
	httpserve.WriteJSON(w, http.StatusOK, catalog.Apply(s.coord.State().Products, filter, sort))
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeProductForm(w, r)
	if !ok {
		return
	}
	s.writeMutationResult(w, s.coord.Create(r.Context(), req))
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeProductForm(w, r)
	if !ok {
		return
	}
	s.writeMutationResult(w, s.coord.Update(r.Context(), chi.URLParam(r, "id"), req))
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	s.writeMutationResult(w, s.coord.Delete(r.Context(), chi.URLParam(r, "id")))
}

// decodeProductForm applies the product form rules before anything reaches
// the coordinator, so invalid input never becomes a foreground operation.
func decodeProductForm(w http.ResponseWriter, r *http.Request) (catalog.ProductRequest, bool) {
	var req catalog.ProductRequest
	if err := httpserve.DecodeJSON(w, r, &req); err != nil {
		httpserve.WriteJSON(w, http.StatusBadRequest, mutationResponse{Error: "Malformed request body"})
		return req, false
	}
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		var verrs catalog.ValidationErrors
		errors.As(err, &verrs)
		httpserve.WriteJSON(w, http.StatusUnprocessableEntity, mutationResponse{Error: err.Error(), Fields: verrs})
		return req, false
	}
	return req, true
}

func (s *Server) writeMutationResult(w http.ResponseWriter, err error) {
	if err == nil {
		httpserve.WriteJSON(w, http.StatusOK, mutationResponse{Success: true})
		return
	}

	status := http.StatusBadGateway
	var apiErr *catalog.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Kind {
		case catalog.KindValidation:
			status = http.StatusUnprocessableEntity
		case catalog.KindNotFound:
			status = http.StatusNotFound
		case catalog.KindConflict:
			status = http.StatusConflict
		}
	}

	msg := s.coord.State().Error
	if msg == "" {
		msg = err.Error()
	}
	httpserve.WriteJSON(w, status, mutationResponse{Error: msg})
}

func parseProductQuery(q url.Values) (catalog.Filter, catalog.Sort, error) {
	var f catalog.Filter
	f.Name = q.Get("name")
	f.Fuzzy = q.Get("fuzzy") == "true"

	ints := []struct {
		key string
		dst **int
	}{
		{"minStock", &f.MinStockQuantity},
		{"maxStock", &f.MaxStockQuantity},
		{"minSoldCount", &f.MinSoldCount},
		{"maxSoldCount", &f.MaxSoldCount},
	}
	for _, p := range ints {
		raw := q.Get(p.key)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return f, catalog.Sort{}, fmt.Errorf("invalid %s: %q", p.key, raw)
		}
		*p.dst = &v
	}

	floats := []struct {
		key string
		dst **float64
	}{
		{"minPrice", &f.MinPrice},
		{"maxPrice", &f.MaxPrice},
		{"minSoldSum", &f.MinSoldSum},
		{"maxSoldSum", &f.MaxSoldSum},
	}
	for _, p := range floats {
		raw := q.Get(p.key)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return f, catalog.Sort{}, fmt.Errorf("invalid %s: %q", p.key, raw)
		}
		*p.dst = &v
	}

	field, err := catalog.ParseSortField(q.Get("sort"))
	if err != nil {
		return f, catalog.Sort{}, err
	}
	sort := catalog.Sort{Field: field, Desc: true}
	switch order := q.Get("order"); order {
	case "", "desc":
	case "asc":
		sort.Desc = false
	default:
		return f, catalog.Sort{}, fmt.Errorf("invalid order: %q", order)
	}
	return f, sort, nil
}
