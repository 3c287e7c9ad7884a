package coordinator

//go:generate mockgen -destination=mocks/mock_store.go -package=mocks -source=store.go ProductStore

import (
	"context"

	"github.com/jpalmerr/productboard/catalog"
)

// ProductStore is the remote product backend the coordinator reads from and
// writes to. Failures should be *catalog.APIError values so that the backend
// message can be surfaced; any other error falls back to a generic message.
type ProductStore interface {
	ListProducts(ctx context.Context) ([]catalog.Product, error)
	CreateProduct(ctx context.Context, req catalog.ProductRequest) (string, error)
	UpdateProduct(ctx context.Context, id string, req catalog.ProductRequest) error
	DeleteProduct(ctx context.Context, id string) error
}
