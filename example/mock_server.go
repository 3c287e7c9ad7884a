package main

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/jpalmerr/productboard/catalog"
	"github.com/jpalmerr/productboard/internal/productapi"
	"github.com/jpalmerr/productboard/internal/seed"
	"github.com/jpalmerr/productboard/internal/store"
)

// StartMockStore runs an in-memory product backend on addr stocked with the
// demo grocery catalog, and simulates customers buying from it every few
// seconds so the dashboard has something to show.
// Call this in a goroutine before creating the Board.
func StartMockStore(ctx context.Context, addr string) {
	st := store.NewMemoryStore()
	for _, item := range seed.DefaultCatalog() {
		if _, err := st.CreateProduct(item.Request()); err != nil {
			slog.Error("failed to stock product", "product", item.Name, "error", err)
		}
	}

	go simulateSales(ctx, st)

	srv := &http.Server{Addr: addr, Handler: productapi.NewRouter(st, slog.Default()), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("mock store error", "error", err)
	}
}

// simulateSales places an order every 2-6 seconds. Most orders are paid,
// some are cancelled, and sold-out products are occasionally restocked.
func simulateSales(ctx context.Context, st *store.MemoryStore) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Duration(2+rand.IntN(5)) * time.Second):
		}

		products := st.ListProducts()
		if len(products) == 0 {
			continue
		}
		p := products[rand.IntN(len(products))]

		if p.StockQuantity == 0 {
			if rand.IntN(3) == 0 {
				restock(st, p)
			}
			continue
		}

		order := st.InitOrder()
		qty := 1 + rand.IntN(min(p.StockQuantity, 3))
		if _, err := st.AddOrderItem(order.ID, p.ID, qty); err != nil {
			slog.Warn("simulated order failed", "product", p.Name, "error", err)
			continue
		}

		if rand.IntN(5) == 0 {
			_, _ = st.CancelOrder(order.ID)
			slog.Info("order cancelled", "product", p.Name, "quantity", qty)
			continue
		}
		_, _ = st.PayOrder(order.ID)
		slog.Info("order paid", "product", p.Name, "quantity", qty)
	}
}

func restock(st *store.MemoryStore, p catalog.Product) {
	req := catalog.ProductRequest{Name: p.Name, Price: p.Price, StockQuantity: 20 + rand.IntN(30)}
	if _, err := st.UpdateProduct(p.ID, req); err != nil {
		slog.Warn("restock failed", "product", p.Name, "error", err)
		return
	}
	slog.Info("restocked", "product", p.Name, "stock", req.StockQuantity)
}
