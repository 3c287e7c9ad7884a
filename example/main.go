package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jpalmerr/productboard"
)

func main() {
	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// start mock backend (see mock_server.go)
	go StartMockStore(ctx, ":8080")
	time.Sleep(100 * time.Millisecond)

	// alert on products selling out
	var mu sync.Mutex
	soldOut := make(map[string]bool)
	onState := func(s productboard.State) {
		mu.Lock()
		defer mu.Unlock()
		for _, p := range s.Products {
			if p.StockQuantity == 0 && !soldOut[p.ID] {
				slog.Warn("product sold out", "product", p.Name)
			}
			soldOut[p.ID] = p.StockQuantity == 0
		}
	}

	b, err := productboard.New(
		productboard.WithStoreURL("http://localhost:8080/api"),
		productboard.WithPollingInterval(5*time.Second),
		productboard.WithPort(3000),
		productboard.WithTitle("Corner Shop"),
		productboard.WithStateCallback(onState),
	)
	if err != nil {
		slog.Error("failed to create productboard", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════════════════╗")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   ProductBoard Demo                                   ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Open http://localhost:3000 in your browser          ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Backend: in-memory grocery store on :8080           ║")
	fmt.Println("  ║   • simulated orders every few seconds                ║")
	fmt.Println("  ║   • dashboard refreshes every 5s                      ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Press Ctrl+C to stop                                ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ╚═══════════════════════════════════════════════════════╝")
	fmt.Println()

	if err := b.Start(ctx); err != nil {
		slog.Error("productboard error", "error", err)
		os.Exit(1)
	}
}
