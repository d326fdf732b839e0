package main

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/adapter/storage"
	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
	"github.com/rl1809/storefront/internal/logging"
)

const (
	sessionCount   = 10
	addsPerSession = 50
)

var products = []domain.Product{
	{ID: "stress-veste", Name: "Veste", Price: decimal.NewFromInt(500), Category: "Vestes"},
	{ID: "stress-jean", Name: "Jean", Price: decimal.RequireFromString("299.99"), Category: "Pantalons"},
}

func main() {
	logger, err := logging.New(logging.Options{Level: "warn"})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: redisAddr, PoolSize: 100})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal("connect redis", zap.Error(err))
	}
	defer rdb.Close()

	adapter := storage.NewRedisAdapter(rdb, 10*time.Minute)
	registry := service.NewSessionRegistry(adapter, service.DefaultCartKey, logger)

	sessions := make([]string, sessionCount)
	for i := range sessions {
		sessions[i] = uuid.NewString()
	}

	// Every session receives addsPerSession concurrent adds alternating between products.
	var wg sync.WaitGroup
	start := time.Now()
	for _, id := range sessions {
		store := registry.Store(ctx, id)
		for i := 0; i < addsPerSession; i++ {
			wg.Add(1)
			go func(p domain.Product) {
				defer wg.Done()
				store.AddToCart(ctx, p)
			}(products[i%len(products)])
		}
	}
	wg.Wait()
	elapsed := time.Since(start)

	// A fresh registry only sees what reached Redis.
	reloaded := service.NewSessionRegistry(adapter, service.DefaultCartKey, logger)
	expected := decimal.Zero
	for i := 0; i < addsPerSession; i++ {
		expected = expected.Add(products[i%len(products)].Price)
	}

	failures := 0
	for _, id := range sessions {
		snap := reloaded.Store(ctx, id).Snapshot()
		if snap.ItemCount != addsPerSession || !snap.Total.Equal(expected) {
			failures++
			fmt.Printf("FAIL: session %s has %d items totalling %s\n", id, snap.ItemCount, snap.Total)
		}
		rdb.Del(ctx, "storefront:"+service.SessionKey(id, service.DefaultCartKey))
	}

	fmt.Println("========== CART STRESS RESULTS ==========")
	fmt.Printf("Sessions:          %d\n", sessionCount)
	fmt.Printf("Adds per session:  %d\n", addsPerSession)
	fmt.Printf("Expected total:    %s\n", expected)
	fmt.Printf("Duration:          %v\n", elapsed)
	fmt.Println("==========================================")

	if failures == 0 {
		fmt.Printf("PASS: every cart persisted %d items\n", addsPerSession)
	} else {
		fmt.Printf("FAIL: %d of %d carts lost updates\n", failures, sessionCount)
		os.Exit(1)
	}
}
