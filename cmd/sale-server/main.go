package main

import (
	"context"
	"log"

	"github.com/pagemarket/marketplace/internal/app/bootstrap"
)

func main() {
	ctx := context.Background()
	runtime, err := bootstrap.NewSaleRuntime(ctx, "configs/sale-server.yaml")
	if err != nil {
		log.Fatalf("bootstrap sale-server: %v", err)
	}
	if err := runtime.RunAPI(ctx); err != nil {
		log.Fatalf("run sale-server: %v", err)
	}
}
