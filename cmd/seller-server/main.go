package main

import (
	"context"
	"log"

	"github.com/pagemarket/marketplace/internal/app/bootstrap"
)

func main() {
	ctx := context.Background()
	runtime, err := bootstrap.NewSellerRuntime(ctx, "configs/seller-server.yaml")
	if err != nil {
		log.Fatalf("bootstrap seller-server: %v", err)
	}
	if err := runtime.RunAPI(ctx); err != nil {
		log.Fatalf("run seller-server: %v", err)
	}
}
