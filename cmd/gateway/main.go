package main

import (
	"context"
	"log"

	"github.com/pagemarket/marketplace/internal/app/bootstrap"
)

func main() {
	ctx := context.Background()
	runtime, err := bootstrap.NewGatewayRuntime(ctx, "configs/gateway.yaml")
	if err != nil {
		log.Fatalf("bootstrap gateway: %v", err)
	}
	if err := runtime.RunAPI(ctx); err != nil {
		log.Fatalf("run gateway: %v", err)
	}
}
