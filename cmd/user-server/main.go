package main

import (
	"context"
	"log"

	"github.com/pagemarket/marketplace/internal/app/bootstrap"
)

func main() {
	ctx := context.Background()
	runtime, err := bootstrap.NewUserRuntime(ctx, "configs/user-server.yaml")
	if err != nil {
		log.Fatalf("bootstrap user-server: %v", err)
	}
	if err := runtime.RunAPI(ctx); err != nil {
		log.Fatalf("run user-server: %v", err)
	}
}
