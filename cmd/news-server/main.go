package main

import (
	"context"
	"log"

	"github.com/pagemarket/marketplace/internal/app/bootstrap"
)

func main() {
	ctx := context.Background()
	runtime, err := bootstrap.NewNewsRuntime(ctx, "configs/news-server.yaml")
	if err != nil {
		log.Fatalf("bootstrap news-server: %v", err)
	}
	if err := runtime.RunAPI(ctx); err != nil {
		log.Fatalf("run news-server: %v", err)
	}
}
