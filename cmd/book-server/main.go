package main

import (
	"context"
	"log"

	"github.com/pagemarket/marketplace/internal/app/bootstrap"
)

func main() {
	ctx := context.Background()
	runtime, err := bootstrap.NewBookRuntime(ctx, "configs/book-server.yaml")
	if err != nil {
		log.Fatalf("bootstrap book-server: %v", err)
	}
	if err := runtime.RunAPI(ctx); err != nil {
		log.Fatalf("run book-server: %v", err)
	}
}
