package main

import (
	"context"
	"log"

	"filedepot/internal/consumer"
	"filedepot/internal/consumer/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := consumer.NewApp(ctx, cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
