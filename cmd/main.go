package main

import (
	"context"
	"time"

	"github.com/niksmo/marketplace/config"
	"github.com/niksmo/marketplace/internal/app"
	"github.com/niksmo/marketplace/pkg/sigctx"
)

func main() {
	sigCtx, closeApp := sigctx.NotifyContext()
	defer closeApp()

	cfg := config.Load()
	cfg.Print()

	application := app.New(sigCtx, cfg)
	application.Run(closeApp)

	<-sigCtx.Done()

	shutdownCtx, cancelTimeout := context.WithTimeout(
		context.Background(), 10*time.Second,
	)
	defer cancelTimeout()

	application.Close(shutdownCtx)
}
