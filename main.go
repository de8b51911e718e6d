package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"composewait/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := app.New().RunWithContext(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}
