package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/yungbote/studyladder/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx)
	if err != nil {
		fmt.Printf("Failed to init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	application.Start()
	if err := application.Run(ctx); err != nil {
		application.Log.Error("HTTP server stopped", "error", err)
		application.Close()
		os.Exit(1)
	}
	application.Log.Info("Shutdown complete")
}
