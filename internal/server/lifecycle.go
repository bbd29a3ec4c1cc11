package server

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v3"
)

// Serve blocks on app.Listen until ctx is cancelled, then shuts the app down
// within shutdownTimeout.
func Serve(ctx context.Context, app *fiber.App, port int, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(fmt.Sprintf(":%d", port), fiber.ListenConfig{DisableStartupMessage: true})
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return <-errCh
	}
}
