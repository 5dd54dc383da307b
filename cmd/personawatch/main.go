// Package main PersonaWatch API
// @title PersonaWatch API
// @version 1.0
// @description Scans news, video, social and complaint sources for a keyword and keeps what is new
// @contact.name API Support
// @license.name Apache 2.0
// @license.url https://opensource.org/licenses/Apache-2.0
// @BasePath /
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/ozgurerrdem/persona-watch/internal/api/docs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
