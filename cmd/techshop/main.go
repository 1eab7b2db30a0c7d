// Command techshop is the TechShop storefront CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/roach88/techshop/internal/cli"
)

func main() {
	// Ctrl-C during order placement cancels the wait without placing the order.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
