// Package main provides the reticle-errorserver CLI binary.
// It plays a scripted mix of valid MCP traffic and malformed output so a
// consumer's skip-and-continue behavior can be exercised end to end.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/azerzeki/mcp-reticle/internal/faultinject"
	"github.com/azerzeki/mcp-reticle/internal/logging"
)

func main() {
	pace := flag.Duration("pace", 500*time.Millisecond, "Delay between script steps")
	hold := flag.Duration("hold", time.Second, "Time to stay alive after the last message")
	verbose := flag.Bool("verbose", false, "Enable debug logging on stderr")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	cfg := &faultinject.Config{Pace: *pace, FinalHold: *hold}
	log := logging.NewRoleLogger("error-server", *verbose)
	inj := faultinject.New(cfg, os.Stdout, os.Stderr, log)

	if err := inj.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
