// tokensd is the long-running comparison server: POST /runs starts a
// comparison, results are served from the store.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ccastromar/tokens/internal/app"
)

// runner is the minimal interface our app must satisfy for running.
type runner interface{ Run(context.Context) error }

// appCtor is a constructor indirection to enable testing without launching the real app.
var appCtor = func() (runner, error) { return app.New() }

// fatalf indirection allows testing fatal paths without exiting the test process.
var fatalf = log.Fatalf

func run(ctx context.Context) {
	a, err := appCtor()
	if err != nil {
		fatalf("error initializing app: %v", err)
		return
	}
	if err := a.Run(ctx); err != nil {
		fatalf("error running app: %v", err)
		return
	}
}

func main() {
	port := flag.String("port", "9090", "HTTP port to listen on")
	defs := flag.String("definitions", "", "definitions directory (default $DEFINITIONS_DIR)")
	flag.Parse()

	app.SetHTTPPort(*port)
	if *defs != "" {
		os.Setenv("DEFINITIONS_DIR", *defs)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	run(ctx)
}
