// bloghostd runs the multi-tenant blog platform backend.
package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"bloghost"
)

func main() {
	cfg, err := bloghost.LoadConfig(os.Getenv("BLOGHOST_CONFIG"))
	if err != nil {
		log.Fatal(err)
	}
	if addr := os.Getenv("BLOGHOST_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if path := os.Getenv("BLOGHOST_DB"); path != "" {
		cfg.DatabasePath = path
	}

	// Mail delivery is an external collaborator; without one configured the
	// platform runs with notifications disabled.
	app := bloghost.New(cfg, nil)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-done
		if err := app.Echo.Close(); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
	if err := app.Close(); err != nil {
		log.Printf("close: %v", err)
	}
}
