package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sprite-normalizer/internal/devserver"
	"sprite-normalizer/internal/log"
)

func main() {
	port := flag.Int("port", devserver.DefaultPort, "Port to listen on")
	dir := flag.String("dir", ".", "Directory to serve")
	page := flag.String("page", "index.html", "Page to print links for")
	flag.Parse()

	if err := log.Setup(""); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	srv := devserver.NewServer(*dir, *port)
	local, network := srv.URLs(*page)
	fmt.Printf("Serving %s\n", *dir)
	fmt.Printf("  Local:   %s\n", local)
	if network != "" {
		fmt.Printf("  Network: %s\n", network)
	}
	fmt.Println("Press Ctrl+C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Stop(ctx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	if err := srv.Start(); err != nil {
		log.Fatalf("server: %v", err)
	}
	fmt.Println("Server stopped.")
}
