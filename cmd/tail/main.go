package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/eleven-am/transcript-demo/internal/tail"
)

func main() {
	server := flag.String("server", "http://localhost:8080", "server base URL")
	sessionID := flag.String("session", "", "session to follow; a new one is created when empty")
	play := flag.Bool("play", false, "start playback after connecting")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	id := *sessionID
	if id == "" {
		created, err := tail.CreateSession(ctx, *server, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create session: %v\n", err)
			os.Exit(1)
		}
		id = created
		fmt.Printf("Session: %s\n", id)
	}

	wsURL, err := tail.SessionURL(*server, id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid server URL: %v\n", err)
		os.Exit(1)
	}

	var opts []tail.Option
	if *play {
		opts = append(opts, tail.WithPlay())
	}

	if err := tail.Follow(ctx, wsURL, os.Stdout, opts...); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
