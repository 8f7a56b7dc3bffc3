package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/joho/godotenv"

	"chatrelay/internal/queue"
	"chatrelay/internal/server"
)

const shutdownTimeout = 5 * time.Second

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s [flags] <port>\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	writeTimeout := flag.Duration("write-timeout", 10*time.Second, "deadline for each write to a client (0 disables)")
	poll := flag.Duration("poll", queue.DefaultWait, "how long a receiver waits on its queue between shutdown checks")
	flag.Usage = usage
	flag.Parse()

	_ = godotenv.Load()

	port, err := resolvePort(flag.Args(), os.Getenv("RELAY_PORT"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		usage()
		os.Exit(2)
	}

	wt := *writeTimeout
	if wt == 0 {
		wt = -1
	}
	srv := server.New(server.Config{
		Addr:         ":" + strconv.Itoa(port),
		WriteTimeout: wt,
		PollInterval: *poll,
	})
	if err := srv.Listen(); err != nil {
		log.Fatalf("[server] %v", err)
	}

	go func() {
		if err := srv.Serve(); err != nil {
			log.Fatalf("[server] stopped: %v", err)
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"relay": func(ctx context.Context) error {
				log.Println("[server] shutting down…")
				srv.Shutdown()
				return nil
			},
		},
	)
	os.Exit(<-wait)
}

// resolvePort picks the positional port, falling back to env.
func resolvePort(args []string, env string) (int, error) {
	raw := env
	switch len(args) {
	case 0:
	case 1:
		raw = args[0]
	default:
		return 0, fmt.Errorf("expected one port argument, got %d", len(args))
	}
	if raw == "" {
		return 0, fmt.Errorf("no port given and RELAY_PORT is unset")
	}
	port, err := strconv.Atoi(raw)
	if err != nil || port < 1 || port > 65535 {
		return 0, fmt.Errorf("invalid port %q", raw)
	}
	return port, nil
}
