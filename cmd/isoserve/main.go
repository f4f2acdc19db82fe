package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Kush-Singh-26/isoserve/internal/config"
	"github.com/Kush-Singh-26/isoserve/internal/server"
	"github.com/Kush-Singh-26/isoserve/internal/version"
)

func main() {
	command := "serve"
	args := os.Args[1:]
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		command, args = args[0], args[1:]
	}

	switch command {
	case "serve":
		if err := serve(args); err != nil {
			if errors.Is(err, flag.ErrHelp) {
				return
			}
			fmt.Fprintf(os.Stderr, "❌ Error: %v\n", err)
			os.Exit(1)
		}
	case "version":
		fmt.Println("isoserve", version.String())
	case "help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func serve(args []string) error {
	cfg, err := config.Load(args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	srv := server.New(cfg, server.RootFs(cfg.Root), logger)
	if err := srv.ListenAndServe(ctx); err != nil {
		return err
	}
	fmt.Println("\n✅ Server stopped.")
	return nil
}

func printUsage() {
	fmt.Println("Usage: isoserve [command] [flags]")
	fmt.Println("\nCommands:")
	fmt.Println("  serve          Serve the document root (default)")
	fmt.Println("  version        Print the build version")
	fmt.Println("  help           Show this help message")
	fmt.Println("\nServes the directory containing the isoserve binary on http://0.0.0.0:8080/.")
	fmt.Println("Under `go run` that directory is a temporary build dir: build the binary")
	fmt.Println("into your site directory instead.")
	fmt.Println("\nFlags for serve:")
	fmt.Println("  -watch         Reload connected browsers on file changes. Pages must open")
	fmt.Println("                 new EventSource(\"/events\") themselves; a file named")
	fmt.Println("                 events at the root is hidden while watching")
	fmt.Println("  -debounce      Quiet period before a reload (default 300ms)")
}
