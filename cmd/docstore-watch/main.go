// docstore-watch subscribes to a docstore server and prints every change
// event it receives, optionally appending each one to a file. It
// reconnects after a fixed delay whenever the connection drops, forever.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nerrad567/docstore-core/internal/client"
	"github.com/nerrad567/docstore-core/internal/infrastructure/config"
	"github.com/nerrad567/docstore-core/internal/infrastructure/logging"
	"github.com/nerrad567/docstore-core/internal/protocol"
)

var (
	flagHost     string
	flagPort     int
	flagOutput   string
	flagRetry    int
	flagIdentity string
	flagVerbose  bool
)

func main() {
	root := &cobra.Command{
		Use:           "docstore-watch",
		Short:         "Subscribe to docstore change events",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context())
		},
	}
	root.Flags().StringVarP(&flagHost, "server", "s", "127.0.0.1", "server hostname")
	root.Flags().IntVarP(&flagPort, "port", "p", 8080, "server TCP port")
	root.Flags().StringVarP(&flagOutput, "output", "o", "", "append each event to this file")
	root.Flags().IntVarP(&flagRetry, "retry", "r", 30, "seconds between reconnect attempts")
	root.Flags().StringVar(&flagIdentity, "uuid", "", "client identity (12 lowercase hex; default: local MAC)")
	root.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	level := "info"
	if flagVerbose {
		level = "debug"
	}
	log := logging.New(config.LoggingConfig{
		Level:  level,
		Format: "text",
		Output: "stderr",
	}, "dev")

	identity := flagIdentity
	if identity == "" {
		identity = client.LocalIdentity()
	}
	identity = protocol.NormaliseIdentity(identity)
	if !protocol.ValidIdentity(identity) {
		return fmt.Errorf("invalid uuid %q: must be 12 lowercase hex characters", identity)
	}

	watcher := &client.Watcher{
		Addr:       fmt.Sprintf("%s:%d", flagHost, flagPort),
		Identity:   identity,
		RetryDelay: time.Duration(flagRetry) * time.Second,
		Logger:     log,
		OnEvent: func(event protocol.Event) {
			line, err := json.Marshal(event)
			if err != nil {
				log.Error("encoding event", "error", err)
				return
			}
			fmt.Println(string(line))
			if flagOutput != "" {
				if err := appendLine(flagOutput, line); err != nil {
					log.Error("writing output file", "error", err)
				}
			}
		},
	}

	return watcher.Run(ctx)
}

// appendLine appends one newline-terminated record to path, creating the
// parent directory on first use.
func appendLine(path string, line []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck // Write error is the one that matters

	if _, err := f.Write(append(line, '\n')); err != nil {
		return err
	}
	return f.Close()
}
