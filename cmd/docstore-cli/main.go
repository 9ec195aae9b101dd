// docstore-cli performs one-shot get/list/set exchanges against a
// docstore server. It reads a request JSON file, normalises it (default
// identity, flat payloads folded into DATA, id extraction), sends it,
// and prints or writes the response.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nerrad567/docstore-core/internal/client"
	"github.com/nerrad567/docstore-core/internal/infrastructure/config"
	"github.com/nerrad567/docstore-core/internal/infrastructure/logging"
)

var (
	flagInput   string
	flagOutput  string
	flagHost    string
	flagPort    int
	flagVerbose bool
)

func main() {
	root := &cobra.Command{
		Use:           "docstore-cli",
		Short:         "One-shot docstore client",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return run()
		},
	}
	root.Flags().StringVarP(&flagInput, "input", "i", "", "request JSON file (required)")
	root.Flags().StringVarP(&flagOutput, "output", "o", "", "response JSON file (default: stdout)")
	root.Flags().StringVarP(&flagHost, "server", "s", "127.0.0.1", "server hostname")
	root.Flags().IntVarP(&flagPort, "port", "p", 8080, "server TCP port")
	root.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")
	_ = root.MarkFlagRequired("input") //nolint:errcheck // Flag is statically known

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	log := newLogger()

	raw, err := readInput(flagInput)
	if err != nil {
		return err
	}

	req, err := client.Normalize(raw)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", flagHost, flagPort)
	log.Debug("sending request", "addr", addr, "action", req.Action, "id", req.ID)

	resp, err := client.Do(addr, req)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding response: %w", err)
	}

	if flagOutput != "" {
		if err := os.WriteFile(flagOutput, out, 0600); err != nil {
			return fmt.Errorf("writing response file: %w", err)
		}
		return nil
	}
	fmt.Println(string(out))
	return nil
}

func readInput(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading input file: %w", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing input file: %w", err)
	}
	return raw, nil
}

func newLogger() *logging.Logger {
	level := "warn"
	if flagVerbose {
		level = "debug"
	}
	return logging.New(config.LoggingConfig{
		Level:  level,
		Format: "text",
		Output: "stderr",
	}, "dev")
}
