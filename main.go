package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"
	"github.com/spf13/cobra"

	"pkmn-bridge/client"
	"pkmn-bridge/config"
	"pkmn-bridge/parser"
)

var cfgPath string

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pkmn-bridge",
		Short:         "Decode Gen-1 battle engine traces into Showdown protocol",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file")
	root.AddCommand(decodeCmd(), humanizeCmd(), serveCmd())
	return root
}

// readTrace takes the trace as a hex argument or raw bytes on stdin.
func readTrace(args []string, in io.Reader) ([]byte, error) {
	if len(args) == 1 {
		cleaned := strings.NewReplacer(" ", "", "\n", "", "\t", "").Replace(args[0])
		trace, err := hex.DecodeString(cleaned)
		if err != nil {
			return nil, fmt.Errorf("invalid hex trace: %w", err)
		}
		return trace, nil
	}
	return io.ReadAll(in)
}

// slotNames merges comma-separated name overrides over the default
// placeholder names.
func slotNames(p1, p2 string) parser.Slots {
	slots := parser.DefaultSlots()
	for i, names := range []string{p1, p2} {
		if names == "" {
			continue
		}
		for n, name := range strings.Split(names, ",") {
			if n >= len(slots[i]) {
				break
			}
			slots[i][n] = strings.TrimSpace(name)
		}
	}
	return slots
}

func decodeCmd() *cobra.Command {
	var p1, p2 string
	cmd := &cobra.Command{
		Use:   "decode [hex-trace]",
		Short: "Print a binary trace as Showdown protocol messages",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			trace, err := readTrace(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			msgs, err := parser.DecodeWithSlots(trace, slotNames(p1, p2))
			if err != nil {
				return err
			}
			for _, msg := range msgs {
				fmt.Fprintln(cmd.OutOrStdout(), msg)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&p1, "p1", "", "comma-separated names for player 1's party")
	cmd.Flags().StringVar(&p2, "p2", "", "comma-separated names for player 2's party")
	return cmd
}

func humanizeCmd() *cobra.Command {
	var p1, p2 string
	cmd := &cobra.Command{
		Use:   "humanize [hex-trace]",
		Short: "Print a binary trace as readable battle commentary",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			trace, err := readTrace(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			msgs, err := parser.DecodeWithSlots(trace, slotNames(p1, p2))
			if err != nil {
				return err
			}
			for _, line := range parser.Humanize(msgs) {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&p1, "p1", "", "comma-separated names for player 1's party")
	cmd.Flags().StringVar(&p2, "p2", "", "comma-separated names for player 2's party")
	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the trace decoding server with websocket spectators",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			return serve(cfg)
		},
	}
}

func serve(cfg config.Config) error {
	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Level:           level,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := client.NewHub(logger)
	go hub.Run(ctx)

	r := mux.NewRouter()
	r.HandleFunc(cfg.Server.WSPath, hub.ServeWS).Methods(http.MethodGet)
	r.HandleFunc("/trace", handleTrace(hub, logger)).Methods(http.MethodPost)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("server started", "addr", cfg.Server.Addr, "ws", cfg.Server.WSPath)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type traceRequest struct {
	Trace string   `json:"trace"`
	P1    []string `json:"p1,omitempty"`
	P2    []string `json:"p2,omitempty"`
}

type traceResponse struct {
	Messages []string `json:"messages"`
}

// handleTrace decodes a posted hex trace and fans the protocol lines
// out to every websocket spectator.
func handleTrace(hub *client.Hub, logger *log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req traceRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		trace, err := hex.DecodeString(req.Trace)
		if err != nil {
			http.Error(w, "trace must be hex encoded", http.StatusBadRequest)
			return
		}

		slots := parser.DefaultSlots()
		for n, name := range req.P1 {
			if n < len(slots[0]) {
				slots[0][n] = name
			}
		}
		for n, name := range req.P2 {
			if n < len(slots[1]) {
				slots[1][n] = name
			}
		}

		msgs, err := parser.DecodeWithSlots(trace, slots)
		if err != nil {
			logger.Warn("rejected trace", "err", err)
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		hub.Broadcast(msgs)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(traceResponse{Messages: msgs}); err != nil {
			logger.Error("write response", "err", err)
		}
	}
}
