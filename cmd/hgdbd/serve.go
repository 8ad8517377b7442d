package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hgdb-go/hgdb/internal/config"
	"github.com/hgdb-go/hgdb/internal/dbglog"
	"github.com/hgdb-go/hgdb/internal/rtl"
	"github.com/hgdb-go/hgdb/internal/session"
	"github.com/hgdb-go/hgdb/internal/wire"
	"github.com/hgdb-go/hgdb/internal/wire/httpapi"
)

var (
	sourceMapPath string
	httpAddr      string
	plusArgs      []string
)

var serveCmd = &cobra.Command{
	Use:   "serve [plus-args...]",
	Short: "Run the debugger daemon, accepting simulator plus-args such as +DEBUG_PORT=9000",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.OutOrStdout(), append(plusArgs, args...))
	},
}

func init() {
	serveCmd.Flags().StringVar(&sourceMapPath, "source-map", "", "path to a source-map file (JSON/YAML/TOML)")
	serveCmd.Flags().StringVar(&httpAddr, "http", ":8889", "address for the auxiliary status/health HTTP surface")
	serveCmd.Flags().StringArrayVar(&plusArgs, "plus-arg", nil, "a simulator plus-arg (e.g. +DEBUG_PORT=9000); repeatable")
	RootCmd.AddCommand(serveCmd)
}

func runServe(stdout io.Writer, plusArgs []string) error {
	cfg := config.FromArgv(plusArgs)
	if err := cfg.LoadSourceMap(sourceMapPath); err != nil {
		return err
	}

	log := dbglog.New("hgdb", cfg.DebugLog)

	vpi, err := newNativeVPI()
	if err != nil {
		return err
	}
	provider := rtl.NewNativeProvider(vpi, nil)

	socketServer := &wire.Server{Addr: cfg.ListenAddr}
	sess := session.New(cfg, provider, log, socketServer)
	socketServer.Dispatcher = sess

	errCh := make(chan error, 2)
	go func() { errCh <- socketServer.ListenAndServe() }()

	httpServer := &http.Server{Addr: httpAddr, Handler: httpapi.NewRouter(sess)}
	go func() { errCh <- httpServer.ListenAndServe() }()

	fmt.Fprintf(stdout, "hgdbd listening on %s (status on %s)\n", cfg.ListenAddr, httpAddr)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sig:
		_ = socketServer.Close()
		return httpServer.Close()
	}
}
