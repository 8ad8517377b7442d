package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/hgdb-go/hgdb/internal/config"
	"github.com/hgdb-go/hgdb/internal/dbglog"
	"github.com/hgdb-go/hgdb/internal/replay"
	"github.com/hgdb-go/hgdb/internal/replay/fsdb"
	"github.com/hgdb-go/hgdb/internal/replay/vcd"
	"github.com/hgdb-go/hgdb/internal/session"
	"github.com/hgdb-go/hgdb/internal/wire"
	"github.com/hgdb-go/hgdb/internal/wire/httpapi"
)

var (
	waveformPath  string
	waveformKind  string
	clockSignal   string
	listenAddr    string
	httpAddr      string
	sourceMapPath string
	debugLog      bool
	skipDBLoad    bool
)

func init() {
	RootCmd.Flags().StringVar(&waveformPath, "waveform", "", "path to the recorded waveform (required)")
	RootCmd.Flags().StringVar(&waveformKind, "format", "vcd", "waveform format: vcd or fsdb")
	RootCmd.Flags().StringVar(&clockSignal, "clock", "", "full signal name the evaluator ticks on; no ticking if empty")
	RootCmd.Flags().StringVar(&listenAddr, "listen", ":8888", "debug protocol listen address")
	RootCmd.Flags().StringVar(&httpAddr, "http", ":8889", "status/health HTTP listen address")
	RootCmd.Flags().StringVar(&sourceMapPath, "source-map", "", "path to a source-map file (JSON/YAML/TOML)")
	RootCmd.Flags().BoolVar(&debugLog, "debug-log", false, "enable info-level logging")
	RootCmd.Flags().BoolVar(&skipDBLoad, "skip-db-load", false, "skip loading a symbol database on connect")
	RootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runReplay(cmd.Context())
	}
}

func openWaveform() (replay.Waveform, error) {
	if waveformPath == "" {
		return nil, errors.New("hgdbreplay: --waveform is required")
	}
	switch waveformKind {
	case "vcd":
		f, err := os.Open(waveformPath)
		if err != nil {
			return nil, errors.Wrap(err, "open waveform")
		}
		defer f.Close()
		return vcd.Parse(f)
	case "fsdb":
		return fsdb.Open(waveformPath)
	default:
		return nil, errors.Errorf("hgdbreplay: unknown waveform format %q", waveformKind)
	}
}

func runReplay(ctx context.Context) error {
	wf, err := openWaveform()
	if err != nil {
		return err
	}
	engine := replay.NewEngine(wf)

	cfg := &config.Config{ListenAddr: listenAddr, DebugLog: debugLog, SkipDBLoad: skipDBLoad}
	if err := cfg.LoadSourceMap(sourceMapPath); err != nil {
		return err
	}
	log := dbglog.New("hgdb", cfg.DebugLog)

	socketServer := &wire.Server{Addr: cfg.ListenAddr}
	sess := session.New(cfg, engine, log, socketServer)
	socketServer.Dispatcher = sess

	if clockSignal != "" {
		if h, ok := engine.GetHandle(clockSignal); ok {
			engine.RegisterValueChangeCallback(h, sess.OnTick)
		} else {
			log.Errorf("hgdbreplay: clock signal %q not found in waveform", clockSignal)
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	errCh := make(chan error, 3)
	go func() { errCh <- engine.Run(runCtx, true) }()
	go func() { errCh <- socketServer.ListenAndServe() }()

	httpServer := &http.Server{Addr: httpAddr, Handler: httpapi.NewRouter(sess)}
	go func() { errCh <- httpServer.ListenAndServe() }()

	fmt.Printf("hgdbreplay listening on %s (status on %s)\n", cfg.ListenAddr, httpAddr)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sig:
		cancel()
		_ = socketServer.Close()
		return httpServer.Close()
	}
}
