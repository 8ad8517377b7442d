package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/hgdb-go/hgdb/internal/wire"
)

var breakpointsAddr string

var breakpointsCmd = &cobra.Command{
	Use:   "breakpoints",
	Short: "List the active breakpoints of a running hgdbd daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBreakpoints(cmd.OutOrStdout(), breakpointsAddr)
	},
}

func init() {
	breakpointsCmd.Flags().StringVar(&breakpointsAddr, "addr", "localhost:8888", "address of the running daemon")
	RootCmd.AddCommand(breakpointsCmd)
}

func runBreakpoints(stdout io.Writer, addr string) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "connect to %s", addr)
	}
	defer conn.Close()

	req, err := wire.Marshal(wire.Request{Type: wire.RequestDebuggerInfo, InfoCommand: wire.DebuggerInfoBreakpoints})
	if err != nil {
		return err
	}
	if _, err := conn.Write(req); err != nil {
		return errors.Wrap(err, "send debugger_info request")
	}

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		return errors.Wrap(err, "read debugger_info response")
	}

	var resp wire.DebuggerInfoResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return errors.Wrap(err, "decode debugger_info response")
	}

	tbl := defaultTable(stdout)
	tbl.SetHeader([]string{"ID", "Filename", "Line", "Column"})
	for _, bp := range resp.Breakpoints {
		tbl.Append([]string{
			strconv.FormatUint(uint64(bp.ID), 10),
			bp.Filename,
			strconv.FormatUint(uint64(bp.LineNum), 10),
			strconv.FormatUint(uint64(bp.ColumnNum), 10),
		})
	}
	tbl.Render()
	fmt.Fprintf(stdout, "%d breakpoint(s)\n", len(resp.Breakpoints))
	return nil
}
