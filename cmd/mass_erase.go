package cmd

import (
	"context"
	"os"
	"time"

	"github.com/aduc70x/aducupload/pkg/connection"
	"github.com/aduc70x/aducupload/pkg/protocol"
	"github.com/aduc70x/aducupload/pkg/status"
	"github.com/spf13/cobra"
)

// massEraseCmd exposes mass-erase as its own subcommand, independent
// of supplying a file.
var massEraseCmd = &cobra.Command{
	Use:     "mass-erase",
	Aliases: []string{"erase-all"},
	Short:   "Erase the entire flash array, including the configuration sector",
	Long: `Mass-erase unprotects and erases the entire flash array. It is
intended only for recovering a device whose configuration sector has
been misprogrammed — a normal upload only erases the pages its image
touches.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMassErase()
	},
}

func init() {
	rootCmd.AddCommand(massEraseCmd)
}

func runMassErase() error {
	if err := requirePort(); err != nil {
		return err
	}
	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	if !confirmDestructive("about to mass-erase the entire flash array, including the configuration sector") {
		printInfo("mass erase cancelled\n")
		return nil
	}

	conn := connection.New(cfg.Port, cfg.Baud, cfg.DataBits, cfg.Parity, cfg.StopBits, cfg.XonXoff, cfg.RtsCts, time.Duration(cfg.ReadTimeoutMs)*time.Millisecond)
	reporter := &status.StdoutReporter{Out: os.Stdout, Quiet: quietFlag}
	up := protocol.New(conn, cfg, reporter)
	if verboseFlag {
		up.SetLogger(logrusEntry())
	}
	defer up.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := up.Handshake(ctx); err != nil {
		return err
	}
	if err := up.MassErase(); err != nil {
		return err
	}
	printInfo("mass erase complete\n")
	return nil
}
