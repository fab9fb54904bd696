package cmd

import (
	"fmt"

	"github.com/aduc70x/aducupload/pkg/connection"
	"github.com/spf13/cobra"
)

var (
	bridgeListen string
	bridgeBaud   int
)

// bridgeCmd exposes a local serial port over TCP, so aducupload
// running on another host can reach a device attached to this one.
var bridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Expose a local serial port over TCP for a remote aducupload",
	Long: `Bridge listens on a TCP address and relays bytes to/from a local
serial port, one client at a time. A remote aducupload can then target
this host's port with --port host:port instead of a device path.

Example:
  aducupload bridge --port /dev/ttyUSB0 --listen :9000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if portFlag == "" {
			return fmt.Errorf("no serial port specified (use --port)")
		}
		b := &connection.Bridge{
			ListenAddr: bridgeListen,
			SerialPort: portFlag,
			Baud:       bridgeBaud,
		}
		return b.Listen()
	},
}

func init() {
	rootCmd.AddCommand(bridgeCmd)
	bridgeCmd.Flags().StringVar(&bridgeListen, "listen", ":9000", "address to listen on")
	bridgeCmd.Flags().IntVar(&bridgeBaud, "baud", 115200, "serial baud rate for the local port")
}
