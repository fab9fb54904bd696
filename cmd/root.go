// Package cmd implements the aducupload command-line interface.
package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/aduc70x/aducupload/pkg/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	portFlag     string
	baudFlag     int
	quietFlag    bool
	verboseFlag  bool
	configFlag   string
	numTriesFlag int

	cfgOpts []config.Option
)

// rootCmd is the base command when aducupload is called without a
// subcommand.
var rootCmd = &cobra.Command{
	Use:   "aducupload",
	Short: "Upload firmware to ADuC70xx microcontrollers over the AN-724 serial bootloader",
	Long: `aducupload drives the AN-724 serial bootloader built into ADuC70xx
ARM7 microcontrollers: it handshakes with the device, erases flash,
writes a firmware image, optionally verifies it, and starts the
application.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verboseFlag {
			logrus.SetLevel(logrus.DebugLevel)
		}

		fileOpts, err := config.LoadFile(configFlag)
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}
		cfgOpts = fileOpts

		if portFlag != "" {
			cfgOpts = append(cfgOpts, config.WithPort(portFlag))
		}
		if baudFlag != 0 {
			cfgOpts = append(cfgOpts, config.WithBaud(baudFlag))
		}
		if numTriesFlag != 0 {
			cfgOpts = append(cfgOpts, config.WithNumTries(numTriesFlag))
		}
		return nil
	},
}

// Execute runs the command tree. It is called once by main.main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&portFlag, "port", "", "serial port or TCP bridge address (e.g. /dev/ttyUSB0, COM3, 192.168.1.50:9000)")
	rootCmd.PersistentFlags().IntVar(&baudFlag, "baud", 0, "baud rate (default 115200)")
	rootCmd.PersistentFlags().BoolVar(&quietFlag, "quiet", false, "suppress progress output")
	rootCmd.PersistentFlags().BoolVar(&verboseFlag, "verbose", false, "enable per-frame debug logging")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "path to an aducupload.ini file")
	rootCmd.PersistentFlags().IntVar(&numTriesFlag, "num-tries", 0, "retry count for write/verify/run (default 3)")

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

func requirePort() error {
	cfg, err := config.New(cfgOpts...)
	if err != nil {
		return err
	}
	if cfg.Port == "" {
		return fmt.Errorf("no port specified (use --port or set it in aducupload.ini)")
	}
	return nil
}

func buildConfig() (config.Config, error) {
	return config.New(cfgOpts...)
}

func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}

func logrusEntry() logrus.FieldLogger {
	return logrus.StandardLogger()
}

// parseHexAddress parses a load address written in any of the hex
// notations AN-724 tooling and Intel HEX files mix: a bare "1234", or
// one prefixed with "0x"/"0X"/"$".
func parseHexAddress(s string) (uint32, error) {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X"), "$")
	addr, err := strconv.ParseUint(trimmed, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid hex address %q: %w", s, err)
	}
	return uint32(addr), nil
}

// confirmDestructive gates an operation that erases the configuration
// sector along with application flash. It requires the operator to
// type the literal word ERASE rather than accept a bare y/n, since a
// misplaced mass-erase cannot be recovered from a re-upload alone.
func confirmDestructive(operation string) bool {
	fmt.Printf("%s\nThis cannot be undone. Type ERASE to proceed, anything else to abort: ", operation)
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return false
	}
	return strings.TrimSpace(scanner.Text()) == "ERASE"
}
