// aducupload - Command-line tool for flashing ADuC70xx microcontrollers
//
// This tool drives the AN-724 serial bootloader: handshake, erase,
// write, verify, and run/reset over a local serial port or a remote
// bridge.
package main

import (
	"fmt"
	"os"

	"github.com/aduc70x/aducupload/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
