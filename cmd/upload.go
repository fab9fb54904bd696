package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/aduc70x/aducupload/pkg/connection"
	"github.com/aduc70x/aducupload/pkg/image"
	"github.com/aduc70x/aducupload/pkg/protocol"
	"github.com/aduc70x/aducupload/pkg/status"
	"github.com/aduc70x/aducupload/pkg/uploader"
	"github.com/spf13/cobra"
)

var (
	uploadVerify    bool
	uploadRun       bool
	uploadReset     bool
	uploadNoErase   bool
	uploadMassErase bool
	uploadThenRun   string
	uploadAddress   string
	uploadDump      bool
)

// uploadCmd uploads a firmware image over the bootloader.
var uploadCmd = &cobra.Command{
	Use:     "upload <file|STDIN>",
	Aliases: []string{"write"},
	Short:   "Upload a firmware image to the device",
	Long: `Upload reads a firmware image — Intel HEX or a raw binary — and
writes it to flash over the AN-724 bootloader. An ELF file is
recognised but not uploaded; it must first be converted to Intel HEX
(e.g. with objcopy -O ihex).

Pass STDIN in place of a filename to read the image from standard
input instead of a file.

Example:
  aducupload upload firmware.hex --verify --run`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUpload(args[0])
	},
}

func init() {
	rootCmd.AddCommand(uploadCmd)

	uploadCmd.Flags().BoolVar(&uploadVerify, "verify", false, "verify flash contents after writing")
	uploadCmd.Flags().BoolVar(&uploadRun, "run", false, "jump to the application after upload")
	uploadCmd.Flags().BoolVar(&uploadReset, "reset", false, "force a device reset after upload")
	uploadCmd.Flags().BoolVar(&uploadNoErase, "no-erase", false, "skip erasing flash before writing")
	uploadCmd.Flags().BoolVar(&uploadMassErase, "mass-erase", false, "erase the entire flash array before uploading")
	uploadCmd.Flags().StringVar(&uploadThenRun, "thenrun", "", "shell command to run after a successful upload")
	uploadCmd.Flags().StringVar(&uploadAddress, "address", "", "load address for a raw binary image (hex, default 0)")
	uploadCmd.Flags().BoolVar(&uploadDump, "dump", false, "print a hex dump of each segment's first bytes before uploading")

	// eraseAll/massErase aliasing from the original tool's flag names.
	uploadCmd.Flags().BoolVar(&uploadMassErase, "eraseAll", false, "alias for --mass-erase")
	uploadCmd.Flags().MarkHidden("eraseAll")
}

func runUpload(filename string) error {
	if err := requirePort(); err != nil {
		return err
	}
	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	data, err := readImageInput(filename)
	if err != nil {
		return fmt.Errorf("reading %s: %w", filename, err)
	}

	baseAddr := uint32(0)
	if uploadAddress != "" {
		baseAddr, err = parseHexAddress(uploadAddress)
		if err != nil {
			return fmt.Errorf("invalid --address: %w", err)
		}
	}

	segments, err := image.Load(data, baseAddr)
	if err != nil {
		if err == image.ErrNeedsPreconversion {
			return fmt.Errorf("%s looks like an ELF object; convert it first, e.g. `objcopy -O ihex %s %s.hex`", filename, filename, filename)
		}
		return fmt.Errorf("parsing image: %w", err)
	}

	if uploadDump {
		dumpSegments(segments)
	}

	conn := connection.New(cfg.Port, cfg.Baud, cfg.DataBits, cfg.Parity, cfg.StopBits, cfg.XonXoff, cfg.RtsCts, time.Duration(cfg.ReadTimeoutMs)*time.Millisecond)
	reporter := &status.StdoutReporter{Out: os.Stdout, Quiet: quietFlag}

	up := protocol.New(conn, cfg, reporter)
	if verboseFlag {
		up.SetLogger(logrusEntry())
	}
	defer up.Close()

	if uploadMassErase {
		if !confirmDestructive("about to mass-erase the entire flash array, including the configuration sector") {
			printInfo("mass erase cancelled\n")
			return nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := up.Handshake(ctx); err != nil {
			return err
		}
		if err := up.MassErase(); err != nil {
			return err
		}
	}

	orch := uploader.New(up)
	flags := uploader.Flags{
		Verify:  uploadVerify,
		Run:     uploadRun,
		Reset:   uploadReset,
		NoErase: uploadNoErase,
		PostRun: uploadThenRun,
	}
	pageCfg := uploader.PageConfig{PageSize: cfg.PageSize, ChunkSize: cfg.WritePacketSize}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := orch.UploadSegments(ctx, segments, pageCfg, flags); err != nil {
		fmt.Fprintln(os.Stdout, "FAIL")
		return err
	}
	fmt.Fprintln(os.Stdout, "SUCCESS")
	return nil
}

// readImageInput reads the image bytes from a file, or from stdin when
// filename is the literal pseudo-filename STDIN.
func readImageInput(filename string) ([]byte, error) {
	if filename == "STDIN" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(filename)
}

func printInfo(format string, args ...interface{}) {
	if !quietFlag {
		fmt.Printf(format, args...)
	}
}

// dumpSegments previews up to the first 64 bytes of each segment so a
// caller can sanity-check an image before committing it to flash.
func dumpSegments(segments []image.Segment) {
	const preview = 64
	for _, seg := range segments {
		n := len(seg.Bytes)
		if n > preview {
			n = preview
		}
		fmt.Printf("segment 0x%08X (%d bytes):\n", seg.Start, len(seg.Bytes))
		dumpLines(seg.Bytes[:n], seg.Start)
	}
}

// dumpLines renders data 16 bytes per line as address, hex, an XOR of
// the line's bytes (a quick check value for spotting a corrupted
// segment before it reaches the device; it is not the wire checksum,
// which is a negated byte sum), and an ASCII gutter.
func dumpLines(data []byte, base uint32) {
	const width = 16
	for off := 0; off < len(data); off += width {
		end := off + width
		if end > len(data) {
			end = len(data)
		}
		line := data[off:end]

		var chk byte
		for _, b := range line {
			chk ^= b
		}

		hex := fmt.Sprintf("% X", line)
		if pad := width*3 - 1 - len(hex); pad > 0 {
			hex += strings.Repeat(" ", pad)
		}

		fmt.Printf("%08X  %s  chk=%02X  %s\n", base+uint32(off), hex, chk, asciiGutter(line))
	}
}

func asciiGutter(line []byte) string {
	var sb strings.Builder
	sb.WriteByte('|')
	for _, b := range line {
		if b >= 0x20 && b < 0x7F {
			sb.WriteByte(b)
		} else {
			sb.WriteByte('.')
		}
	}
	sb.WriteByte('|')
	return sb.String()
}
