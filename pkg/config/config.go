// Package config holds the immutable line/protocol parameters an
// Uploader is built with.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/ini.v1"
)

// Config is the connection configuration from AN-724: serial line
// parameters plus the protocol knobs (retry count, packet size, page
// size, read timeout). It is built once via New and never mutated
// afterward — the mutable-attribute style of the original tool is
// replaced by a value plus functional options.
type Config struct {
	Port string

	Baud     int
	DataBits int
	Parity   string
	StopBits int
	XonXoff  bool
	RtsCts   bool

	ReadTimeoutMs   int
	NumTries        int
	WritePacketSize int
	PageSize        int
}

// Option mutates a Config under construction.
type Option func(*Config)

// WithPort sets the serial port or TCP host:port to connect to.
func WithPort(port string) Option {
	return func(c *Config) { c.Port = port }
}

// WithBaud overrides the default 115200 baud rate.
func WithBaud(baud int) Option {
	return func(c *Config) { c.Baud = baud }
}

// WithFlowControl records the software (XON/XOFF) and hardware
// (RTS/CTS) flow-control flags. The serial transport does not configure
// either kind of flow control in the driver: when either flag is set it
// only drives the RTS line to the value of rtsCts.
func WithFlowControl(xonXoff, rtsCts bool) Option {
	return func(c *Config) {
		c.XonXoff = xonXoff
		c.RtsCts = rtsCts
	}
}

// WithReadTimeout overrides the default ~10ms short-read timeout used
// for both response-byte reads and input draining.
func WithReadTimeout(ms int) Option {
	return func(c *Config) { c.ReadTimeoutMs = ms }
}

// WithNumTries overrides the default retry count (3) applied to write,
// verify and run commands. Erase is never retried regardless of this
// value.
func WithNumTries(n int) Option {
	return func(c *Config) { c.NumTries = n }
}

// WithWritePacketSize overrides the default 16-byte write/verify chunk
// size. The hard protocol maximum is 250 bytes of payload.
func WithWritePacketSize(n int) Option {
	return func(c *Config) { c.WritePacketSize = n }
}

// WithPageSize overrides the default 512-byte flash erase page size.
func WithPageSize(n int) Option {
	return func(c *Config) { c.PageSize = n }
}

// New builds a Config from the AN-724 defaults plus any overrides.
func New(opts ...Option) (Config, error) {
	c := Config{
		Port:            "",
		Baud:            115200,
		DataBits:        8,
		Parity:          "N",
		StopBits:        1,
		ReadTimeoutMs:   10,
		NumTries:        3,
		WritePacketSize: 16,
		PageSize:        512,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c, c.validate()
}

func (c Config) validate() error {
	if c.NumTries < 1 {
		return errors.Errorf("numTries must be >= 1, got %d", c.NumTries)
	}
	if c.WritePacketSize < 1 || c.WritePacketSize > 250 {
		return errors.Errorf("writePacketSize must be 1..250, got %d", c.WritePacketSize)
	}
	if c.PageSize < 1 {
		return errors.Errorf("pageSize must be >= 1, got %d", c.PageSize)
	}
	if c.ReadTimeoutMs < 1 {
		return errors.Errorf("readTimeoutMs must be >= 1, got %d", c.ReadTimeoutMs)
	}
	return nil
}

// LoadFile reads an INI file of the recognized options and returns the
// equivalent Options, searching the current directory, then
// $ADUCUPLOAD_HOME, then the user's home directory.
func LoadFile(explicitPath string) ([]Option, error) {
	paths := searchPaths(explicitPath)

	var file *ini.File
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		f, err := ini.Load(p)
		if err != nil {
			return nil, errors.Wrapf(err, "loading config %s", p)
		}
		file = f
		break
	}
	if file == nil {
		return nil, nil
	}

	section := file.Section("DEFAULT")
	var opts []Option
	if v := section.Key("port").String(); v != "" {
		opts = append(opts, WithPort(v))
	}
	if section.HasKey("baud") {
		opts = append(opts, WithBaud(section.Key("baud").MustInt(115200)))
	}
	if section.HasKey("num_tries") {
		opts = append(opts, WithNumTries(section.Key("num_tries").MustInt(3)))
	}
	if section.HasKey("write_packet_size") {
		opts = append(opts, WithWritePacketSize(section.Key("write_packet_size").MustInt(16)))
	}
	if section.HasKey("page_size") {
		opts = append(opts, WithPageSize(section.Key("page_size").MustInt(512)))
	}
	if section.HasKey("read_timeout_ms") {
		opts = append(opts, WithReadTimeout(section.Key("read_timeout_ms").MustInt(10)))
	}
	return opts, nil
}

func searchPaths(explicitPath string) []string {
	var paths []string
	if explicitPath != "" {
		paths = append(paths, explicitPath)
	}
	paths = append(paths, filepath.Join(".", "aducupload.ini"))
	if dir := os.Getenv("ADUCUPLOAD_HOME"); dir != "" {
		paths = append(paths, filepath.Join(dir, "aducupload.ini"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, "aducupload.ini"))
	}
	return paths
}

// String renders the line parameters for diagnostic logging.
func (c Config) String() string {
	return fmt.Sprintf("%s@%d %d%s%d", c.Port, c.Baud, c.DataBits, c.Parity, c.StopBits)
}
