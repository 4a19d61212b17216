package onfi

import (
	"github.com/sigurn/crc16"

	"github.com/tinytoy-sec/onfiprobe/pkg/log"
)

// Config holds the discovery configuration.
type Config struct {
	// Logger receives diagnostics. Defaults to log.DefaultLogger.
	Logger log.Logger

	// MaxParamPageCopies bounds the redundant base page copies tried.
	MaxParamPageCopies int

	// MaxExtPageCopies bounds the redundant extended page copies tried.
	MaxExtPageCopies int

	// ExtPageCapacity is the size of the extended page scratch buffer. A part
	// advertising a longer extended page is rejected.
	ExtPageCapacity int

	// CRC is the checksum table for both pages.
	CRC *crc16.Table
}

// CRCParams is the CRC-16 protecting both parameter pages: polynomial
// 0x8005, seed 0x4F4E, no reflection.
var CRCParams = crc16.Params{
	Poly:  0x8005,
	Init:  0x4F4E,
	Check: 0x2771,
	Name:  "CRC-16/ONFI",
}

var onfiCRC = crc16.MakeTable(CRCParams)

func defaultConfig() Config {
	return Config{
		Logger:             log.DefaultLogger,
		MaxParamPageCopies: 3,
		MaxExtPageCopies:   3,
		ExtPageCapacity:    1024,
		CRC:                onfiCRC,
	}
}

// Option is a functional option for configuring a Prober.
type Option func(*Config)

// WithLogger sets the diagnostics logger.
func WithLogger(l log.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// WithMaxParamPageCopies sets how many base page copies are tried.
func WithMaxParamPageCopies(n int) Option {
	return func(c *Config) {
		c.MaxParamPageCopies = n
	}
}

// WithMaxExtPageCopies sets how many extended page copies are tried.
func WithMaxExtPageCopies(n int) Option {
	return func(c *Config) {
		c.MaxExtPageCopies = n
	}
}

// WithExtPageCapacity sets the extended page buffer capacity in bytes.
func WithExtPageCapacity(n int) Option {
	return func(c *Config) {
		c.ExtPageCapacity = n
	}
}

// WithCRCTable replaces the checksum table. Only useful for testing against
// non-conforming images.
func WithCRCTable(t *crc16.Table) Option {
	return func(c *Config) {
		c.CRC = t
	}
}
