package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"

	"DocLedger/internal/fees"
	"DocLedger/internal/logger"
)

// Config holds the validator configuration.
type Config struct {
	// DataPath is the directory holding the state database.
	DataPath string

	// LogLevel is the minimum level of emitted log records.
	LogLevel slog.Level

	// Fees are the fee parameters used by the fee check.
	Fees fees.FeeParams

	// ContractFiles are data contract JSON files imported before validation.
	ContractFiles []string

	// IdentityFiles are identity JSON files imported before validation.
	IdentityFiles []string

	// BatchFile is the documents batch JSON file to validate.
	BatchFile string

	// CheckFee runs the fee validator after the structure validator.
	CheckFee bool

	// RestoreFile is a state snapshot restored before any import.
	RestoreFile string

	// ExportFile receives a state snapshot once imports are done.
	ExportFile string

	// HTTPAddress, when set, serves the validation API after the batch, if any.
	HTTPAddress string
}

// envConfig is the part of Config that can come from the environment.
type envConfig struct {
	DataPath     string `env:"DOCLEDGER_DATA" envDefault:"./data"`
	LogLevel     string `env:"DOCLEDGER_LOG_LEVEL" envDefault:"info"`
	PricePerByte uint64 `env:"DOCLEDGER_FEE_PRICE_PER_BYTE"`
	MinFee       uint64 `env:"DOCLEDGER_FEE_MIN"`
	CheckFee     bool   `env:"DOCLEDGER_CHECK_FEE"`
	HTTPAddress  string `env:"DOCLEDGER_HTTP"`
}

// fileList is a repeatable string flag.
type fileList []string

func (f *fileList) String() string { return strings.Join(*f, ",") }

func (f *fileList) Set(v string) error {
	*f = append(*f, v)
	return nil
}

// parseConfig reads the environment, then lets flags in args override it.
func parseConfig(fs *flag.FlagSet, args []string) (*Config, error) {
	var envCfg envConfig
	if err := env.Parse(&envCfg); err != nil {
		return nil, fmt.Errorf("parse env:\n%w", err)
	}

	defaults := fees.DefaultFeeParams()
	if envCfg.PricePerByte == 0 {
		envCfg.PricePerByte = defaults.PricePerByte
	}
	if envCfg.MinFee == 0 {
		envCfg.MinFee = defaults.MinFee
	}

	cfg := &Config{CheckFee: envCfg.CheckFee}
	var (
		contracts  fileList
		identities fileList
		level      string
	)

	fs.StringVar(&cfg.DataPath, "data", envCfg.DataPath, "Data directory path (DOCLEDGER_DATA)")
	fs.StringVar(&level, "log-level", envCfg.LogLevel, "Log level: debug, info, warn, error (DOCLEDGER_LOG_LEVEL)")
	fs.Uint64Var(&cfg.Fees.PricePerByte, "price-per-byte", envCfg.PricePerByte, "Fee in credits per serialized byte")
	fs.Uint64Var(&cfg.Fees.MinFee, "min-fee", envCfg.MinFee, "Minimum fee in credits")
	fs.Var(&contracts, "contract", "Data contract JSON file to import (repeatable)")
	fs.Var(&identities, "identity", "Identity JSON file to import (repeatable)")
	fs.StringVar(&cfg.BatchFile, "batch", "", "Documents batch JSON file to validate")
	fs.BoolVar(&cfg.CheckFee, "fee", cfg.CheckFee, "Also check the owner can pay the batch fee")
	fs.StringVar(&cfg.RestoreFile, "restore", "", "State snapshot to restore before importing")
	fs.StringVar(&cfg.ExportFile, "export", "", "Write a state snapshot to this file after importing")
	fs.StringVar(&cfg.HTTPAddress, "http", envCfg.HTTPAddress, "Serve the validation API on this address (DOCLEDGER_HTTP)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	var err error
	if cfg.LogLevel, err = logger.ParseLevel(level); err != nil {
		return nil, err
	}

	cfg.ContractFiles = contracts
	cfg.IdentityFiles = identities

	if cfg.BatchFile == "" && cfg.HTTPAddress == "" && cfg.RestoreFile == "" && cfg.ExportFile == "" &&
		len(contracts) == 0 && len(identities) == 0 {
		return nil, errors.New("nothing to do: pass -batch, -http, -contract, -identity, -restore or -export")
	}

	return cfg, nil
}
