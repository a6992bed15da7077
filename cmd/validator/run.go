package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"DocLedger/internal/api"
	"DocLedger/internal/contract"
	"DocLedger/internal/document"
	"DocLedger/internal/fees"
	"DocLedger/internal/identity"
	"DocLedger/internal/logger"
	"DocLedger/internal/state"
	"DocLedger/internal/storage"
	"DocLedger/internal/validation"
)

// errRejected is returned when the batch is invalid.
var errRejected = errors.New("documents batch rejected")

// run imports the configured files, validates the batch if one is given
// and serves the API if an address is set.
func run(cfg *Config) error {
	logger.Init(cfg.LogLevel)

	if err := os.MkdirAll(cfg.DataPath, 0755); err != nil {
		return fmt.Errorf("create data directory:\n%w", err)
	}

	db, err := storage.Open(filepath.Join(cfg.DataPath, "db"), storage.DefaultOptions())
	if err != nil {
		return fmt.Errorf("init storage:\n%w", err)
	}
	defer db.Close()

	store, err := state.New(db)
	if err != nil {
		return fmt.Errorf("init state:\n%w", err)
	}
	defer store.Close()

	if cfg.RestoreFile != "" {
		if err := restoreSnapshot(store, cfg.RestoreFile); err != nil {
			return err
		}
	}

	if err := importFiles(store, cfg.ContractFiles, cfg.IdentityFiles); err != nil {
		return err
	}

	if cfg.ExportFile != "" {
		if err := exportSnapshot(store, cfg.ExportFile); err != nil {
			return err
		}
	}

	service := newService(store, cfg)

	if cfg.BatchFile != "" {
		raw, err := readBatch(cfg.BatchFile)
		if err != nil {
			return err
		}

		if err := validateBatch(service, cfg, raw); err != nil {
			return err
		}
	}

	if cfg.HTTPAddress != "" {
		return serve(service, cfg.HTTPAddress)
	}

	return nil
}

// importFiles loads contract and identity files into the store in one batch.
func importFiles(store *state.Store, contractFiles, identityFiles []string) error {
	if len(contractFiles) == 0 && len(identityFiles) == 0 {
		return nil
	}

	contracts := make([]*contract.DataContract, 0, len(contractFiles))
	for _, path := range contractFiles {
		c, err := readContract(path)
		if err != nil {
			return err
		}
		contracts = append(contracts, c)
	}

	identities := make([]*identity.Identity, 0, len(identityFiles))
	for _, path := range identityFiles {
		ident, err := readIdentity(path)
		if err != nil {
			return err
		}
		identities = append(identities, ident)
	}

	if err := store.Import(contracts, identities); err != nil {
		return fmt.Errorf("import state:\n%w", err)
	}

	logger.Info("state imported", "contracts", len(contracts), "identities", len(identities))

	return nil
}

// restoreSnapshot loads a snapshot file into the store.
func restoreSnapshot(store *state.Store, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read snapshot:\n%w", err)
	}

	n, err := store.Restore(data)
	if err != nil {
		return fmt.Errorf("restore %s:\n%w", path, err)
	}

	logger.Info("state restored", "records", n, "file", path)

	return nil
}

// exportSnapshot writes a snapshot of the store to path.
func exportSnapshot(store *state.Store, path string) error {
	data, err := store.Snapshot()
	if err != nil {
		return fmt.Errorf("snapshot state:\n%w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write snapshot to %s:\n%w", path, err)
	}

	logger.Info("state exported", "file", path, "bytes", len(data))

	return nil
}

// newService wires the validators over the store.
func newService(store *state.Store, cfg *Config) *api.Service {
	structure := document.NewStructureValidator(
		store,
		validation.NewJSONSchemaValidator(),
		identity.NewExistenceValidator(store),
		identity.NewSignatureValidator(store),
	)

	return api.NewService(structure, fees.NewValidator(store, fees.DefaultCalculator(cfg.Fees)), store)
}

// validateBatch runs the structure validator and, if configured, the fee validator.
func validateBatch(service *api.Service, cfg *Config, raw document.RawBatch) error {
	start := time.Now()

	result, err := service.Check(raw, cfg.CheckFee)
	if err != nil {
		return err
	}

	if !result.IsValid() {
		return reject(result)
	}

	logger.Info("documents batch accepted", "fee_checked", cfg.CheckFee, logger.Timed(start))

	return nil
}

// serve runs the HTTP API until SIGINT or SIGTERM.
func serve(service *api.Service, addr string) error {
	server := api.New(addr, service)
	if err := server.Start(); err != nil {
		return fmt.Errorf("start http api:\n%w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("shutting down")

	return server.Stop()
}

// reject logs every consensus error of result and returns errRejected.
func reject(result *validation.Result) error {
	for _, e := range result.Errors() {
		logger.Warn("consensus error", "kind", e.Kind().String(), "error", e.Error())
	}

	return fmt.Errorf("%w: %d consensus errors", errRejected, len(result.Errors()))
}
