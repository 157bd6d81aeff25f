package app

import (
	"fmt"
	"os"
	"time"

	"fitcal/internal/config"
	"fitcal/internal/database"
	"fitcal/internal/encryption"
	"fitcal/internal/fitcal"
	"fitcal/internal/garmin"
	"fitcal/internal/vault"
)

// App is the application layer between the CLI and the Service. It
// constructs all dependencies from config and manages their lifecycle on
// Close.
type App struct {
	cfg       *config.Config
	store     fitcal.Store
	vault     fitcal.Vault
	encryptor fitcal.Encryptor
	service   *fitcal.Service
	parser    *garmin.Parser
	weekStart time.Weekday
	logFile   *os.File
}

// New creates a fully wired App from the given config. operation identifies
// the CLI command being run (e.g. "Import", "Restore") and is stamped on log
// records. The caller must call Close when done.
func New(cfg *config.Config, operation string) (*App, error) {
	weekStart, err := cfg.Calendar.WeekStartDay()
	if err != nil {
		return nil, fmt.Errorf("reading calendar config: %w", err)
	}

	store, err := database.NewStoreFromConfig(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("creating store: %w", err)
	}

	var v fitcal.Vault
	if len(cfg.Vaults) > 0 {
		v, err = vault.NewVaultFromConfig(cfg.Vaults[0])
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("creating vault: %w", err)
		}
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	opID := operation + "-" + time.Now().UTC().Format("20060102T150405Z")
	logger, logFile, err := newLogger(cfg.LogDir, opID)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	idgen := fitcal.UUIDGenerator{}
	svc := fitcal.NewService(store, v, enc, &slogAdapter{l: logger}, fitcal.RealClock{}, idgen)

	return &App{
		cfg:       cfg,
		store:     store,
		vault:     v,
		encryptor: enc,
		service:   svc,
		parser:    garmin.NewParser(idgen),
		weekStart: weekStart,
		logFile:   logFile,
	}, nil
}

// Service returns the wired service layer.
func (a *App) Service() *fitcal.Service { return a.service }

// Parser returns the import parser.
func (a *App) Parser() *garmin.Parser { return a.parser }

// Encryptor returns the configured backup encryptor.
func (a *App) Encryptor() fitcal.Encryptor { return a.encryptor }

// WeekStart returns the configured weekday that opens a week view.
func (a *App) WeekStart() time.Weekday { return a.weekStart }

// Close releases the store and the log file.
func (a *App) Close() error {
	var firstErr error
	if err := a.store.Close(); err != nil {
		firstErr = err
	}
	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
