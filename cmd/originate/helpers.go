package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/tradewise-tools/originate/internal/config"
	"github.com/tradewise-tools/originate/internal/engine"
	"github.com/tradewise-tools/originate/internal/hscode"
	"github.com/tradewise-tools/originate/internal/manufacturer"
	"github.com/tradewise-tools/originate/internal/rules"
	"github.com/tradewise-tools/originate/internal/storage"
)

// initStorage initializes the storage service with proper path expansion.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = filepath.Join(config.DefaultDataDir(), "originate.db")
	}
	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// initClassifier loads the HS codes document. A malformed document refuses to
// serve analyses rather than run with ambiguous classifications.
func initClassifier() (*hscode.Classifier, error) {
	path := viper.GetString("hscodes.path")
	if path == "" {
		path = filepath.Join(config.DefaultDataDir(), "hs_codes.json")
	}
	return hscode.LoadClassifier(config.ExpandPath(path))
}

// initRules loads the FTA rules document.
func initRules() (*rules.Repository, error) {
	path := viper.GetString("rules.path")
	if path == "" {
		path = filepath.Join(config.DefaultDataDir(), "rules.json")
	}
	return rules.LoadRepository(config.ExpandPath(path))
}

// initManufacturers loads the optional manufacturers reference list.
func initManufacturers() (*manufacturer.Registry, error) {
	path := viper.GetString("manufacturers.path")
	if path == "" {
		path = filepath.Join(config.DefaultDataDir(), "manufacturers.csv")
	}
	return manufacturer.LoadRegistry(config.ExpandPath(path))
}

// engineConfig builds the analysis settings from configuration.
func engineConfig() engine.Config {
	cfg := engine.DefaultConfig()
	if agreement := viper.GetString("analysis.trade_agreement"); agreement != "" {
		cfg.TradeAgreement = agreement
	}
	if partners := viper.GetStringSlice("analysis.partner_countries"); len(partners) > 0 {
		cfg.PartnerCountries = partners
	}
	return cfg
}
