package factory

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/ozgurerrdem/persona-watch/internal/storage"
	"github.com/ozgurerrdem/persona-watch/internal/storage/es"
	"github.com/ozgurerrdem/persona-watch/internal/storage/pg"
	"github.com/ozgurerrdem/persona-watch/pkg/utils"
)

const DefaultESIndex = "persona_watch_contents"

type StorageConfig struct {
	storage.Type
	Pg *pg.PoolConfig
	Es *es.ClientConfig
}

// LoadEnv reads STORAGE_TYPE and the settings of the selected backend. An unset
// STORAGE_TYPE falls back to the in-memory store.
func LoadEnv() (*StorageConfig, error) {
	storageType := storage.Type(strings.TrimSpace(os.Getenv("STORAGE_TYPE")))
	if storageType == "" {
		slog.Warn("STORAGE_TYPE is not set, using in-memory storage")
		storageType = storage.InMem
	}
	if !slices.Contains(storage.SupportedTypes, storageType) {
		slog.Error("Invalid STORAGE_TYPE environment variable value", "value", storageType)
		return nil, fmt.Errorf(
			"invalid STORAGE_TYPE environment variable value: %s, expected one of %v",
			storageType, storage.SupportedTypes)
	}

	cfg := &StorageConfig{Type: storageType}

	switch storageType {
	case storage.ES:
		esCfg := &es.ClientConfig{
			Addresses: utils.SplitTrim(os.Getenv("ES_ADDRESSES"), ","),
			IndexName: os.Getenv("ES_INDEX_NAME"),
			Username:  os.Getenv("ES_USERNAME"),
			Password:  os.Getenv("ES_PASSWORD"),
		}
		if esCfg.IndexName == "" {
			esCfg.IndexName = DefaultESIndex
		}
		if len(esCfg.Addresses) == 0 {
			slog.Error("Elasticsearch configuration is incomplete", "addresses", esCfg.Addresses)
			return nil, fmt.Errorf("elasticsearch configuration is incomplete: ES_ADDRESSES is missing")
		}
		cfg.Es = esCfg
	case storage.PG:
		pgCfg := &pg.PoolConfig{ConnStr: os.Getenv("PG_CONNECTION_STRING")}
		if pgCfg.ConnStr == "" {
			slog.Error("PostgreSQL connection string is not set")
			return nil, fmt.Errorf("PostgreSQL connection string is not set")
		}
		cfg.Pg = pgCfg
	}

	return cfg, nil
}
