package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	configfile "github.com/murmurapp/searchcore/internal/adapters/driven/config/file"
	"github.com/murmurapp/searchcore/internal/adapters/driven/embedding"
	"github.com/murmurapp/searchcore/internal/adapters/driven/keyword/fts5"
	recordfile "github.com/murmurapp/searchcore/internal/adapters/driven/records/file"
	"github.com/murmurapp/searchcore/internal/adapters/driven/storage/badger"
	"github.com/murmurapp/searchcore/internal/adapters/driven/storage/sqlite"
	vecpg "github.com/murmurapp/searchcore/internal/adapters/driven/vector/pgvector"
	vecsqlite "github.com/murmurapp/searchcore/internal/adapters/driven/vector/sqlite"
	"github.com/murmurapp/searchcore/internal/chunking"
	"github.com/murmurapp/searchcore/internal/core/domain"
	"github.com/murmurapp/searchcore/internal/core/ports/driven"
	"github.com/murmurapp/searchcore/internal/core/services"
	"github.com/murmurapp/searchcore/internal/logger"
)

// Configuration keys understood by the CLI. Empty directory values
// fall back to the adapter defaults under ~/.murmur.
const (
	keyRecordsDir      = "records.dir"
	keyDataDir         = "storage.data_dir"
	keyFingerprints    = "storage.fingerprints"
	keyVectorBackend   = "vector.backend"
	keyVectorPostgres  = "vector.postgres_url"
	keyEmbedProvider   = "embedding.provider"
	keyEmbedModel      = "embedding.model"
	keyEmbedBaseURL    = "embedding.base_url"
	keyEmbedAPIKey     = "embedding.api_key"
	keyEmbedDimensions = "embedding.dimensions"
	keySimilarity      = "chunking.similarity_threshold"
	keyMaxChunkTokens  = "chunking.max_chunk_tokens"
	keySchedulerOn     = "scheduler.enabled"
	keySyncInterval    = "scheduler.sync_interval_minutes"
)

// closers holds shutdown funcs in open order; closeServices runs them
// in reverse.
var closers []func() error

// initServices opens the stores and constructs the application
// services according to the configuration file.
//
// A missing embedding provider is not an error: search degrades to
// the keyword path and the indexing commands report that they need
// configuration. An unreachable provider only surfaces when a command
// actually embeds.
func initServices() error {
	cfg, err := configfile.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}
	configStore = cfg

	settings := loadEmbeddingSettings(cfg)
	dataDir := cfg.GetString(keyDataDir)

	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		return fmt.Errorf("opening metadata store: %w", err)
	}
	closers = append(closers, store.Close)

	var fingerprints driven.FingerprintStore = store.FingerprintStore()
	if cfg.GetString(keyFingerprints) == "badger" {
		badgerStore, err := badger.NewFingerprintStore("")
		if err != nil {
			return fmt.Errorf("opening fingerprint store: %w", err)
		}
		closers = append(closers, badgerStore.Close)
		fingerprints = badgerStore
	}

	records, err := recordfile.NewRecordStore(cfg.GetString(keyRecordsDir))
	if err != nil {
		return fmt.Errorf("opening record store: %w", err)
	}
	closers = append(closers, records.Close)
	recordStore = records
	recordWatcher = records

	keywordIndex, err := fts5.NewIndex(dataDir)
	if err != nil {
		return fmt.Errorf("opening keyword index: %w", err)
	}
	closers = append(closers, keywordIndex.Close)

	vectorIndex, err := openVectorIndex(cfg, settings)
	if err != nil {
		return fmt.Errorf("opening vector index: %w", err)
	}

	embedder, err := embedding.CreateEmbeddingService(settings)
	if err != nil {
		logger.Warn("Embedding service unavailable: %v", err)
		embedder = nil
	}
	if embedder != nil {
		closers = append(closers, embedder.Close)
	}

	// The search service tolerates a nil embedder; queries then run
	// keyword-only and report degradation.
	searchService = services.NewSearchService(store.ChunkStore(), keywordIndex, vectorIndex, embedder)

	if embedder != nil {
		semantic := chunking.NewSemanticChunker(embedder, chunkerOptions(cfg)...)
		chunker := chunking.NewRecordChunker(semantic)
		orchestrator := services.NewIndexer(recordStore, chunker, store.ChunkStore(), vectorIndex, keywordIndex, fingerprints)
		indexerService = orchestrator
		schedulerService = services.NewScheduler(schedulerConfig(cfg), store.SchedulerStore(), orchestrator)
	}

	return nil
}

// closeServices shuts everything down in reverse open order.
func closeServices() {
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			logger.Warn("Shutdown: %v", err)
		}
	}
	closers = nil
}

// loadEmbeddingSettings assembles embedding settings from config and
// environment. OPENAI_API_KEY overrides the stored key so users can
// keep secrets out of the config file.
func loadEmbeddingSettings(cfg driven.ConfigStore) domain.EmbeddingSettings {
	provider := domain.EmbeddingProvider(cfg.GetString(keyEmbedProvider))

	model := cfg.GetString(keyEmbedModel)
	if model == "" {
		model = domain.DefaultEmbeddingModels()[provider]
	}

	apiKey := cfg.GetString(keyEmbedAPIKey)
	if env := os.Getenv("OPENAI_API_KEY"); env != "" && provider == domain.EmbeddingProviderOpenAI {
		apiKey = env
	}

	return domain.EmbeddingSettings{
		Provider:   provider,
		Model:      model,
		BaseURL:    cfg.GetString(keyEmbedBaseURL),
		APIKey:     apiKey,
		Dimensions: cfg.GetInt(keyEmbedDimensions),
	}
}

// openVectorIndex selects the vector backend. Default is the local
// sqlite index; "pgvector" switches to Postgres for users running the
// optional server setup.
func openVectorIndex(cfg driven.ConfigStore, settings domain.EmbeddingSettings) (driven.VectorIndex, error) {
	if cfg.GetString(keyVectorBackend) == "pgvector" {
		dims := settings.Dimensions
		if dims == 0 {
			dims = domain.EmbeddingDimensions()[settings.Model]
		}
		index, err := vecpg.NewIndex(context.Background(), vecpg.Config{
			ConnString: cfg.GetString(keyVectorPostgres),
			Dimensions: dims,
		})
		if err != nil {
			return nil, err
		}
		closers = append(closers, index.Close)
		return index, nil
	}

	index, err := vecsqlite.NewIndex(cfg.GetString(keyDataDir))
	if err != nil {
		return nil, err
	}
	closers = append(closers, index.Close)
	return index, nil
}

func chunkerOptions(cfg driven.ConfigStore) []chunking.Option {
	var opts []chunking.Option
	if v := cfg.GetFloat(keySimilarity); v > 0 {
		opts = append(opts, chunking.WithSimilarityThreshold(v))
	}
	if v := cfg.GetInt(keyMaxChunkTokens); v > 0 {
		opts = append(opts, chunking.WithMaxChunkTokens(v))
	}
	return opts
}

func schedulerConfig(cfg driven.ConfigStore) domain.SchedulerConfig {
	sc := domain.DefaultSchedulerConfig()
	if v, ok := cfg.Get(keySchedulerOn); ok {
		if enabled, isBool := v.(bool); isBool {
			sc.Enabled = enabled
		}
	}
	if minutes := cfg.GetInt(keySyncInterval); minutes > 0 {
		task := sc.TaskConfigs[domain.TaskIDRecordSync]
		task.Enabled = true
		task.Interval = time.Duration(minutes) * time.Minute
		sc.TaskConfigs[domain.TaskIDRecordSync] = task
	}
	return sc
}
