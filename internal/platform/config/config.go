package config

import (
	"os"
	"strconv"
	"strings"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName  string
	HTTPPort     string
	PostgresDSN  string
	KafkaBrokers []string

	// GardenAuthorityID is the only caller allowed to tweak garden
	// parameters. LedgerIdentity is folded into every shake draw.
	GardenAuthorityID string
	LedgerIdentity    string

	// BlockIntervalSeconds and GenesisUnix define the logical block clock:
	// height = (now - genesis) / interval.
	BlockIntervalSeconds uint64
	GenesisUnix          int64

	DefaultGrowthMultiplier       uint64
	DefaultMinimumBlocksForReward uint64
	DefaultMaxRewardBasisPoints   uint64
}

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "arboretum"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	var brokers []string
	for _, value := range strings.Split(os.Getenv("KAFKA_BROKERS"), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			brokers = append(brokers, value)
		}
	}
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}

	authority := os.Getenv("GARDEN_AUTHORITY_ID")
	if authority == "" {
		authority = "garden-authority"
	}

	ledgerIdentity := os.Getenv("GARDEN_LEDGER_IDENTITY")
	if ledgerIdentity == "" {
		ledgerIdentity = "arboretum-garden"
	}

	return Config{
		ServiceName:  service,
		HTTPPort:     port,
		PostgresDSN:  os.Getenv("POSTGRES_DSN"),
		KafkaBrokers: brokers,

		GardenAuthorityID: authority,
		LedgerIdentity:    ledgerIdentity,

		BlockIntervalSeconds: envUint("BLOCK_INTERVAL_SECONDS", 12),
		GenesisUnix:          envInt("GENESIS_UNIX", 0),

		DefaultGrowthMultiplier:       envUint("DEFAULT_GROWTH_MULTIPLIER", 1),
		DefaultMinimumBlocksForReward: envUint("DEFAULT_MINIMUM_BLOCKS_FOR_REWARD", 10),
		DefaultMaxRewardBasisPoints:   envUint("DEFAULT_MAX_REWARD_BASIS_POINTS", 1000),
	}, nil
}

func envUint(name string, fallback uint64) uint64 {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return fallback
	}
	return value
}

func envInt(name string, fallback int64) int64 {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fallback
	}
	return value
}
