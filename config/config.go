package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
)

// Game holds the immutable lottery parameters. It is constructed once at
// startup, validated, and passed by reference to every component; nothing
// mutates it afterwards.
type Game struct {
	Name    string
	Version string

	// Ledger window of the whole game. Draws partition
	// [EpochLedgerIndex, CloseLedgerIndex] into contiguous windows of
	// DrawLedgerInterval ledgers each; the first window opens at the
	// epoch ledger itself, though a deposit landing exactly there buys
	// no tickets.
	EpochLedgerIndex   int64
	CloseLedgerIndex   int64
	DrawLedgerInterval int64

	// Ticket and prize economics. Prices, fees and prize amounts are
	// whole XRP; pools are tracked in drops.
	TicketPrice       int64
	OperatingFeeMin   int64
	OperatingFeeRate  float64
	JackpotCodeLength int
	PrizeRankCount    int
	PrizeRankWeight   int64
	JackpotProportion float64

	GameAccount     string
	OperatorAccount string
}

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL string

	// Ledger configuration
	RippledURL string

	// Scheduler configuration; empty disables the cron loop and the
	// process exits after a single settlement pass.
	CronSchedule string

	// Run pending schema migrations before starting
	MigrateOnBoot bool

	// Directory for per-draw audit artifacts
	DrawLogDir string

	// Game parameters
	Game Game

	// Environment
	Environment string // "development" or "production"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RippledURL:    os.Getenv("RIPPLED_URL"),
		CronSchedule:  os.Getenv("CRON_SCHEDULE"),
		MigrateOnBoot: os.Getenv("MIGRATE_ON_BOOT") == "true",
		DrawLogDir:    os.Getenv("DRAW_LOG_DIR"),
		Environment:   os.Getenv("ENVIRONMENT"),

		// Game parameters with v1.0 defaults
		Game: Game{
			Name:               "HashGame",
			Version:            "1.0",
			EpochLedgerIndex:   95680001,
			CloseLedgerIndex:   96680000,
			DrawLedgerInterval: 10000,
			TicketPrice:        1,
			OperatingFeeMin:    1,
			OperatingFeeRate:   0.08,
			JackpotCodeLength:  5,
			PrizeRankCount:     3,
			PrizeRankWeight:    16,
			JackpotProportion:  0.5,
			GameAccount:        os.Getenv("GAME_ACCOUNT"),
			OperatorAccount:    os.Getenv("OPERATOR_ACCOUNT"),
		},
	}

	// Override defaults if environment variables are set
	if v := os.Getenv("GAME_NAME"); v != "" {
		config.Game.Name = v
	}
	if v := os.Getenv("GAME_VERSION"); v != "" {
		config.Game.Version = v
	}
	overrideInt64(&config.Game.EpochLedgerIndex, "EPOCH_LEDGER_INDEX")
	overrideInt64(&config.Game.CloseLedgerIndex, "CLOSE_LEDGER_INDEX")
	overrideInt64(&config.Game.DrawLedgerInterval, "DRAW_LEDGER_INTERVAL")
	overrideInt64(&config.Game.TicketPrice, "TICKET_PRICE")
	overrideInt64(&config.Game.OperatingFeeMin, "OPERATING_FEE_MIN")
	overrideInt64(&config.Game.PrizeRankWeight, "PRIZE_RANK_WEIGHT")
	overrideInt(&config.Game.JackpotCodeLength, "JACKPOT_CODE_LENGTH")
	overrideInt(&config.Game.PrizeRankCount, "PRIZE_RANK_COUNT")
	overrideFloat(&config.Game.OperatingFeeRate, "OPERATING_FEE_RATE")
	overrideFloat(&config.Game.JackpotProportion, "JACKPOT_PROPORTION")

	if config.DrawLogDir == "" {
		config.DrawLogDir = "./log"
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.RippledURL == "" {
			return nil, fmt.Errorf("RIPPLED_URL is required")
		}
		if config.Game.GameAccount == "" {
			return nil, fmt.Errorf("GAME_ACCOUNT is required")
		}
		if config.Game.OperatorAccount == "" {
			return nil, fmt.Errorf("OPERATOR_ACCOUNT is required")
		}
	}

	if err := config.Game.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate enforces the static game invariants. Violations are fatal at
// startup; no draw may ever be computed from an invalid parameter set.
func (g *Game) Validate() error {
	if g.DrawLedgerInterval <= 0 {
		return fmt.Errorf("draw ledger interval must be positive, got %d", g.DrawLedgerInterval)
	}
	if g.CloseLedgerIndex <= g.EpochLedgerIndex {
		return fmt.Errorf("game close index %d must be after epoch index %d", g.CloseLedgerIndex, g.EpochLedgerIndex)
	}
	if g.TicketPrice <= 0 {
		return fmt.Errorf("ticket price must be positive, got %d", g.TicketPrice)
	}
	// Codes are prefixes of 64-char transaction hashes; a longer code
	// could never be derived.
	if g.JackpotCodeLength <= 0 || g.JackpotCodeLength > 64 {
		return fmt.Errorf("jackpot code length must be in [1, 64], got %d", g.JackpotCodeLength)
	}
	if g.PrizeRankCount <= 0 || g.PrizeRankCount >= g.JackpotCodeLength {
		return fmt.Errorf("prize rank count %d must be in [1, %d)", g.PrizeRankCount, g.JackpotCodeLength)
	}
	if g.PrizeRankWeight <= 0 {
		return fmt.Errorf("prize rank weight must be positive, got %d", g.PrizeRankWeight)
	}
	if g.OperatingFeeRate < 0 || g.OperatingFeeRate >= 1 {
		return fmt.Errorf("operating fee rate %f must be in [0, 1)", g.OperatingFeeRate)
	}
	if g.JackpotProportion <= 0 || g.JackpotProportion > 1 {
		return fmt.Errorf("jackpot proportion %f must be in (0, 1]", g.JackpotProportion)
	}
	return nil
}

func overrideInt64(target *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			*target = parsed
		}
	}
}

func overrideInt(target *int, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			*target = parsed
		}
	}
}

func overrideFloat(target *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			*target = parsed
		}
	}
}
