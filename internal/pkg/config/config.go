package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/memexshot/memexshot/internal/pkg/env"
)

// Default on-chain constants for the confirmation matcher. Overridable via env
// so a different launchpad/asset pair can be monitored without a rebuild.
const (
	DefaultMeteoraDBCProgram = "dbcij3LWUppWqq96dh6gJWwBifmcGfLSB5D4DuSMaqN"
	DefaultUSDCMint          = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
)

// IngestConfig configures the ingestion worker
type IngestConfig struct {
	BotUsername       string `validate:"required"`
	SearchKeyword     string `validate:"required"`
	BearerToken       string `validate:"required"`
	MaxDailyPerUser   int    `validate:"min=1"`
	MinFollowers      int    `validate:"min=0"`
	CoinTwitterHandle string
	CoinWebsiteType   string
	PollInterval      time.Duration
	// RateLimitMarkSeen restores the legacy behavior of permanently marking a
	// rate-limited tweet as seen. Off by default so the tweet stays eligible;
	// since the cursor advances past the batch anyway, it is picked up again
	// on the next restart, when the cursor is re-seeded from the queue table.
	RateLimitMarkSeen bool
}

// LoadIngest reads and validates the ingestion worker configuration
func LoadIngest() (*IngestConfig, error) {
	cfg := &IngestConfig{
		BotUsername:       env.GetEnv("BOT_USERNAME", "memeXshot"),
		SearchKeyword:     env.GetEnv("SEARCH_KEYWORD", "Launch"),
		BearerToken:       env.GetEnv("TWITTER_BEARER_TOKEN", ""),
		MaxDailyPerUser:   getInt("MAX_DAILY_PER_USER", 3),
		MinFollowers:      getInt("MIN_FOLLOWERS", 0),
		CoinTwitterHandle: env.GetEnv("COIN_TWITTER_HANDLE", "@memexshot"),
		CoinWebsiteType:   env.GetEnv("COIN_WEBSITE_URL", "tweet_url"),
		PollInterval:      getDuration("INGEST_POLL_INTERVAL", 30*time.Second),
		RateLimitMarkSeen: getBool("INGEST_RATELIMIT_MARK_SEEN", false),
	}
	return cfg, validate(cfg)
}

// PromoterConfig configures the queue-to-coins promoter
type PromoterConfig struct {
	PollInterval    time.Duration
	CleanupEvery    int           `validate:"min=1"`
	RetentionWindow time.Duration `validate:"min=1h"`
}

// LoadPromoter reads and validates the promoter configuration
func LoadPromoter() (*PromoterConfig, error) {
	cfg := &PromoterConfig{
		PollInterval:    getDuration("QUEUE_POLL_INTERVAL", 10*time.Second),
		CleanupEvery:    getInt("QUEUE_CLEANUP_EVERY", 100),
		RetentionWindow: getDuration("QUEUE_RETENTION_WINDOW", 24*time.Hour),
	}
	return cfg, validate(cfg)
}

// PhotoSyncConfig configures the asset sync worker
type PhotoSyncConfig struct {
	ImportFolder string `validate:"required"`
	PollInterval time.Duration
	SyncPause    time.Duration
	MaxRetries   int `validate:"min=1"`
}

// LoadPhotoSync reads and validates the photo sync configuration
func LoadPhotoSync() (*PhotoSyncConfig, error) {
	cfg := &PhotoSyncConfig{
		ImportFolder: env.GetEnv("PHOTO_IMPORT_FOLDER", "~/Pictures/MoonshotAutoImport"),
		PollInterval: getDuration("PHOTO_SYNC_POLL_INTERVAL", 30*time.Second),
		SyncPause:    getDuration("PHOTO_SYNC_PAUSE", 10*time.Second),
		MaxRetries:   getInt("PHOTO_SYNC_MAX_RETRIES", 10),
	}
	return cfg, validate(cfg)
}

// AutomationConfig configures the automation listener
type AutomationConfig struct {
	Command      string `validate:"required"`
	PollInterval time.Duration
	StartDelay   time.Duration
	BetweenCoins time.Duration
}

// LoadAutomation reads the automation listener configuration
func LoadAutomation() (*AutomationConfig, error) {
	cfg := &AutomationConfig{
		Command:      env.GetEnv("AUTOMATION_COMMAND", ""),
		PollInterval: getDuration("AUTOMATION_POLL_INTERVAL", 5*time.Second),
		StartDelay:   getDuration("AUTOMATION_START_DELAY", 5*time.Second),
		BetweenCoins: getDuration("AUTOMATION_BETWEEN_COINS", 30*time.Second),
	}
	return cfg, validate(cfg)
}

// ReplyAccountConfig is one Twitter identity in the reply rotation pool
type ReplyAccountConfig struct {
	Name              string `validate:"required"`
	AccessToken       string `validate:"required"`
	AccessTokenSecret string `validate:"required"`
}

// ReplyBotConfig configures the wallet monitor and reply sender
type ReplyBotConfig struct {
	WalletAddress  string `validate:"required"`
	RPCURL         string `validate:"required,url"`
	ProgramAddress string `validate:"required"`
	USDCMint       string `validate:"required"`
	APIKey         string
	APISecret      string
	ReplyMessage   string
	PollInterval   time.Duration
	MaxTxAge       time.Duration
	Accounts       []ReplyAccountConfig `validate:"min=1,dive"`
}

// LoadReplyBot reads and validates the reply bot configuration. The account
// pool is the main TWITTER_ACCESS_TOKEN pair plus TWITTER_1_*, TWITTER_2_*.
func LoadReplyBot() (*ReplyBotConfig, error) {
	cfg := &ReplyBotConfig{
		WalletAddress:  env.GetEnv("MONITOR_WALLET_ADDRESS", ""),
		RPCURL:         env.GetEnv("HELIUS_RPC_URL", ""),
		ProgramAddress: env.GetEnv("CONFIRM_PROGRAM_ADDRESS", DefaultMeteoraDBCProgram),
		USDCMint:       env.GetEnv("CONFIRM_USDC_MINT", DefaultUSDCMint),
		APIKey:         env.GetEnv("TWITTER_API_KEY", ""),
		APISecret:      env.GetEnv("TWITTER_API_SECRET", ""),
		ReplyMessage: env.GetEnv("REPLY_MESSAGE",
			"Congratulations! You've just created a free meme coin using memeXshot. Welcome to the launch club."),
		PollInterval: getDuration("REPLY_POLL_INTERVAL", 30*time.Second),
		MaxTxAge:     getDuration("REPLY_MAX_TX_AGE", 30*time.Minute),
	}

	if token, secret := env.GetEnv("TWITTER_ACCESS_TOKEN", ""), env.GetEnv("TWITTER_ACCESS_TOKEN_SECRET", ""); token != "" && secret != "" {
		cfg.Accounts = append(cfg.Accounts, ReplyAccountConfig{
			Name:              "main_account",
			AccessToken:       token,
			AccessTokenSecret: secret,
		})
	}
	for i := 1; i <= 2; i++ {
		token := env.GetEnv(fmt.Sprintf("TWITTER_%d_ACCESS_TOKEN", i), "")
		secret := env.GetEnv(fmt.Sprintf("TWITTER_%d_ACCESS_TOKEN_SECRET", i), "")
		if token != "" && secret != "" {
			cfg.Accounts = append(cfg.Accounts, ReplyAccountConfig{
				Name:              fmt.Sprintf("account%d", i),
				AccessToken:       token,
				AccessTokenSecret: secret,
			})
		}
	}

	return cfg, validate(cfg)
}

var validatorInstance = validator.New()

func validate(cfg interface{}) error {
	if err := validatorInstance.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func getInt(key string, def int) int {
	raw := env.GetEnv(key, "")
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return val
}

func getBool(key string, def bool) bool {
	raw := env.GetEnv(key, "")
	if raw == "" {
		return def
	}
	val, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return val
}

func getDuration(key string, def time.Duration) time.Duration {
	raw := env.GetEnv(key, "")
	if raw == "" {
		return def
	}
	val, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return val
}
