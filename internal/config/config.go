package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	AppEnv            string        `mapstructure:"APP_ENV"`
	Port              string        `mapstructure:"PORT"`
	BaseURL           string        `mapstructure:"BASE_URL"`
	DatabaseURL       string        `mapstructure:"DATABASE_URL"`
	UsersDatabaseURL  string        `mapstructure:"USERS_DATABASE_URL"`
	MongoDatabase     string        `mapstructure:"MONGO_DATABASE"`
	MigrationsPath    string        `mapstructure:"MIGRATIONS_PATH"`
	RedisURL          string        `mapstructure:"REDIS_URL"`
	RedisPassword     string        `mapstructure:"REDIS_PASSWORD"`
	CacheTTL          time.Duration `mapstructure:"CACHE_TTL"`
	JWTSecret         string        `mapstructure:"JWT_SECRET"`
	JWTTTL            time.Duration `mapstructure:"JWT_TTL"`
	ShortIDLength     int           `mapstructure:"SHORT_ID_LENGTH"`
	AllocationTries   int           `mapstructure:"ALLOCATION_ATTEMPTS"`
	DeleteNeedsOwner  bool          `mapstructure:"DELETE_REQUIRES_OWNER"`
	RateLimitRPS      float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst    int           `mapstructure:"RATE_LIMIT_BURST"`
	MaxMindAccountID  string        `mapstructure:"MAXMIND_ACCOUNT_ID"`
	MaxMindLicenseKey string        `mapstructure:"MAXMIND_LICENSE_KEY"`
	MaxMindEditionIDs string        `mapstructure:"MAXMIND_EDITION_IDS"`
	MaxMindDBPath     string        `mapstructure:"GEOIP_DB_PATH"`
	OTLPEndpoint      string        `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// IsSQL reports whether the link store lives in a gorm-managed database.
func (c Config) IsSQL() bool {
	return strings.HasPrefix(c.DatabaseURL, "postgres") || strings.HasPrefix(c.DatabaseURL, "sqlite")
}

// AccountsDatabaseURL is where users and audit logs are kept. It is the link
// database when that one is SQL, otherwise a dedicated database.
func (c Config) AccountsDatabaseURL() string {
	if c.IsSQL() {
		return c.DatabaseURL
	}
	return c.UsersDatabaseURL
}

func LoadConfig() (config Config, err error) {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("APP_ENV", "local")
	v.SetDefault("PORT", "5000")
	v.SetDefault("BASE_URL", "http://localhost:5000")
	v.SetDefault("DATABASE_URL", "sqlite://shortlify.db")
	v.SetDefault("USERS_DATABASE_URL", "sqlite://users.db")
	v.SetDefault("MONGO_DATABASE", "shortlify")
	v.SetDefault("MIGRATIONS_PATH", "file://migration")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("CACHE_TTL", 10*time.Minute)
	v.SetDefault("JWT_SECRET", "change-me")
	v.SetDefault("JWT_TTL", 7*24*time.Hour)
	v.SetDefault("SHORT_ID_LENGTH", 6)
	v.SetDefault("ALLOCATION_ATTEMPTS", 5)
	v.SetDefault("DELETE_REQUIRES_OWNER", false)
	v.SetDefault("RATE_LIMIT_RPS", 5)
	v.SetDefault("RATE_LIMIT_BURST", 10)
	v.SetDefault("GEOIP_DB_PATH", "./geoip/GeoLite2-City.mmdb")
	v.SetDefault("MAXMIND_EDITION_IDS", "GeoLite2-City")
	v.SetDefault("MAXMIND_ACCOUNT_ID", "")
	v.SetDefault("MAXMIND_LICENSE_KEY", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	v.AutomaticEnv()

	err = v.Unmarshal(&config)
	if err != nil {
		log.Printf("unable to decode into struct, %v", err)
		return
	}

	return
}
