package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Database   DatabaseConfig
	JWT        JWTConfig
	App        AppConfig
	ERP        ERPConfig
	Attendance AttendanceConfig
	HoursBank  HoursBankConfig
	Bulk       BulkConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// JWTConfig holds JWT verification configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port        int
	Env         string
	LogLevel    string
	FrontendURL string
}

// ERPConfig points at the external payroll system
type ERPConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// AttendanceConfig drives the monthly grid load
type AttendanceConfig struct {
	Timezone             string
	GridBatchSize        int
	DictionaryAttempts   uint
	DictionaryRetryDelay time.Duration
	FullDayAbsenceCodes  []string
}

// HoursBankConfig drives the accrual engine and its snapshot job
type HoursBankConfig struct {
	DeductingAbsenceCodes []string
	RecentDays            int
	SnapshotInterval      time.Duration
}

// BulkConfig drives the bulk operation coordinator
type BulkConfig struct {
	ItemDelay                 time.Duration
	DelayThreshold            int
	MealSubsidyOffsetCode     string
	MealSubsidyOffsetDuration decimal.Decimal
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file found, using process environment")
	}

	config := &Config{}

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	maxConns, err := strconv.ParseInt(getEnv("DB_MAX_CONNS", "25"), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}
	minConns, err := strconv.ParseInt(getEnv("DB_MIN_CONNS", "5"), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "timebank"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		MaxConns: int32(maxConns),
		MinConns: int32(minConns),
	}

	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:        appPort,
		Env:         getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
	}

	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	erpTimeout, err := time.ParseDuration(getEnv("ERP_TIMEOUT", "15s"))
	if err != nil {
		return nil, fmt.Errorf("invalid ERP_TIMEOUT: %w", err)
	}

	config.ERP = ERPConfig{
		BaseURL: strings.TrimRight(getEnv("ERP_BASE_URL", ""), "/"),
		APIKey:  getEnv("ERP_API_KEY", ""),
		Timeout: erpTimeout,
	}

	batchSize, err := strconv.Atoi(getEnv("GRID_BATCH_SIZE", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid GRID_BATCH_SIZE: %w", err)
	}
	dictAttempts, err := strconv.ParseUint(getEnv("DICTIONARY_ATTEMPTS", "3"), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid DICTIONARY_ATTEMPTS: %w", err)
	}
	dictDelay, err := time.ParseDuration(getEnv("DICTIONARY_RETRY_DELAY", "1s"))
	if err != nil {
		return nil, fmt.Errorf("invalid DICTIONARY_RETRY_DELAY: %w", err)
	}

	config.Attendance = AttendanceConfig{
		Timezone:             getEnv("APP_TIMEZONE", "America/Sao_Paulo"),
		GridBatchSize:        batchSize,
		DictionaryAttempts:   uint(dictAttempts),
		DictionaryRetryDelay: dictDelay,
		FullDayAbsenceCodes:  getEnvCodes("FULL_DAY_ABSENCE_CODES", "F50"),
	}

	recentDays, err := strconv.Atoi(getEnv("HOURS_BANK_RECENT_DAYS", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid HOURS_BANK_RECENT_DAYS: %w", err)
	}
	snapshotInterval, err := time.ParseDuration(getEnv("HOURS_BANK_SNAPSHOT_INTERVAL", "6h"))
	if err != nil {
		return nil, fmt.Errorf("invalid HOURS_BANK_SNAPSHOT_INTERVAL: %w", err)
	}

	config.HoursBank = HoursBankConfig{
		DeductingAbsenceCodes: getEnvCodes("HOURS_BANK_DEDUCTING_CODES", "BH,F47"),
		RecentDays:            recentDays,
		SnapshotInterval:      snapshotInterval,
	}

	itemDelay, err := time.ParseDuration(getEnv("BULK_ITEM_DELAY", "120ms"))
	if err != nil {
		return nil, fmt.Errorf("invalid BULK_ITEM_DELAY: %w", err)
	}
	delayThreshold, err := strconv.Atoi(getEnv("BULK_DELAY_THRESHOLD", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid BULK_DELAY_THRESHOLD: %w", err)
	}
	offsetDuration, err := decimal.NewFromString(getEnv("MEAL_SUBSIDY_OFFSET_DURATION", "1"))
	if err != nil {
		return nil, fmt.Errorf("invalid MEAL_SUBSIDY_OFFSET_DURATION: %w", err)
	}

	config.Bulk = BulkConfig{
		ItemDelay:                 itemDelay,
		DelayThreshold:            delayThreshold,
		MealSubsidyOffsetCode:     strings.ToUpper(getEnv("MEAL_SUBSIDY_OFFSET_CODE", "SA")),
		MealSubsidyOffsetDuration: offsetDuration,
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.ERP.BaseURL == "" {
		return fmt.Errorf("ERP_BASE_URL is required")
	}
	if c.Attendance.GridBatchSize <= 0 {
		return fmt.Errorf("GRID_BATCH_SIZE must be positive")
	}
	if c.Attendance.DictionaryAttempts == 0 {
		return fmt.Errorf("DICTIONARY_ATTEMPTS must be positive")
	}
	if _, err := time.LoadLocation(c.Attendance.Timezone); err != nil {
		return fmt.Errorf("invalid APP_TIMEZONE: %w", err)
	}
	if c.Bulk.MealSubsidyOffsetCode == "" {
		return fmt.Errorf("MEAL_SUBSIDY_OFFSET_CODE is required")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// Location returns the timezone punches are bucketed into calendar days with.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Attendance.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(env string, fallback string) []string {
	value := getEnv(env, fallback)
	if value == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}

// getEnvCodes reads a list of payroll type codes. The ERP dictionaries key
// them upper-cased.
func getEnvCodes(env string, fallback string) []string {
	codes := getEnvSlice(env, fallback)
	for i, code := range codes {
		codes[i] = strings.ToUpper(code)
	}
	return codes
}
