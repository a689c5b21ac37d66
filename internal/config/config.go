// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Storage StorageConfig
	Server  ServerConfig
	Auth    AuthConfig
	Gating  GatingConfig
	Watch   WatchConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// StorageConfig holds data storage configuration.
type StorageConfig struct {
	DataPath string
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Name         string
	Port         string        // Server port (default: 8080)
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	// PASETO v4 symmetric key for access tokens (hex-encoded, 32 bytes).
	// Set from auth.LoadOrGenerateKey in main.
	AccessTokenKey      string
	AccessTokenDuration time.Duration
}

// GatingConfig controls lesson progression rules.
type GatingConfig struct {
	// SequentialLessons requires the previous lesson in a module to be
	// completed before the next one opens.
	SequentialLessons bool
	// OneLessonAtATime restricts students to a single in-progress lesson
	// per course.
	OneLessonAtATime bool
}

// WatchConfig controls watch session tracking and completion rules.
type WatchConfig struct {
	// HeartbeatIntervalSeconds is the expected client heartbeat cadence.
	HeartbeatIntervalSeconds int
	// HeartbeatGraceSeconds is added to the interval when clamping a
	// reported watch delta.
	HeartbeatGraceSeconds int
	// MaxForwardJumpSeconds is the largest position jump between
	// heartbeats that is not flagged as a seek.
	MaxForwardJumpSeconds float64
	// MaxPlaybackRate is the fastest playback speed counted as watching.
	MaxPlaybackRate float64
	// MinPlaybackRate floors reported rates before validation.
	MinPlaybackRate float64
	// MinWatchRatio is the fraction of lesson duration that must be
	// watched for completion.
	MinWatchRatio float64
	// MinWatchSeconds is the completion floor for lessons with no
	// known duration.
	MinWatchSeconds int
	// RequireDurationForCompletion refuses ratio-based completion when
	// the lesson duration is unknown.
	RequireDurationForCompletion bool
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	// Define command-line flags.
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := flag.String("data-path", "", "Base path for data storage")
	serverName := flag.String("server-name", "", "Name for the server")

	// Auth flags
	accessTokenDuration := flag.String("access-token-duration", "", "Access token lifetime (e.g., 24h)")

	// Server flags
	serverPort := flag.String("port", "", "Server port (default: 8080)")
	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := flag.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")

	// Gating flags
	sequentialLessons := flag.String("sequential-lessons", "", "Require previous lesson completion (default: true)")
	oneLessonAtATime := flag.String("one-lesson-at-a-time", "", "Allow only one in-progress lesson per course (default: false)")

	// Watch flags
	heartbeatInterval := flag.String("heartbeat-interval", "", "Heartbeat cadence in seconds (default: 15)")
	maxForwardJump := flag.String("max-forward-jump", "", "Max un-flagged forward jump in seconds (default: 30)")
	maxPlaybackRate := flag.String("max-playback-rate", "", "Max playback rate counted as watching (default: 2.0)")
	minWatchRatio := flag.String("min-watch-ratio", "", "Watched fraction required for completion (default: 0.9)")

	envFile := flag.String("env-file", ".env", "Path to .env file")

	// Parse flags but don't exit on error - we want to handle it gracefully.
	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	// Build config with proper precedence.
	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Storage: StorageConfig{
			DataPath: getConfigValue(*dataPath, "DATA_PATH", ""),
		},

		Server: ServerConfig{
			Name: getConfigValue(*serverName, "SERVER_NAME", "Tazkiyah Server"),
			Port: getConfigValue(*serverPort, "SERVER_PORT", "8080"),
		},

		Auth: AuthConfig{
			AccessTokenKey: "", // Set by auth.LoadOrGenerateKey in main
		},

		Gating: GatingConfig{
			SequentialLessons: getBoolConfigValue(*sequentialLessons, "SEQUENTIAL_LESSONS", true),
			OneLessonAtATime:  getBoolConfigValue(*oneLessonAtATime, "ONE_LESSON_AT_A_TIME", false),
		},

		Watch: WatchConfig{
			HeartbeatIntervalSeconds:     getIntConfigValue(*heartbeatInterval, "HEARTBEAT_INTERVAL_SECONDS", 15),
			HeartbeatGraceSeconds:        getIntConfigValue("", "HEARTBEAT_GRACE_SECONDS", 5),
			MaxForwardJumpSeconds:        getFloatConfigValue(*maxForwardJump, "MAX_FORWARD_JUMP_SECONDS", 30),
			MaxPlaybackRate:              getFloatConfigValue(*maxPlaybackRate, "MAX_PLAYBACK_RATE", 2.0),
			MinPlaybackRate:              getFloatConfigValue("", "MIN_PLAYBACK_RATE", 0.5),
			MinWatchRatio:                getFloatConfigValue(*minWatchRatio, "MIN_WATCH_RATIO", 0.9),
			MinWatchSeconds:              getIntConfigValue("", "MIN_WATCH_SECONDS", 60),
			RequireDurationForCompletion: getBoolConfigValue("", "REQUIRE_DURATION_FOR_COMPLETION", false),
		},
	}

	// Parse auth duration.
	accessDurationStr := getConfigValue(*accessTokenDuration, "ACCESS_TOKEN_DURATION", "24h")
	accessDuration, err := time.ParseDuration(accessDurationStr)
	if err != nil {
		return nil, fmt.Errorf("invalid access token duration %q: %w", accessDurationStr, err)
	}
	cfg.Auth.AccessTokenDuration = accessDuration

	// Parse server timeouts.
	readTimeoutStr := getConfigValue(*readTimeout, "SERVER_READ_TIMEOUT", "15s")
	readTimeoutDuration, err := time.ParseDuration(readTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid read timeout %q: %w", readTimeoutStr, err)
	}
	cfg.Server.ReadTimeout = readTimeoutDuration

	writeTimeoutStr := getConfigValue(*writeTimeout, "SERVER_WRITE_TIMEOUT", "15s")
	writeTimeoutDuration, err := time.ParseDuration(writeTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid write timeout %q: %w", writeTimeoutStr, err)
	}
	cfg.Server.WriteTimeout = writeTimeoutDuration

	idleTimeoutStr := getConfigValue(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s")
	idleTimeoutDuration, err := time.ParseDuration(idleTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid idle timeout %q: %w", idleTimeoutStr, err)
	}
	cfg.Server.IdleTimeout = idleTimeoutDuration

	// Expand and validate data path.
	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	// Validate configuration.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Storage.DataPath == "" {
		return errors.New("data path cannot be empty after expansion")
	}

	if c.Watch.HeartbeatIntervalSeconds <= 0 {
		return fmt.Errorf("heartbeat interval must be positive, got %d", c.Watch.HeartbeatIntervalSeconds)
	}
	if c.Watch.MaxPlaybackRate < c.Watch.MinPlaybackRate {
		return fmt.Errorf("max playback rate %.2f cannot be below min %.2f", c.Watch.MaxPlaybackRate, c.Watch.MinPlaybackRate)
	}
	if c.Watch.MinWatchRatio <= 0 || c.Watch.MinWatchRatio > 1 {
		return fmt.Errorf("min watch ratio must be in (0, 1], got %.2f", c.Watch.MinWatchRatio)
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	// Expand tilde.
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	// Make absolute if needed.
	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataPath expands ~ and makes the path absolute.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "Tazkiyah", "data")

	expanded, err := expandPath(c.Storage.DataPath, defaultPath)
	if err != nil {
		return err
	}
	c.Storage.DataPath = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	// Priority 1: Command-line flag.
	if flagValue != "" {
		return flagValue
	}

	// Priority 2: Environment variable.
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	// Priority 3: Default value.
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// getFloatConfigValue returns a float64 from flag, env var, or default.
func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result float64
	if _, err := fmt.Sscanf(strValue, "%g", &result); err != nil {
		return defaultValue
	}
	return result
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=value.
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present.
		value = strings.Trim(value, `"'`)

		// Only set if not already set (env vars take precedence over .env file).
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
