package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds runtime settings for the recipebook server and CLI.
type Config struct {
	Port        string
	DBPath      string
	UploadDir   string
	FrontendDir string
	CORSOrigins []string

	MaxImageDim  int
	ImageQuality int

	LogLevel  string
	LogFormat string

	Backup BackupConfig
}

// BackupConfig selects where snapshots go. S3 is used when bucket and
// credentials are all set, otherwise snapshots land in Dir.
type BackupConfig struct {
	Dir        string
	Passphrase string
	S3Endpoint string
	S3Bucket   string
	S3Region   string
	S3Access   string
	S3Secret   string
}

// Load reads an optional .env file and then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, relying on environment variables")
	}

	return &Config{
		Port:         getEnv("RECIPEBOOK_PORT", "8000"),
		DBPath:       dbPathFromURL(getEnv("DATABASE_URL", "data/recipes.db")),
		UploadDir:    getEnv("RECIPEBOOK_UPLOAD_DIR", "uploads"),
		FrontendDir:  getEnv("RECIPEBOOK_FRONTEND_DIR", "frontend/dist"),
		CORSOrigins:  splitList(getEnv("RECIPEBOOK_CORS_ORIGINS", "*")),
		MaxImageDim:  getEnvAsInt("RECIPEBOOK_MAX_IMAGE_DIM", 1920),
		ImageQuality: getEnvAsInt("RECIPEBOOK_IMAGE_QUALITY", 85),
		LogLevel:     getEnv("RECIPEBOOK_LOG_LEVEL", "info"),
		LogFormat:    getEnv("RECIPEBOOK_LOG_FORMAT", "text"),
		Backup: BackupConfig{
			Dir:        getEnv("RECIPEBOOK_BACKUP_DIR", "data/backups"),
			Passphrase: os.Getenv("RECIPEBOOK_BACKUP_PASSPHRASE"),
			S3Endpoint: os.Getenv("RECIPEBOOK_S3_ENDPOINT"),
			S3Bucket:   os.Getenv("RECIPEBOOK_S3_BUCKET"),
			S3Region:   getEnv("RECIPEBOOK_S3_REGION", "us-east-1"),
			S3Access:   os.Getenv("RECIPEBOOK_S3_ACCESS_KEY"),
			S3Secret:   os.Getenv("RECIPEBOOK_S3_SECRET_KEY"),
		},
	}
}

// dbPathFromURL accepts either a bare file path or a sqlite:// URL.
func dbPathFromURL(v string) string {
	for _, prefix := range []string{"sqlite:///", "sqlite://"} {
		if strings.HasPrefix(v, prefix) {
			return strings.TrimPrefix(v, prefix)
		}
	}
	return v
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil && value > 0 {
		return value
	}
	return defaultValue
}
