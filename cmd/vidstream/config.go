package main

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/akorchagin/vidstream/internal/logger"
)

const (
	defaultListenAddr      = "localhost:8000"
	defaultLoggingLevel    = logger.LevelInfo
	defaultEnvironment     = logger.EnvProduction
	defaultAccessTokenTTL  = 15 * time.Minute
	defaultRefreshTokenTTL = 10 * 24 * time.Hour
	defaultS3Bucket        = "media"
	defaultS3Region        = "us-east-1"
)

type Config struct {
	// Default logging level
	LogLevel string

	// Environment (dev, prod)
	Environment string

	// Address on which the vidstream service will be run
	ListenAddr string

	// Database to connect to
	DatabaseDSN string

	// Secrets to sign token payloads. Must differ from each other so a
	// leaked access token can't be used to mint refresh tokens.
	AccessTokenSecret  string
	RefreshTokenSecret string

	// Token lifetimes: access short (minutes), refresh long (days)
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// Object storage settings for avatar and cover uploads
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3PublicURL string
}

func NewConfig() *Config {
	return &Config{
		LogLevel:        defaultLoggingLevel,
		Environment:     defaultEnvironment,
		ListenAddr:      defaultListenAddr,
		AccessTokenTTL:  defaultAccessTokenTTL,
		RefreshTokenTTL: defaultRefreshTokenTTL,
		S3Bucket:        defaultS3Bucket,
		S3Region:        defaultS3Region,
	}
}

// Load variables from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		c.LoadEnv(func(key string) string {
			return envMap[key]
		})
		return nil
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) {
		return func(value string) {
			if value != "" {
				*o = value
			}
		}
	}

	// Set duration option if value parses
	setDuration := func(o *time.Duration) func(value string) {
		return func(value string) {
			if d, err := time.ParseDuration(value); err == nil {
				*o = d
			}
		}
	}

	envMap := map[string]func(string){
		"RUN_ADDRESS":          setString(&c.ListenAddr),
		"DATABASE_URI":         setString(&c.DatabaseDSN),
		"LOG_LEVEL":            setString(&c.LogLevel),
		"ENVIRONMENT":          setString(&c.Environment),
		"ACCESS_TOKEN_SECRET":  setString(&c.AccessTokenSecret),
		"REFRESH_TOKEN_SECRET": setString(&c.RefreshTokenSecret),
		"ACCESS_TOKEN_TTL":     setDuration(&c.AccessTokenTTL),
		"REFRESH_TOKEN_TTL":    setDuration(&c.RefreshTokenTTL),
		"S3_ENDPOINT":          setString(&c.S3Endpoint),
		"S3_REGION":            setString(&c.S3Region),
		"S3_ACCESS_KEY":        setString(&c.S3AccessKey),
		"S3_SECRET_KEY":        setString(&c.S3SecretKey),
		"S3_BUCKET":            setString(&c.S3Bucket),
		"S3_PUBLIC_URL":        setString(&c.S3PublicURL),
	}

	for key, parseFn := range envMap {
		parseFn(getenv(key))
	}
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("vidstream", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")
	fs.StringVar(&c.AccessTokenSecret, "access-secret", c.AccessTokenSecret, "Access token signing secret")
	fs.StringVar(&c.RefreshTokenSecret, "refresh-secret", c.RefreshTokenSecret, "Refresh token signing secret")
	fs.DurationVar(&c.AccessTokenTTL, "access-ttl", c.AccessTokenTTL, "Access token lifetime")
	fs.DurationVar(&c.RefreshTokenTTL, "refresh-ttl", c.RefreshTokenTTL, "Refresh token lifetime")
	fs.StringVar(&c.S3Endpoint, "s3-endpoint", c.S3Endpoint, "Object storage endpoint")
	fs.StringVar(&c.S3Region, "s3-region", c.S3Region, "Object storage region")
	fs.StringVar(&c.S3AccessKey, "s3-access-key", c.S3AccessKey, "Object storage access key")
	fs.StringVar(&c.S3SecretKey, "s3-secret-key", c.S3SecretKey, "Object storage secret key")
	fs.StringVar(&c.S3Bucket, "s3-bucket", c.S3Bucket, "Object storage bucket for media")
	fs.StringVar(&c.S3PublicURL, "s3-public-url", c.S3PublicURL, "Base URL media assets are served from")

	return fs.Parse(args)
}
