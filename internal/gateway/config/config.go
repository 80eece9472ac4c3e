package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port      string
	Env       string
	LogLevel  string
	LogFormat string

	Dirs    DirsConfig
	Scripts ScriptsConfig

	// ProjectStoreDSN switches project persistence to Postgres when set.
	ProjectStoreDSN string
	Asset           AssetConfig
}

// DirsConfig holds the working directories, relative to the process
// working directory unless absolute.
type DirsConfig struct {
	Scripts  string
	Static   string
	Uploads  string
	Projects string
	Demos    string
	Packages string
}

type ScriptsConfig struct {
	PythonBin string
	ShellBin  string
	// Timeout bounds each run; zero disables it.
	Timeout time.Duration
}

// Asset backends. An empty Backend picks S3 when it is fully configured
// and the uploads directory otherwise.
const (
	AssetBackendAuto   = ""
	AssetBackendFile   = "file"
	AssetBackendS3     = "s3"
	AssetBackendMemory = "memory"
)

type AssetConfig struct {
	Backend   string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// CanUseS3 reports whether every setting needed for the S3 backend is present.
func (c AssetConfig) CanUseS3() bool {
	return strings.TrimSpace(c.Endpoint) != "" &&
		strings.TrimSpace(c.AccessKey) != "" &&
		strings.TrimSpace(c.SecretKey) != "" &&
		strings.TrimSpace(c.Bucket) != ""
}

func Load() (*Config, error) {
	return LoadArgs(os.Args[1:])
}

// LoadArgs reads .env, then flags, then environment overrides.
func LoadArgs(args []string) (*Config, error) {
	_ = godotenv.Load()

	fs := flag.NewFlagSet("ideserver", flag.ContinueOnError)
	port := fs.String("port", ":5005", "server port")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if envPort := strings.TrimSpace(os.Getenv("PORT")); envPort != "" {
		*port = envPort
	}
	addr, err := normalizePort(*port)
	if err != nil {
		return nil, err
	}

	timeout, err := parseDuration(os.Getenv("SCRIPT_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("SCRIPT_TIMEOUT: %w", err)
	}

	asset, err := loadAssetConfig()
	if err != nil {
		return nil, err
	}

	projects := envOr("PROJECTS_DIR", "projects")
	return &Config{
		Port:      addr,
		Env:       envOr("APP_ENV", "local"),
		LogLevel:  envOr("LOG_LEVEL", "info"),
		LogFormat: envOr("LOG_FORMAT", "text"),
		Dirs: DirsConfig{
			Scripts:  envOr("SCRIPTS_DIR", "scripts"),
			Static:   envOr("STATIC_DIR", "ide"),
			Uploads:  envOr("UPLOADS_DIR", "uploads"),
			Projects: projects,
			Demos:    envOr("DEMOS_DIR", projects+string(os.PathSeparator)+"demos"),
			Packages: envOr("PACKAGES_DIR", "packages"),
		},
		Scripts: ScriptsConfig{
			PythonBin: envOr("PYTHON_BIN", "python3"),
			ShellBin:  envOr("SHELL_BIN", "bash"),
			Timeout:   timeout,
		},
		ProjectStoreDSN: strings.TrimSpace(os.Getenv("PROJECT_STORE_PG_DSN")),
		Asset:           asset,
	}, nil
}

func loadAssetConfig() (AssetConfig, error) {
	backend := strings.ToLower(strings.TrimSpace(os.Getenv("ASSET_BACKEND")))
	switch backend {
	case AssetBackendAuto, AssetBackendFile, AssetBackendS3, AssetBackendMemory:
	default:
		return AssetConfig{}, fmt.Errorf("ASSET_BACKEND: unknown backend %q", backend)
	}
	return AssetConfig{
		Backend:   backend,
		Endpoint:  strings.TrimSpace(os.Getenv("ASSET_S3_ENDPOINT")),
		Region:    envOr("ASSET_S3_REGION", "us-east-1"),
		AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ASSET_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
		SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ASSET_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
		Bucket:    envOr("ASSET_S3_BUCKET", "ide-uploads"),
		UseSSL:    parseBool(os.Getenv("ASSET_S3_USE_SSL"), false),
	}, nil
}

// normalizePort accepts "5005" or ":5005" and returns a listen address.
func normalizePort(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, ":") {
		raw = raw[1:]
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 || n > 65535 {
		return "", fmt.Errorf("invalid port %q", raw)
	}
	return ":" + strconv.Itoa(n), nil
}

func parseDuration(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", raw)
	}
	return d, nil
}

func parseBool(raw string, def bool) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

func envOr(key, def string) string {
	return firstNonEmpty(strings.TrimSpace(os.Getenv(key)), def)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
