package configuration

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/iota-uz/utils/fs"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/fieo/orgregistry/pkg/logging"
)

// maxPasswordBytes is the bcrypt input limit.
const maxPasswordBytes = 72

var singleton = sync.OnceValue(func() *Configuration {
	c := &Configuration{}
	if err := c.load([]string{".env", ".env.local"}); err != nil {
		c.Unload()
		panic(err)
	}
	return c
})

// LoadEnv loads the env files that exist in the working directory. When none
// does, the nearest parent holding a go.mod is tried instead.
func LoadEnv(envFiles []string) (int, error) {
	existing := existingFiles("", envFiles)
	if len(existing) == 0 {
		if root, ok := moduleRoot(); ok {
			existing = existingFiles(root, envFiles)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

func existingFiles(dir string, envFiles []string) []string {
	out := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		p := file
		if dir != "" {
			p = filepath.Join(dir, file)
		}
		if fs.FileExists(p) {
			out = append(out, p)
		}
	}
	return out
}

func moduleRoot() (string, bool) {
	dir, err := os.Getwd()
	if err != nil {
		return "", false
	}
	for {
		if fs.FileExists(filepath.Join(dir, "go.mod")) {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

type DatabaseOptions struct {
	Opts     string `env:"-"`
	Name     string `env:"DB_NAME" envDefault:"org_registry"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
	MaxConns int    `env:"DB_MAX_CONNS" envDefault:"8"`
}

func (d *DatabaseOptions) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s dbname=%s password=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Name, d.Password, d.SSLMode,
	)
}

type LogOptions struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
	Path  string `env:"LOG_PATH" envDefault:""`
}

type PrometheusOptions struct {
	PushgatewayURL string `env:"PROMETHEUS_PUSHGATEWAY_URL"`
	Job            string `env:"PROMETHEUS_JOB" envDefault:"registry_sync"`
}

// RegistryOptions drive a reconciliation run.
type RegistryOptions struct {
	DataDir          string        `env:"REGISTRY_DATA_DIR" envDefault:"data"`
	BatchSize        int           `env:"REGISTRY_BATCH_SIZE" envDefault:"500"`
	Workers          int           `env:"REGISTRY_WORKERS" envDefault:"4"`
	InternalDomain   string        `env:"REGISTRY_INTERNAL_DOMAIN" envDefault:"fieo.org"`
	AdminEmail       string        `env:"REGISTRY_ADMIN_EMAIL" envDefault:"admin@fieo.org"`
	DefaultPassword  string        `env:"REGISTRY_DEFAULT_PASSWORD" envDefault:"password"`
	DefaultCountry   string        `env:"REGISTRY_DEFAULT_COUNTRY" envDefault:"India"`
	BcryptCost       int           `env:"REGISTRY_BCRYPT_COST" envDefault:"10"`
	MaxReportedSkips int           `env:"REGISTRY_MAX_REPORTED_SKIPS" envDefault:"1000"`
	StageTimeout     time.Duration `env:"REGISTRY_STAGE_TIMEOUT" envDefault:"10m"`
}

func (r *RegistryOptions) Validate() error {
	if r.BatchSize <= 0 {
		return fmt.Errorf("REGISTRY_BATCH_SIZE must be positive, got %d", r.BatchSize)
	}
	if r.Workers <= 0 {
		return fmt.Errorf("REGISTRY_WORKERS must be positive, got %d", r.Workers)
	}
	if r.BcryptCost < bcrypt.MinCost || r.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("REGISTRY_BCRYPT_COST must be within [%d, %d], got %d", bcrypt.MinCost, bcrypt.MaxCost, r.BcryptCost)
	}
	if r.MaxReportedSkips < 0 {
		return fmt.Errorf("REGISTRY_MAX_REPORTED_SKIPS must be non-negative, got %d", r.MaxReportedSkips)
	}
	if r.StageTimeout <= 0 {
		return fmt.Errorf("REGISTRY_STAGE_TIMEOUT must be positive, got %s", r.StageTimeout)
	}
	if strings.TrimSpace(r.DefaultPassword) == "" {
		return fmt.Errorf("REGISTRY_DEFAULT_PASSWORD must not be empty")
	}
	if len(r.DefaultPassword) > maxPasswordBytes {
		return fmt.Errorf("REGISTRY_DEFAULT_PASSWORD must be at most %d bytes, got %d", maxPasswordBytes, len(r.DefaultPassword))
	}
	r.InternalDomain = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(r.InternalDomain), "@"))
	r.AdminEmail = strings.ToLower(strings.TrimSpace(r.AdminEmail))
	return nil
}

type Configuration struct {
	Database   DatabaseOptions
	Log        LogOptions
	Prometheus PrometheusOptions
	Registry   RegistryOptions

	MigrationsTable string `env:"MIGRATIONS_TABLE" envDefault:"goose_db_version"`

	logFile *os.File
	logger  *logrus.Logger
}

func (c *Configuration) Logger() *logrus.Logger {
	return c.logger
}

func (c *Configuration) LogrusLogLevel() logrus.Level {
	switch c.Log.Level {
	case "silent":
		return logrus.PanicLevel
	case "error":
		return logrus.ErrorLevel
	case "warn":
		return logrus.WarnLevel
	case "info":
		return logrus.InfoLevel
	case "debug":
		return logrus.DebugLevel
	default:
		return logrus.InfoLevel
	}
}

func Use() *Configuration {
	return singleton()
}

func (c *Configuration) load(envFiles []string) error {
	n, err := LoadEnv(envFiles)
	if err != nil {
		return err
	}
	if n == 0 {
		wd, _ := os.Getwd()
		log.Println("No .env files found. Tried:")
		for _, file := range envFiles {
			log.Println(filepath.Join(wd, file))
		}
	}
	if err := env.Parse(c); err != nil {
		return err
	}
	if err := c.Registry.Validate(); err != nil {
		return fmt.Errorf("registry configuration error: %w", err)
	}

	f, logger, err := logging.FileLogger(c.LogrusLogLevel(), c.Log.Path)
	if err != nil {
		return err
	}
	c.logFile = f
	c.logger = logger

	c.Database.Opts = c.Database.ConnectionString()
	return nil
}

// Unload handles a graceful shutdown.
func (c *Configuration) Unload() {
	if c.logFile != nil {
		if err := c.logFile.Close(); err != nil {
			log.Printf("Failed to close log file: %v", err)
		}
	}
}
