package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"slices"
	"time"

	"routeopt/internal/pkg/errs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Roles a process can run. A deployment usually runs api and router on the
// service hosts and worker plus autoscaler on the worker hosts.
const (
	RoleAPI        = "api"
	RoleWorker     = "worker"
	RoleRouter     = "router"
	RoleAutoscaler = "autoscaler"
	RoleReaper     = "reaper"
)

var knownRoles = []string{RoleAPI, RoleWorker, RoleRouter, RoleAutoscaler, RoleReaper}

const (
	RoutingStraightLine = "straightline"
	RoutingOSRM         = "osrm"
)

type Config struct {
	Roles    []string   `env:"APP_ROLES" envSeparator:"," envDefault:"api,worker,router,autoscaler,reaper"`
	HTTPPort string     `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`

	DB         DBConfig         `envPrefix:"DB_"`
	Redis      RedisConfig      `envPrefix:"REDIS_"`
	NATS       NATSConfig       `envPrefix:"NATS_"`
	Queue      QueueConfig      `envPrefix:"QUEUE_"`
	Worker     WorkerConfig     `envPrefix:"WORKER_"`
	Autoscaler AutoscalerConfig `envPrefix:"AUTOSCALER_"`
	Router     RouterConfig     `envPrefix:"ROUTER_"`
	Reaper     ReaperConfig     `envPrefix:"REAPER_"`
	Routing    RoutingConfig    `envPrefix:"ROUTING_"`
}

type DBConfig struct {
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     string `env:"PORT" envDefault:"5432"`
	User     string `env:"USER" envDefault:"postgres"`
	Password string `env:"PASSWORD"`
	Name     string `env:"NAME" envDefault:"routeopt"`
	SslMode  string `env:"SSLMODE" envDefault:"disable"`
}

// DSN is the libpq connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SslMode)
}

type RedisConfig struct {
	Addrs    []string `env:"ADDRS" envSeparator:"," envDefault:"localhost:6379"`
	Password string   `env:"PASSWORD"`
	DB       int      `env:"DB" envDefault:"0"`
}

type NATSConfig struct {
	URL  string `env:"URL" envDefault:"nats://localhost:4222"`
	Name string `env:"CLIENT_NAME" envDefault:"routeopt"`

	Stream          string        `env:"STREAM" envDefault:"OPTIMIZATION_EVENTS"`
	StreamMaxAge    time.Duration `env:"STREAM_MAX_AGE" envDefault:"168h"`
	DuplicateWindow time.Duration `env:"DUPLICATE_WINDOW" envDefault:"2m"`
	Replicas        int           `env:"STREAM_REPLICAS" envDefault:"1"`
}

type QueueConfig struct {
	Name              string        `env:"NAME" envDefault:"optimization"`
	VisibilityTimeout time.Duration `env:"VISIBILITY_TIMEOUT" envDefault:"1h"`
	MaxReceiveCount   int64         `env:"MAX_RECEIVE_COUNT" envDefault:"3"`
}

type WorkerConfig struct {
	// Capacity is the pool size at start. The autoscaler moves it from there.
	Capacity       int           `env:"CAPACITY" envDefault:"1"`
	IdleWait       time.Duration `env:"IDLE_WAIT" envDefault:"1s"`
	LeaseExtension time.Duration `env:"LEASE_EXTENSION" envDefault:"0s"`
	SpeedKmh       float64       `env:"SPEED_KMH" envDefault:"40"`
	LogRegion      string        `env:"LOG_REGION"`
	LogGroup       string        `env:"LOG_GROUP"`
}

type AutoscalerConfig struct {
	SampleInterval   time.Duration `env:"SAMPLE_INTERVAL" envDefault:"10s"`
	ScaleOutInterval time.Duration `env:"SCALE_OUT_INTERVAL" envDefault:"60s"`
	ScaleInInterval  time.Duration `env:"SCALE_IN_INTERVAL" envDefault:"60s"`
	ScaleOutCooldown time.Duration `env:"SCALE_OUT_COOLDOWN" envDefault:"300s"`
	ScaleInCooldown  time.Duration `env:"SCALE_IN_COOLDOWN" envDefault:"300s"`
	MinCapacity      int           `env:"MIN_CAPACITY" envDefault:"0"`
	MaxCapacity      int           `env:"MAX_CAPACITY" envDefault:"100"`
}

type RouterConfig struct {
	Durable         string        `env:"DURABLE" envDefault:"status-updater"`
	BatchSize       int           `env:"BATCH_SIZE" envDefault:"64"`
	Concurrency     int           `env:"CONCURRENCY" envDefault:"8"`
	AckWait         time.Duration `env:"ACK_WAIT" envDefault:"30s"`
	MaxAge          time.Duration `env:"EVENT_MAX_AGE" envDefault:"1h"`
	Attempts        int           `env:"RETRY_ATTEMPTS" envDefault:"5"`
	InitialInterval time.Duration `env:"RETRY_INITIAL_INTERVAL" envDefault:"1s"`
	MaxInterval     time.Duration `env:"RETRY_MAX_INTERVAL" envDefault:"1m"`
}

type ReaperConfig struct {
	Threshold time.Duration `env:"THRESHOLD" envDefault:"15m"`
	Interval  time.Duration `env:"INTERVAL" envDefault:"5m"`
}

type RoutingConfig struct {
	Provider string        `env:"PROVIDER" envDefault:"straightline"`
	OSRMURL  string        `env:"OSRM_URL"`
	Profile  string        `env:"OSRM_PROFILE" envDefault:"driving"`
	Timeout  time.Duration `env:"TIMEOUT" envDefault:"10s"`
	SpeedKmh float64       `env:"SPEED_KMH" envDefault:"40"`
}

// LoadConfig reads .env when present, then the environment.
func LoadConfig(filenames ...string) (Config, error) {
	if err := godotenv.Load(filenames...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	if err = cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Has reports whether the process runs role.
func (c Config) Has(role string) bool {
	return slices.Contains(c.Roles, role)
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var problems []error

	if len(c.Roles) == 0 {
		problems = append(problems, errs.NewValueIsRequiredError("APP_ROLES"))
	}
	for _, role := range c.Roles {
		if !slices.Contains(knownRoles, role) {
			problems = append(problems, errs.NewValueIsInvalidErrorWithCause(
				"APP_ROLES", fmt.Errorf("unknown role %q", role)))
		}
	}
	if c.Has(RoleAutoscaler) && !c.Has(RoleWorker) {
		problems = append(problems, errs.NewValueIsInvalidErrorWithCause(
			"APP_ROLES", errors.New("autoscaler resizes the local worker pool and needs the worker role")))
	}
	if c.Has(RoleAPI) && c.HTTPPort == "" {
		problems = append(problems, errs.NewValueIsRequiredError("HTTP_PORT"))
	}

	if c.Queue.VisibilityTimeout <= 0 {
		problems = append(problems, errs.NewValueIsOutOfRangeError(
			"QUEUE_VISIBILITY_TIMEOUT", c.Queue.VisibilityTimeout, "1s", "-"))
	}
	if c.Queue.MaxReceiveCount < 1 {
		problems = append(problems, errs.NewValueIsOutOfRangeError(
			"QUEUE_MAX_RECEIVE_COUNT", c.Queue.MaxReceiveCount, 1, "-"))
	}

	a := c.Autoscaler
	if a.MinCapacity < 0 || a.MaxCapacity < a.MinCapacity {
		problems = append(problems, errs.NewValueIsOutOfRangeError(
			"AUTOSCALER_MAX_CAPACITY", a.MaxCapacity, a.MinCapacity, "-"))
	}
	for name, d := range map[string]time.Duration{
		"AUTOSCALER_SAMPLE_INTERVAL":    a.SampleInterval,
		"AUTOSCALER_SCALE_OUT_INTERVAL": a.ScaleOutInterval,
		"AUTOSCALER_SCALE_IN_INTERVAL":  a.ScaleInInterval,
		"REAPER_THRESHOLD":              c.Reaper.Threshold,
		"REAPER_INTERVAL":               c.Reaper.Interval,
		"ROUTER_EVENT_MAX_AGE":          c.Router.MaxAge,
		"ROUTER_ACK_WAIT":               c.Router.AckWait,
		"NATS_STREAM_MAX_AGE":           c.NATS.StreamMaxAge,
		"NATS_DUPLICATE_WINDOW":         c.NATS.DuplicateWindow,
	} {
		if d <= 0 {
			problems = append(problems, errs.NewValueIsOutOfRangeError(name, d, "1s", "-"))
		}
	}
	for name, d := range map[string]time.Duration{
		"AUTOSCALER_SCALE_OUT_COOLDOWN": a.ScaleOutCooldown,
		"AUTOSCALER_SCALE_IN_COOLDOWN":  a.ScaleInCooldown,
	} {
		if d < 0 {
			problems = append(problems, errs.NewValueIsOutOfRangeError(name, d, "0s", "-"))
		}
	}
	if c.Worker.Capacity < 0 {
		problems = append(problems, errs.NewValueIsOutOfRangeError("WORKER_CAPACITY", c.Worker.Capacity, 0, "-"))
	}
	if c.Router.BatchSize < 1 {
		problems = append(problems, errs.NewValueIsOutOfRangeError("ROUTER_BATCH_SIZE", c.Router.BatchSize, 1, "-"))
	}
	if c.Router.Concurrency < 1 {
		problems = append(problems, errs.NewValueIsOutOfRangeError("ROUTER_CONCURRENCY", c.Router.Concurrency, 1, "-"))
	}
	if c.NATS.Stream == "" {
		problems = append(problems, errs.NewValueIsRequiredError("NATS_STREAM"))
	}
	if c.Router.Attempts < 1 {
		problems = append(problems, errs.NewValueIsOutOfRangeError("ROUTER_RETRY_ATTEMPTS", c.Router.Attempts, 1, "-"))
	}

	switch c.Routing.Provider {
	case RoutingStraightLine:
	case RoutingOSRM:
		if c.Routing.OSRMURL == "" {
			problems = append(problems, errs.NewValueIsRequiredError("ROUTING_OSRM_URL"))
		}
	default:
		problems = append(problems, errs.NewValueIsInvalidErrorWithCause(
			"ROUTING_PROVIDER", fmt.Errorf("unknown provider %q", c.Routing.Provider)))
	}

	return errors.Join(problems...)
}
