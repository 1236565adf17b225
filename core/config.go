package core

import (
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Env          string
		Build        string
		AppName      string
		Debug        bool
		TestMode     bool
		LogLevel     string
		RollbarToken string

		Server struct {
			Host            string
			DebugHost       string
			ShutdownTimeout time.Duration
		}

		Database struct {
			Engine     string // sqlite | postgres
			Path       string // sqlite only
			Host       string
			Port       string
			Name       string
			User       string
			Password   string
			DisableTLS bool
		}

		Scheduler struct {
			OverdueSpec string
		}

		Watch struct {
			PollInterval time.Duration
		}

		Assignments struct {
			DueSoonDays int
		}
	}
)

const (
	EngineSQLite   = "sqlite"
	EnginePostgres = "postgres"
)

func (c *Config) IsSQLite() bool {
	return c.Database.Engine == "" || c.Database.Engine == EngineSQLite
}

func (c *Config) IsPostgres() bool {
	return c.Database.Engine == EnginePostgres
}

// Address returns the "host:port" of the PostgreSQL server.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Database.Host, c.Database.Port)
}

func setDefaults(conf *viper.Viper) {
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("appName", "UniTrack")
	conf.SetDefault("build", "dev")

	conf.SetDefault("server.host", ":8000")
	conf.SetDefault("server.debugHost", ":8001")
	conf.SetDefault("server.shutdownTimeout", 5*time.Second)

	conf.SetDefault("database.engine", EngineSQLite)
	conf.SetDefault("database.path", "unitrack.db")
	conf.SetDefault("database.host", "localhost")
	conf.SetDefault("database.port", "5432")
	conf.SetDefault("database.name", "unitrack")
	conf.SetDefault("database.user", "")
	conf.SetDefault("database.password", "")
	conf.SetDefault("database.disableTLS", true)

	conf.SetDefault("logLevel", "debug")
	conf.SetDefault("rollbarToken", "")
	conf.SetDefault("scheduler.overdueSpec", "@every 15m")
	conf.SetDefault("watch.pollInterval", 30*time.Second)
	conf.SetDefault("assignments.dueSoonDays", 7)
}

// NewConfig loads the configuration from the environment (prefixed with the current ENV)
// and from the optional `config/.env.<env>` file.
func NewConfig() *Config {
	conf := viper.New()
	setDefaults(conf)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
		conf.SetDefault("database.path", ":memory:")
	}
	conf.SetEnvPrefix(env)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	c := &Config{
		Env:          env,
		Build:        conf.GetString("build"),
		AppName:      conf.GetString("appName"),
		Debug:        conf.GetBool("debug"),
		TestMode:     conf.GetBool("testMode"),
		LogLevel:     conf.GetString("logLevel"),
		RollbarToken: conf.GetString("rollbarToken"),
	}
	c.Server.Host = conf.GetString("server.host")
	c.Server.DebugHost = conf.GetString("server.debugHost")
	c.Server.ShutdownTimeout = conf.GetDuration("server.shutdownTimeout")

	c.Database.Engine = strings.ToLower(conf.GetString("database.engine"))
	c.Database.Path = conf.GetString("database.path")
	c.Database.Host = conf.GetString("database.host")
	c.Database.Port = conf.GetString("database.port")
	c.Database.Name = conf.GetString("database.name")
	c.Database.User = conf.GetString("database.user")
	c.Database.Password = conf.GetString("database.password")
	c.Database.DisableTLS = conf.GetBool("database.disableTLS")

	c.Scheduler.OverdueSpec = conf.GetString("scheduler.overdueSpec")
	c.Watch.PollInterval = conf.GetDuration("watch.pollInterval")
	c.Assignments.DueSoonDays = conf.GetInt("assignments.dueSoonDays")
	return c
}

// NewTestConfig returns a Config pointing to a private in-memory SQLite database.
func NewTestConfig() *Config {
	c := &Config{Env: "TEST", AppName: "UniTrack", Build: "test", Debug: true, TestMode: true, LogLevel: "error"}
	c.Server.ShutdownTimeout = time.Second
	c.Database.Engine = EngineSQLite
	c.Database.Path = ":memory:"
	c.Scheduler.OverdueSpec = "@every 15m"
	c.Watch.PollInterval = 50 * time.Millisecond
	c.Assignments.DueSoonDays = 7
	return c
}

func (c *Config) String() string {
	return fmt.Sprintf("%s[%s] env=%s db=%s", c.AppName, c.Build, c.Env, c.Database.Engine)
}
