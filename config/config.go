package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const configFileEnvName = "MARKETPLACE_CONFIG_FILE"

const (
	StorageBackendPostgres = "postgres"
	StorageBackendFile     = "file"
)

type storage struct {
	Backend     string `mapstructure:"backend"`
	PostgresDSN string `mapstructure:"postgres_dsn"`
	FileDir     string `mapstructure:"file_dir"`
}

type images struct {
	Dir           string `mapstructure:"dir"`
	PublicBaseURL string `mapstructure:"public_base_url"`
}

type broker struct {
	SeedBrokers        []string `mapstructure:"seed_brokers"`
	SchemaRegistryURLs []string `mapstructure:"schema_registry_urls"`
	CatalogEventsTopic string   `mapstructure:"catalog_events_topic"`
}

type Config struct {
	LogLevel       slog.Level `mapstructure:"log_level"`
	HTTPServerAddr string     `mapstructure:"http_server_addr"`
	PublicBaseURL  string     `mapstructure:"public_base_url"`
	AllowedOrigins []string   `mapstructure:"allowed_origins"`
	Storage        storage    `mapstructure:"storage"`
	Images         images     `mapstructure:"images"`
	Broker         broker     `mapstructure:"broker"`
}

func Load() Config {
	viper.SetConfigFile(getConfigFilepath())

	err := viper.ReadInConfig()
	if err != nil {
		die(err)
	}

	var cfg Config
	err = viper.UnmarshalExact(&cfg)
	if err != nil {
		die(err)
	}

	if err := cfg.validate(); err != nil {
		die(err)
	}

	return cfg
}

func (c Config) validate() error {
	switch c.Storage.Backend {
	case StorageBackendPostgres:
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf(
				"storage.postgres_dsn is required for %q backend",
				c.Storage.Backend,
			)
		}
	case StorageBackendFile:
		if c.Storage.FileDir == "" {
			return fmt.Errorf(
				"storage.file_dir is required for %q backend",
				c.Storage.Backend,
			)
		}
	default:
		return fmt.Errorf("unknown storage.backend: %q", c.Storage.Backend)
	}
	return nil
}

// EventsEnabled reports whether the catalog events producer should be
// wired; without seed brokers the application runs standalone.
func (c Config) EventsEnabled() bool {
	return len(c.Broker.SeedBrokers) != 0
}

func getConfigFilepath() string {
	cmdLine := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	arg := cmdLine.String("config", "/config.yaml", "config file")
	_ = cmdLine.Parse(os.Args[1:])
	env, ok := os.LookupEnv(configFileEnvName)
	if ok {
		return env
	}
	return *arg
}

func die(err error) {
	fmt.Printf("failed to load config file: %v\n", err)
	os.Exit(2)
}

func (c Config) Print() {
	tamplate := `
	General:
	LogLevel=%q
	HTTPServerAddr=%q
	PublicBaseURL=%q
	AllowedOrigins=%q

	Storage:
	Backend=%q
	FileDir=%q

	Images:
	Dir=%q
	PublicBaseURL=%q

	Broker:
	SeedBrokers=%q
	SchemaRegistryURLs=%q
	CatalogEventsTopic=%q

`
	fmt.Println("Loaded config:")
	fmt.Printf(
		strings.TrimLeft(tamplate, "\n"),
		c.LogLevel,
		c.HTTPServerAddr,
		c.PublicBaseURL,
		c.AllowedOrigins,
		c.Storage.Backend,
		c.Storage.FileDir,
		c.Images.Dir,
		c.Images.PublicBaseURL,
		c.Broker.SeedBrokers,
		c.Broker.SchemaRegistryURLs,
		c.Broker.CatalogEventsTopic,
	)
}
