package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/BurntSushi/toml"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"

	"censorship/pkg/censor"
	"censorship/pkg/lang"
	"censorship/pkg/moderation"
	"censorship/pkg/storage/memdb"
)

type Config struct {
	LogLevel     string   `toml:"logLevel"`
	KafkaBrokers []string `toml:"kafkaBrokers"`
	KafkaTopic   string   `toml:"kafkaTopic"`
	KafkaGroupID string   `toml:"kafkaGroupID"`

	ElasticSearchIndex string   `toml:"elasticSearchIndex"`
	ElasticSearchNodes []string `toml:"elasticSearchNodes"`

	DictionaryPath  string `toml:"dictionaryPath"`
	DefaultLanguage string `toml:"defaultLanguage"`

	NumWorkers int `toml:"numWorkers"`
}

func main() {
	var (
		configPath string
		logLevel   string
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("[moderator] shutting down gracefully...")
		cancel()
	}()

	flag.StringVar(&configPath, "config", "cmd/moderator/config.toml", "Path to TOML config file")
	flag.StringVar(&logLevel, "log", "", "Log level: debug, info, warn, error.")
	flag.Parse()

	var cfg Config
	if _, err := toml.DecodeFile(configPath, &cfg); err != nil {
		log.Fatalf("[moderator] failed to load config file %s: %v", configPath, err)
	}

	// Override config with flags if set
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	}

	var (
		cat *lang.Catalog
		err error
	)
	if cfg.DictionaryPath == "" {
		cat, err = lang.Default()
	} else {
		cat, err = lang.Load(os.DirFS(cfg.DictionaryPath))
	}
	if err != nil {
		log.Fatalf("[moderator] failed to load dictionaries: %v", err)
	}
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = cat.DefaultLanguage()
	}

	db, err := memdb.New(cat)
	if err != nil {
		log.Fatalf("[moderator] failed to create dictionary storage: %v", err)
	}
	cens := censor.New(db, censor.WithDefaultLanguage(cfg.DefaultLanguage))

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: cfg.ElasticSearchNodes})
	if err != nil {
		log.Fatalf("[moderator] error creating the client: %s", err)
	}

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		Topic:    cfg.KafkaTopic,
		GroupID:  cfg.KafkaGroupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})
	defer r.Close()

	svc := moderation.New(r, cens, moderation.NewElastic(es, cfg.ElasticSearchIndex), cfg.NumWorkers)
	svc.Run(ctx)
}
