package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"

	"censorship/pkg/api"
	"censorship/pkg/cache"
	"censorship/pkg/censor"
	"censorship/pkg/lang"
	"censorship/pkg/storage"
	"censorship/pkg/storage/memdb"
	"censorship/pkg/storage/postgres"
)

type Config struct {
	ServiceName string `toml:"serviceName"`
	HTTPAddr    string `toml:"httpAddr"`
	LogLevel    string `toml:"logLevel"`

	// DictionaryPath is a directory with defaults.toml and one file per
	// language. Empty selects the dictionaries built into the binary.
	DictionaryPath  string `toml:"dictionaryPath"`
	DefaultLanguage string `toml:"defaultLanguage"`
	Mask            string `toml:"mask"`
	HexMinLength    int    `toml:"hexMinLength"`

	// Storage is "memory" or "postgres".
	Storage string `toml:"storage"`

	RedisAddr     string `toml:"redisAddr"`
	RedisDB       int    `toml:"redisDB"`
	CacheIndexKey string `toml:"cacheIndexKey"`

	KafkaAddr  string `toml:"kafkaAddr"`
	KafkaTopic string `toml:"kafkaTopic"`
	KafkaBatch int    `toml:"kafkaBatch"`
}

func main() {
	var (
		configPath string
		httpAddr   string
		logLevel   string
		kafkaAddr  string
		kafkaTopic string
		kafkaBatch int
		language   string
		dictPath   string
	)

	flag.StringVar(&configPath, "servconf", "cmd/server/config.toml", "Path to TOML config file")
	flag.StringVar(&httpAddr, "http", "", "HTTP server address in the form 'host:port'.")
	flag.StringVar(&logLevel, "log", "", "Log level: debug, info, warn, error.")
	flag.StringVar(&kafkaAddr, "kafka", "", "Kafka server address in the form 'host:port'.")
	flag.StringVar(&kafkaTopic, "topic", "", "Kafka topic.")
	flag.IntVar(&kafkaBatch, "batch", 0, "Kafka batch size.")
	flag.StringVar(&language, "lang", "", "Default dictionary language.")
	flag.StringVar(&dictPath, "dict", "", "Directory with dictionary TOML files.")
	flag.Parse()

	var cfg Config
	if _, err := toml.DecodeFile(configPath, &cfg); err != nil {
		log.Fatalf("[server] failed to load config file %s: %v", configPath, err)
	}

	// Override config with flags if set
	if httpAddr != "" {
		cfg.HTTPAddr = httpAddr
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if kafkaAddr != "" {
		cfg.KafkaAddr = kafkaAddr
	}
	if kafkaTopic != "" {
		cfg.KafkaTopic = kafkaTopic
	}
	if kafkaBatch != 0 {
		cfg.KafkaBatch = kafkaBatch
	}
	if language != "" {
		cfg.DefaultLanguage = language
	}
	if dictPath != "" {
		cfg.DictionaryPath = dictPath
	}

	if !strings.Contains(cfg.HTTPAddr, ":") {
		log.Warn("[server] use ':' before port number, e.g. ':8080'")
	}
	setLogLevel(cfg.LogLevel)

	cat, err := loadCatalog(cfg.DictionaryPath)
	if err != nil {
		log.Fatalf("[server] failed to load dictionaries: %v", err)
	}
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = cat.DefaultLanguage()
	}
	if _, err := cat.Resolve(cfg.DefaultLanguage); err != nil {
		log.Fatalf("[server] invalid default language: %v", err)
	}

	ctx := context.Background()
	db, closeDB := openStorage(ctx, cfg.Storage, cat)
	defer closeDB()

	opts := []censor.Option{
		censor.WithDefaultLanguage(cfg.DefaultLanguage),
		censor.WithHexMinLength(cfg.HexMinLength),
	}
	if r := []rune(cfg.Mask); len(r) == 1 {
		opts = append(opts, censor.WithMask(r[0]))
	}
	if store := openCache(ctx, cfg); store != nil {
		defer store.Close()
		opts = append(opts, censor.WithStore(store, cfg.CacheIndexKey))
	}
	cens := censor.New(db, opts...)

	// Compile the default dictionary before accepting requests.
	if _, err := cens.Checker(ctx, cfg.DefaultLanguage); err != nil {
		log.Fatalf("[server] failed to compile %s dictionary: %v", cfg.DefaultLanguage, err)
	}

	var kafkaWriter *kafka.Writer
	if cfg.KafkaAddr != "" && cfg.KafkaTopic != "" {
		kafkaWriter = &kafka.Writer{
			Addr:      kafka.TCP(cfg.KafkaAddr),
			Topic:     cfg.KafkaTopic,
			BatchSize: cfg.KafkaBatch,
		}
		defer kafkaWriter.Close()
		err := createTopic(kafkaWriter.Addr.String(), kafkaWriter.Topic)
		if err != nil {
			log.Warnf("[server] failed to create Kafka topic: %v", err)
		}
	} else {
		log.Warnf("[server] kafka was not configured, logs will not be sent to Kafka")
	}

	api := api.New(cfg.ServiceName, cens, db, kafkaWriter)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("[server] starting on port %v", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[server] failed to start: %v", err)
			return
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	shutdownCtx, shutdownRelease := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownRelease()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("[server] HTTP server shutdown error: %v", err)
	} else {
		log.Info("[server] HTTP server shut down gracefully")
	}
}

func setLogLevel(level string) {
	switch strings.ToLower(level) {
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	}
}

func loadCatalog(path string) (*lang.Catalog, error) {
	if path == "" {
		return lang.Default()
	}
	return lang.Load(os.DirFS(path))
}

// openStorage falls back to the in-memory store when Postgres is not
// configured.
func openStorage(ctx context.Context, kind string, cat *lang.Catalog) (storage.Storage, func()) {
	if kind == "postgres" {
		conf := postgres.ConfigFromEnv()
		if !conf.IsValid() {
			log.Fatalf("[server] invalid postgres config: %v", conf)
		}
		db, err := postgres.New(ctx, conf.ConString(), cat)
		if err != nil {
			log.Fatalf("[server] %v: %v", storage.ErrConnectDB, err)
		}
		if err := db.Ping(ctx); err != nil {
			log.Fatalf("[server] %v: %v", storage.ErrDBNotResponding, err)
		}
		if err := db.Init(ctx); err != nil {
			log.Fatalf("[server] failed to create schema: %v", err)
		}
		log.Info("[server] using postgres dictionary storage")
		return db, db.Close
	}

	db, err := memdb.New(cat)
	if err != nil {
		log.Fatalf("[server] failed to create memory storage: %v", err)
	}
	log.Info("[server] using in-memory dictionary storage")
	return db, func() {}
}

// openCache returns nil when Redis is not configured or unreachable; the
// censor then compiles patterns in process only. REDIS_ADDR overrides the
// address from the config file.
func openCache(ctx context.Context, cfg Config) *cache.Redis {
	rc, err := cache.NewRedisConfig()
	if err != nil {
		if cfg.RedisAddr == "" {
			log.Warn("[server] redis was not configured, compiled patterns will not be shared")
			return nil
		}
		rc = &cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Username: os.Getenv("REDIS_USER"),
			Password: os.Getenv("REDIS_PASSWORD"),
		}
	}
	rc.DB = cfg.RedisDB

	store, err := cache.NewRedis(ctx, *rc)
	if err != nil {
		log.Warnf("[server] redis unavailable at %s, compiled patterns will not be shared: %v", rc.Addr, err)
		return nil
	}
	log.Debugf("[server] caching compiled patterns in redis %v", rc)
	return store
}

func createTopic(broker, topic string) error {
	conn, err := kafka.DialContext(context.Background(), "tcp", broker)
	if err != nil {
		return err
	}
	defer conn.Close()

	return conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
}
