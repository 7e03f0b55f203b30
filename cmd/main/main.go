package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/mattn/go-sqlite3"
	"github.com/neurosnap/sentences/english"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/RichardKnop/ragchat"
	"github.com/RichardKnop/ragchat/adapter/extract"
	"github.com/RichardKnop/ragchat/adapter/filestorage"
	"github.com/RichardKnop/ragchat/adapter/googlegenai"
	"github.com/RichardKnop/ragchat/adapter/ollama"
	redisAdapter "github.com/RichardKnop/ragchat/adapter/redis"
	"github.com/RichardKnop/ragchat/adapter/rest"
	"github.com/RichardKnop/ragchat/adapter/store"
	weaviateAdapter "github.com/RichardKnop/ragchat/adapter/weaviate"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal("fatal error config file: ", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("logger: ", err)
	}
	defer logger.Sync()

	// Sentence tokenizer used to chunk extracted text
	tokenizer, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		logger.Sugar().Fatalf("sentence tokenizer: %v", err)
	}

	// Connect to the database
	logger.Sugar().Infof("connecting to db: %s", viper.GetString("db.name"))
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=rwc&cache=shared", viper.GetString("db.name")))
	if err != nil {
		logger.Sugar().Fatalf("db open: %v", err)
	}
	if err := db.Ping(); err != nil {
		logger.Sugar().Fatalf("db ping: %v", err)
	}

	// Run db migrations
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		logger.Sugar().Fatalf("migration driver: %v", err)
	}
	m, err := migrate.NewWithDatabaseInstance(
		"file://"+viper.GetString("db.migrations"),
		"sqlite3", driver)
	if err != nil {
		logger.Sugar().Fatalf("migrations: %v", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Sugar().Fatalf("migrations up: %v", err)
	}

	// Extractor
	extractor := extract.New(extract.WithLogger(logger))

	// Embedder
	var embedder ragchat.Embedder
	switch name := viper.GetString("adapter.embed.name"); name {
	case "google-genai":
		logger.Sugar().Info("embed adapter: google-genai")
		// The client gets the API key from the environment variable `GEMINI_API_KEY`.
		genaiClient, err := genai.NewClient(ctx, nil)
		if err != nil {
			logger.Sugar().Fatalf("genai client: %v", err)
		}
		embedder = googlegenai.New(
			genaiClient,
			googlegenai.WithEmbeddingModel(viper.GetString("adapter.embed.model")),
			googlegenai.WithLogger(logger),
		)
	case "ollama":
		logger.Sugar().Info("embed adapter: ollama")
		embedder = ollama.New(
			ollama.WithBaseURL(viper.GetString("ollama.addr")),
			ollama.WithEmbeddingModel(viper.GetString("adapter.embed.model")),
			ollama.WithLogger(logger),
		)
	default:
		logger.Sugar().Fatalf("unknown embed adapter: %s", name)
	}

	// Generative model
	var generative ragchat.GenerativeModel
	switch name := viper.GetString("adapter.generative.name"); name {
	case "google-genai":
		logger.Sugar().Info("generative adapter: google-genai")
		genaiClient, err := genai.NewClient(ctx, nil)
		if err != nil {
			logger.Sugar().Fatalf("genai client: %v", err)
		}
		generative = googlegenai.New(
			genaiClient,
			googlegenai.WithGenerativeModel(viper.GetString("adapter.generative.model")),
			googlegenai.WithLogger(logger),
		)
	case "ollama":
		logger.Sugar().Info("generative adapter: ollama")
		generative = ollama.New(
			ollama.WithBaseURL(viper.GetString("ollama.addr")),
			ollama.WithGenerativeModel(viper.GetString("adapter.generative.model")),
			ollama.WithLogger(logger),
		)
	default:
		logger.Sugar().Fatalf("unknown generative adapter: %s", name)
	}

	// Retriever
	var retriever ragchat.Retriever
	switch name := viper.GetString("adapter.retrieve.name"); name {
	case "weaviate":
		logger.Sugar().Info("retrieve adapter: weaviate")
		wvClient, err := weaviate.NewClient(weaviate.Config{
			Host:   viper.GetString("weaviate.addr"),
			Scheme: "http",
		})
		if err != nil {
			logger.Sugar().Fatalf("weaviate client: %v", err)
		}
		retriever, err = weaviateAdapter.New(ctx, wvClient, weaviateAdapter.WithLogger(logger))
		if err != nil {
			logger.Sugar().Fatalf("weaviate adapter: %v", err)
		}
	case "redis":
		logger.Sugar().Info("retrieve adapter: redis")
		redisClient := goredis.NewClient(&goredis.Options{
			Addr: viper.GetString("redis.addr"),
		})
		retriever, err = redisAdapter.New(ctx, redisClient,
			redisAdapter.WithVectorDim(viper.GetInt("redis.vector_dim")),
			redisAdapter.WithLogger(logger),
		)
		if err != nil {
			logger.Sugar().Fatalf("redis adapter: %v", err)
		}
	default:
		logger.Sugar().Fatalf("unknown retrieve adapter: %s", name)
	}

	fileStorage, err := filestorage.New(
		filestorage.WithDir(viper.GetString("upload.dir")),
		filestorage.WithLogger(logger),
	)
	if err != nil {
		logger.Sugar().Fatalf("filestorage adapter: %v", err)
	}

	var (
		storeAdapter = store.New(db, store.WithLogger(logger))
		rc           = ragchat.New(
			extractor,
			embedder,
			retriever,
			generative,
			storeAdapter,
			fileStorage,
			tokenizer,
			ragchat.WithMemoryLimit(viper.GetInt("chat.memory_limit")),
			ragchat.WithSearchLimit(viper.GetInt("chat.search_limit")),
			ragchat.WithLogger(logger),
		)
		restAdapter = rest.New(rc,
			rest.WithStaticDir(viper.GetString("http.static_dir")),
			rest.WithLogger(logger),
		)
		address = viper.GetString("http.host") + ":" + viper.GetString("http.port")
	)

	httpServer := &http.Server{
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       10 * time.Second,
		Addr:              address,
		Handler:           restAdapter.Handler(),
	}

	logger.Sugar().Infof("listening on %s", address)

	go func() {
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Sugar().Fatalf("HTTP server error: %v", err)
		}
		logger.Sugar().Info("Stopped serving new connections.")
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	shutdownCtx, shutdownRelease := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownRelease()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Sugar().Fatalf("HTTP shutdown error: %v", err)
	}
	logger.Sugar().Info("Graceful shutdown complete.")
}
