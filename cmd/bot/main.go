package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/tradewall/tradewall/internal/domain"
	"github.com/tradewall/tradewall/internal/infrastructure/feed"
	"github.com/tradewall/tradewall/internal/infrastructure/logger"
	"github.com/tradewall/tradewall/internal/infrastructure/notify"
	"github.com/tradewall/tradewall/internal/infrastructure/storage"
	"github.com/tradewall/tradewall/internal/usecase"
	"github.com/tradewall/tradewall/internal/web"
)

type Config struct {
	Feed struct {
		WSURL   string `yaml:"ws_url"`
		Symbols []struct {
			Symbol string `yaml:"symbol"`
			Name   string `yaml:"name"`
		} `yaml:"symbols"`
	} `yaml:"feed"`
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`
	Logging struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"logging"`
	Session struct {
		UserID string `yaml:"user_id"`
	} `yaml:"session"`
}

func loadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Pushover credentials come from the environment, not the config file.
	_ = godotenv.Load()

	var log *zap.Logger
	if cfg.Logging.File != "" {
		log = logger.NewFileLogger(cfg.Logging.File, cfg.Logging.Level)
	} else {
		log, err = logger.NewLogger(cfg.Logging.Level)
		if err != nil {
			fmt.Printf("Failed to init logger: %v\n", err)
			os.Exit(1)
		}
	}
	defer log.Sync()

	dbPath := cfg.Storage.Path
	if dbPath == "" {
		dbPath = "tradewall.db"
	}
	store, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		log.Fatal("Failed to init sqlite", zap.Error(err))
	}
	defer store.Close()

	pushover := notify.NewPushover(os.Getenv("PUSHOVER_API_TOKEN"), os.Getenv("PUSHOVER_USER_KEY"))

	calculator := usecase.NewHedgeCalculator()
	riskCalc := usecase.NewRiskCalculator()
	alertService := usecase.NewAlertService(store, pushover, log)
	positionService := usecase.NewPositionService(store, alertService, calculator, log)

	userID := cfg.Session.UserID
	if userID == "" {
		userID = "default"
	}
	if err := alertService.StartSession(context.Background(), userID); err != nil {
		log.Error("Failed to load alert cache", zap.Error(err))
	}

	// Seed the ticker registry from config so the watchlist survives restarts.
	symbols := make([]string, 0, len(cfg.Feed.Symbols))
	for _, sym := range cfg.Feed.Symbols {
		symbols = append(symbols, sym.Symbol)
		t := &domain.Ticker{Symbol: sym.Symbol, Name: sym.Name, UpdatedAt: time.Now()}
		if err := store.SaveTicker(context.Background(), t); err != nil {
			log.Error("Failed to seed ticker", zap.String("symbol", sym.Symbol), zap.Error(err))
		}
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	priceFeed := feed.NewBinanceFeed(cfg.Feed.WSURL, log)
	priceFeed.OnPriceUpdate(func(symbol string, price float64) {
		if err := alertService.ProcessTick(context.Background(), symbol, price); err != nil {
			log.Error("Error processing tick", zap.Error(err))
		}
	})
	if err := priceFeed.Subscribe(symbols); err != nil {
		log.Error("Failed to subscribe", zap.Error(err))
	}
	if err := priceFeed.Connect(); err != nil {
		log.Error("Failed to connect price feed", zap.Error(err))
	}

	// Flush last seen prices back to the ticker registry periodically so a
	// fresh process starts with recent values instead of zeros.
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ctx := context.Background()
				for _, sym := range cfg.Feed.Symbols {
					price := alertService.LatestPrice(sym.Symbol)
					if price == 0 {
						continue
					}
					t := &domain.Ticker{Symbol: sym.Symbol, Name: sym.Name, LastPrice: price, UpdatedAt: time.Now()}
					if err := store.SaveTicker(ctx, t); err != nil {
						log.Error("Failed to save ticker", zap.String("symbol", sym.Symbol), zap.Error(err))
					}
				}
			case <-stop:
				return
			}
		}
	}()

	port := cfg.Server.Port
	if port == 0 {
		port = 8080
	}
	server := web.NewServer(port, userID, positionService, alertService, calculator, riskCalc, store, log)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-stop

	log.Info("Shutting down...")
	priceFeed.Close()
	server.Shutdown(context.Background())
}
