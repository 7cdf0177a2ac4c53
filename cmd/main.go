package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/Denis-Leo777/Google-AI-sub000/internal/ai"
	"github.com/Denis-Leo777/Google-AI-sub000/internal/answer"
	"github.com/Denis-Leo777/Google-AI-sub000/internal/bot"
	"github.com/Denis-Leo777/Google-AI-sub000/internal/config"
	"github.com/Denis-Leo777/Google-AI-sub000/internal/extract"
	"github.com/Denis-Leo777/Google-AI-sub000/internal/history"
	"github.com/Denis-Leo777/Google-AI-sub000/internal/observability"
	"github.com/Denis-Leo777/Google-AI-sub000/internal/search"
	"github.com/Denis-Leo777/Google-AI-sub000/internal/users"
)

func main() {
	envFile := pflag.String("env-file", ".env", "dotenv file loaded before reading the environment")
	webhook := pflag.Bool("webhook", false, "receive updates through a webhook instead of long polling (overrides USE_WEBHOOK)")
	pflag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("env file %s: %v", *envFile, err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if pflag.CommandLine.Changed("webhook") {
		cfg.UseWebhook = *webhook
		if err := cfg.Validate(); err != nil {
			log.Fatalf("config error: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Users ---
	dbCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	userRepo, err := users.NewRepo(dbCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("users repo error: %v", err)
	}
	defer userRepo.Close()

	// --- Telegram ---
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		log.Fatalf("telegram error: %v", err)
	}
	telegram := bot.NewTelegramOutbound(api)

	// --- Core wiring ---
	metrics := observability.NewMetrics(cfg.MetricsNamespace)
	aiCfg := ai.Config{
		APIKey:      cfg.OpenAIAPIKey,
		BaseURL:     cfg.OpenAIBaseURL,
		Model:       cfg.OpenAIModel,
		VisionModel: cfg.OpenAIVisionModel,
		Temperature: cfg.Temperature,
	}

	generator := answer.NewGenerator(
		history.NewMemoryStore(),
		history.NewLocker(),
		ai.NewOpenAIClient(aiCfg),
		answer.WithSystemPrompt(cfg.SystemPrompt),
		answer.WithMetrics(metrics),
	)

	var searcher search.Searcher
	if cfg.SearchEnabled() {
		searcher = search.NewGoogleClient(cfg.SearchAPIKey, cfg.SearchCX)
	}

	svc := bot.NewService(bot.Deps{
		Generator: generator,
		Extractor: extract.NewExtractor(ai.NewVisionRecognizer(aiCfg), cfg.MaxAttachmentBytes),
		Fetcher:   telegram,
		Users:     userRepo,
		Searcher:  searcher,
		AdminID:   cfg.AdminID,
		Metrics:   metrics,
	})
	handler := bot.NewHandler(svc, telegram)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Telegram-Bot-Api-Secret-Token"},
	}))

	if cfg.UseWebhook {
		bot.RegisterRoutes(r, cfg.WebhookPath(), handler)
	}

	// --- health ---
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		log.Printf("listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	if cfg.UseWebhook {
		if err := bot.SetWebhook(api, cfg.WebhookURL+cfg.WebhookPath()); err != nil {
			log.Fatalf("webhook error: %v", err)
		}
		log.Printf("webhook registered for @%s", api.Self.UserName)
		<-ctx.Done()
	} else if err := bot.RunPolling(ctx, api, handler); err != nil {
		log.Fatalf("polling error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
	if err := handler.Wait(shutdownCtx); err != nil {
		log.Printf("drain error: %v", err)
	}
	log.Println("stopped")
}
