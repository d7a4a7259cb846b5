package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gorilla/sessions"
	"golang.org/x/oauth2"

	"github.com/s/elearner/internal/auth"
	"github.com/s/elearner/internal/certificate"
	"github.com/s/elearner/internal/config"
	"github.com/s/elearner/internal/database"
	"github.com/s/elearner/internal/enrollment"
	"github.com/s/elearner/internal/handlers"
	"github.com/s/elearner/internal/logger"
	"github.com/s/elearner/internal/server"
)

func main() {
	// ---------------------------
	// 0. Конфигурация и логгер
	// ---------------------------
	cfg, dotenv, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	if !dotenv {
		log.Warn("no .env file loaded, using process environment")
	}

	// ---------------------------
	// 1. База данных
	// ---------------------------
	db, err := database.Connect(cfg, log)
	if err != nil {
		log.Fatal("database connection failed", "error", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatal("migration failed", "error", err)
	}
	if err := database.SeedRoles(db); err != nil {
		log.Fatal("seeding roles failed", "error", err)
	}
	if cfg.SeedDemo {
		if err := database.SeedDemo(db); err != nil {
			log.Warn("demo seed failed", "error", err)
		}
	}

	// ---------------------------
	// 2. Google OAuth (необязательно)
	// ---------------------------
	var oauthConfig *oauth2.Config
	if cfg.OAuthEnabled() {
		oauthConfig = auth.InitGoogleOAuthConfig(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
	} else {
		log.Warn("GOOGLE_* variables are not set, google login is disabled")
	}

	// ---------------------------
	// 3. Сессии
	// ---------------------------
	sessionKey, configured := cfg.SessionSecret()
	if !configured {
		log.Warn("SESSION_KEY is not set, using the development default")
	}
	store := sessions.NewCookieStore([]byte(sessionKey))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   cfg.SecureCookies,
	}

	// ---------------------------
	// 4. Хендлеры и роутер
	// ---------------------------
	engine := enrollment.New(db, log.With("component", "enrollment"), certificate.NewGenerator(cfg.CertificateIssuer))
	h := handlers.NewHandler(db, store, oauthConfig, engine, log.With("component", "http"))
	router := server.NewRouter(h)

	// ---------------------------
	// 5. Запуск сервера
	// ---------------------------
	log.Info("server started", "addr", "http://localhost:"+cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		log.Fatal("server stopped", "error", err)
	}
}
