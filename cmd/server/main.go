package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"

	"github.com/pechorka/storyvault/internal/catalog"
	"github.com/pechorka/storyvault/internal/handler"
	"github.com/pechorka/storyvault/internal/handler/mw/auth"
	"github.com/pechorka/storyvault/internal/service"
	"github.com/pechorka/storyvault/internal/storage"
	"github.com/pechorka/storyvault/pkg/autosave"
	"github.com/pechorka/storyvault/pkg/encryptor"
	"github.com/pechorka/storyvault/pkg/watcher"
)

type config struct {
	Addr            string `json:"addr"`
	Debug           bool   `json:"debug"`
	DbPath          string `json:"db_path"`
	CatalogPath     string `json:"catalog_path"`
	Secret          string `json:"secret"`
	WelcomeBonus    int64  `json:"welcome_bonus"`
	AutosaveQuietMs int64  `json:"autosave_quiet_ms"`
}

func readCfg(path string) (*config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var c config
	if err := json.NewDecoder(f).Decode(&c); err != nil {
		return nil, err
	}
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.DbPath == "" {
		c.DbPath = "./db.db"
	}

	return &c, nil
}

func main() {
	if err := run(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := "./cfg.json"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}
	cfg, err := readCfg(cfgPath)
	if err != nil {
		return err
	}

	var store *storage.Storage
	if cfg.Debug {
		store, err = storage.NewTempStorage()
	} else {
		store, err = storage.NewStorage(cfg.DbPath)
	}
	if err != nil {
		return err
	}
	defer store.Close()

	svcCfg := service.Config{
		Storage:      store,
		WelcomeBonus: cfg.WelcomeBonus,
	}
	if cfg.CatalogPath != "" {
		cat := catalog.New()
		catalogWatcher, err := watcher.LoadAndWatch(cfg.CatalogPath, cat)
		if err != nil {
			return errors.Wrap(err, "load catalog")
		}
		defer catalogWatcher.Close()
		svcCfg.Catalog = cat
	} else {
		log.Println("no catalog configured, featured content disabled")
	}
	if cfg.Secret != "" {
		svcCfg.Encryptor = encryptor.NewEncryptor(cfg.Secret)
	}

	svc := service.NewService(svcCfg)

	saver := autosave.NewSaver(time.Duration(cfg.AutosaveQuietMs)*time.Millisecond, svc.EditChapter)
	saver.Run()

	handlers := handler.NewHandlers(svc, saver)
	authMW := auth.NewAuthMW(svc)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	handlers.RegisterPublic(r)
	r.Group(func(r chi.Router) {
		r.Use(authMW.Auth)
		handlers.Register(r)
	})

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: r,
	}
	go func() {
		log.Printf("listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("server stopped: %v", err)
		}
	}()

	terminate := make(chan os.Signal, 1)
	signal.Notify(terminate, syscall.SIGINT, syscall.SIGTERM)

	<-terminate

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	saver.Stop()

	return nil
}
