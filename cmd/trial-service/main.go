package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clinsim-ai/trialsim/pkg/common/config"
	"github.com/clinsim-ai/trialsim/pkg/common/database"
	"github.com/clinsim-ai/trialsim/pkg/common/kafka"
	"github.com/clinsim-ai/trialsim/pkg/common/logger"
	"github.com/clinsim-ai/trialsim/pkg/designer"
	"github.com/clinsim-ai/trialsim/pkg/simulator"
	"github.com/clinsim-ai/trialsim/pkg/trials"
	"github.com/gorilla/mux"
)

func main() {
	logger.Init()
	cfg := config.Load()

	db, err := database.GetPostgres()
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to connect to postgres")
	}

	repo := trials.NewRepository(db)
	if err := repo.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("failed to migrate trial tables")
	}

	vocab, err := simulator.Load(cfg.VocabPath)
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to load vocabulary")
	}

	patients := simulator.NewPatientSimulator(vocab, cfg.SimulatorSeed)
	trial := simulator.NewTrialSimulator(vocab, cfg.SimulatorSeed)
	trialDesigner := designer.New(cfg.SimulatorSeed)

	producer := kafka.NewProducer("trial-events")
	defer producer.Close()

	service := trials.NewService(repo, patients, trial, trialDesigner, trials.ServiceOptions{
		Producer:  producer,
		Cache:     database.GetRedis(),
		CacheTTL:  cfg.AnalyticsCacheTTL,
		ExportDir: cfg.ExportDir,
	})
	handler := trials.NewHandler(service)

	router := mux.NewRouter()
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)
	router.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	}).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1/trials").Subrouter()
	handler.Register(api)

	address := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	server := &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.Log.WithField("addr", address).Info("Trial service listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("failed to start trial service")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down trial service...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Log.WithError(err).Error("Trial service forced to shutdown")
	}

	if err := database.ClosePostgres(); err != nil {
		logger.Log.WithError(err).Error("failed to close postgres connection")
	}
	if err := database.CloseRedis(); err != nil {
		logger.Log.WithError(err).Error("failed to close redis connection")
	}
	logger.Log.Info("Trial service stopped")
}
