package main

import (
	"fmt"
	"os"

	"github.com/scuolahub/finance-service/internal/auth"
	"github.com/scuolahub/finance-service/internal/config"
	"github.com/scuolahub/finance-service/internal/db"
	"github.com/scuolahub/finance-service/internal/excel"
	httphandler "github.com/scuolahub/finance-service/internal/http"
	"github.com/scuolahub/finance-service/internal/http/middleware"
	"github.com/scuolahub/finance-service/internal/logger"
	"github.com/scuolahub/finance-service/internal/pdf"
	"github.com/scuolahub/finance-service/internal/repository"
	"github.com/scuolahub/finance-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	projectRepo := repository.NewProjectRepository(database)
	ledgerRepo := repository.NewLedgerRepository(database)

	excelGenerator := excel.NewGenerator()
	pdfGenerator, err := pdf.NewGenerator()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init pdf generator")
	}

	financeService := service.NewFinanceService(projectRepo, ledgerRepo, excelGenerator, pdfGenerator)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(financeService, log)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, httphandler.RouterConfig{
		Environment:    cfg.Environment,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting finance service")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
