package main

import (
	"fmt"
	"os"

	"github.com/nurpe/engagements/internal/auth"
	"github.com/nurpe/engagements/internal/config"
	"github.com/nurpe/engagements/internal/db"
	"github.com/nurpe/engagements/internal/excel"
	httphandler "github.com/nurpe/engagements/internal/http"
	"github.com/nurpe/engagements/internal/http/middleware"
	"github.com/nurpe/engagements/internal/logger"
	"github.com/nurpe/engagements/internal/model"
	"github.com/nurpe/engagements/internal/pdf"
	"github.com/nurpe/engagements/internal/repository"
	"github.com/nurpe/engagements/internal/service"
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

	workOrderRepo := repository.NewWorkOrderRepository(database)
	bidRepo := repository.NewBidRepository(database)
	negotiationRepo := repository.NewNegotiationRepository(database)

	notifier := service.NewLogNotifier(log)
	rates := model.FeeRates{PlatformPct: cfg.Fees.PlatformPct, GSTPct: cfg.Fees.GSTPct}

	workOrderService := service.NewWorkOrderService(workOrderRepo, notifier, rates)
	bidService := service.NewBidService(bidRepo, negotiationRepo, workOrderService, notifier, rates)
	negotiationService := service.NewNegotiationService(negotiationRepo, notifier)

	pdfGenerator := pdf.NewGenerator()
	excelGenerator := excel.NewGenerator()

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(bidService, negotiationService, workOrderService, pdfGenerator, excelGenerator, log)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting engagements service")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
