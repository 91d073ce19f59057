package main

import (
	"fmt"
	"log"
	"net/http"

	"smartsplit/internal/config"
	"smartsplit/internal/export"
	"smartsplit/internal/handler"
	"smartsplit/internal/oracle"
	_ "smartsplit/internal/oracle/claude"
	_ "smartsplit/internal/oracle/openai"
	"smartsplit/internal/patterns"
	"smartsplit/internal/pdfsource"
	"smartsplit/internal/pipeline"
	"smartsplit/internal/port"
	"smartsplit/internal/repository/postgres"
	"smartsplit/internal/router"
	"smartsplit/internal/service"
	s3storage "smartsplit/internal/storage/s3"
)

// @title SmartSplit API
// @version 1.0
// @description Splits multi-document PDF bundles into classified, named sections.
// @BasePath /api/v1
func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	lib, err := patterns.Load(cfg.Patterns.File)
	if err != nil {
		return fmt.Errorf("failed to load patterns: %w", err)
	}

	// A nil oracle is valid: classification then stops at the rule pass.
	clsOracle, err := oracle.FromConfig(&cfg.Oracle)
	if err != nil {
		return fmt.Errorf("failed to initialize oracle: %w", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize storage
	var storage port.ObjectStorage
	if cfg.Export.Provider == "s3" {
		storage, err = s3storage.NewS3Client(&cfg.S3)
		if err != nil {
			return fmt.Errorf("failed to initialize S3 client: %w", err)
		}
	}
	sink, err := export.FromConfig(cfg, storage)
	if err != nil {
		return fmt.Errorf("failed to initialize export sink: %w", err)
	}

	maxFileSize := cfg.S3.MaxFileSizeMB << 20
	pipe := pipeline.NewFromConfig(cfg, lib, clsOracle)
	pdfCfg := pdfsource.DefaultConfig()
	pdfCfg.FirstLines = cfg.Layout.FirstLines
	opener := service.PDFOpener(pdfCfg)
	splitSvc := service.NewSplitService(pipe, opener, postgres.NewSplitRunRepo(db), postgres.NewCorrectionRepo(db), sink, maxFileSize)

	// Initialize handlers
	splitH := handler.NewSplitHandler(splitSvc, maxFileSize)
	healthH := handler.NewHealthHandler(postgres.Pinger(db))

	// Multipart framing needs headroom over the file itself.
	r := router.Setup(cfg.CORS.AllowedOrigins, maxFileSize+(1<<20), splitH, healthH)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	log.Printf("Server starting on %s (export=%s, oracle=%t)", cfg.Server.Port, cfg.Export.Provider, clsOracle != nil)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}
