package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"claim-extractor/internal/di"
	"claim-extractor/internal/domain/entity"
	"claim-extractor/internal/infrastructure/env"
)

type output struct {
	Queue      []entity.QueueItem  `json:"queue"`
	QueueError string              `json:"queueError,omitempty"`
	Claim      *entity.ClaimDetail `json:"claim,omitempty"`
}

func main() {
	envService := env.NewEnvService()

	portalURL := envService.MustGet("PORTAL_URL")
	visitURL := envService.Get("VISIT_URL")

	order, err := di.ParseReportOrder(envService.Get("REPORT_ORDER"))
	if err != nil {
		log.Fatalf("Invalid REPORT_ORDER: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), envService.GetDuration("RUN_TIMEOUT", 10*time.Minute))
	defer cancel()

	container, err := di.NewContainer(ctx, di.Config{
		Name:             envService.GetWithDefault("RUN_NAME", "extract"),
		LogDir:           envService.GetWithDefault("LOG_DIR", "log"),
		LogLevel:         envService.GetWithDefault("LOG_LEVEL", "info"),
		LogConsole:       envService.GetBool("LOG_CONSOLE", false),
		BrowserHeadless:  envService.GetBool("BROWSER_HEADLESS", true),
		BrowserTimeout:   envService.GetDuration("BROWSER_TIMEOUT", 15*time.Second),
		DownloadDir:      envService.Get("DOWNLOAD_DIR"),
		ScreenshotDir:    envService.Get("SCREENSHOT_DIR"),
		SignaturesFile:   envService.Get("SIGNATURES_FILE"),
		ReportOrder:      order,
		ExportCacheTTL:   envService.GetDuration("EXPORT_CACHE_TTL", 10*time.Minute),
		ObstructionMax:   envService.GetInt("OBSTRUCTION_MAX_CYCLES", 5),
		SettleDelay:      envService.GetDuration("OBSTRUCTION_SETTLE", 300*time.Millisecond),
		CheckDigit:       envService.GetBool("NRIC_CHECK_DIGIT", false),
		OpenRouterAPIKey: envService.Get("OPENROUTER_API_KEY"),
		OpenRouterModel:  envService.GetWithDefault("OPENROUTER_MODEL_NAME", "openai/gpt-4o-mini"),
	})
	if err != nil {
		log.Fatalf("Initialization failed: %v", err)
	}
	defer container.Close()

	if err := container.Browser.Navigate(ctx, portalURL); err != nil {
		container.Logger.Error("Navigation failed", "url", portalURL, "error", err)
		log.Fatalf("Navigation failed: %v", err)
	}

	var out output
	out.Queue, err = container.Extractor.ExtractQueueListResults(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			log.Fatalf("Queue extraction aborted: %v", err)
		}
		out.QueueError = err.Error()
	}

	if visitURL != "" {
		if err := container.Browser.Navigate(ctx, visitURL); err != nil {
			container.Logger.Error("Navigation failed", "url", visitURL, "error", err)
			log.Fatalf("Navigation failed: %v", err)
		}
		out.Claim, err = container.Extractor.ExtractClaimDetailsFromCurrentVisit(ctx)
		if err != nil {
			log.Fatalf("Claim extraction aborted: %v", err)
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "encode result: %v\n", err)
		os.Exit(1)
	}
}
