package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"oip/autopurchase/internal/business/availability"
	"oip/autopurchase/internal/business/confirmation"
	"oip/autopurchase/internal/business/cost"
	"oip/autopurchase/internal/business/placer"
	"oip/autopurchase/internal/business/purchase"
	"oip/autopurchase/internal/business/selector"
	"oip/autopurchase/internal/model"
	"oip/autopurchase/internal/provider"
	"oip/autopurchase/pkg/config"
	"oip/autopurchase/pkg/logger"
)

var (
	configPath   = flag.String("config", "./config/worker.yaml", "config file path")
	testcasePath = flag.String("testcase", "./tools/dryrun/testcase/purchase.json", "purchase requests to run")
	fast         = flag.Bool("fast", true, "shrink retry and confirmation delays to milliseconds")
	verbose      = flag.Bool("v", false, "log engine output at debug level")
)

// dryrun runs purchase requests through the engine against the simulated providers.
// Nothing leaves the process: no order service, queue, redis or mysql.
func main() {
	flag.Parse()

	fmt.Println("========================================")
	fmt.Println("  Dry run - auto purchase engine")
	fmt.Println("========================================")

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("load config failed: %v\n", err)
		os.Exit(1)
	}
	if *fast {
		shrink(cfg)
	}

	requests, err := loadTestCases(*testcasePath)
	if err != nil {
		fmt.Printf("load test cases failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded %d requests from %s\n", len(requests), *testcasePath)

	level := "error"
	if *verbose {
		level = "debug"
	}
	log, err := logger.NewZapLogger(level)
	if err != nil {
		fmt.Printf("init logger failed: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	service := newService(cfg, log)

	failed := 0
	for i, req := range requests {
		fmt.Printf("\n[%d/%d] order=%s sku=%s qty=%d to %s\n", i+1, len(requests), req.OrderID, req.SKU, req.Quantity, req.Destination.Country)
		fmt.Println("----------------------------------------")

		start := time.Now()
		result := service.ExecutePurchase(context.Background(), req)
		printResult(result, time.Since(start))
		if !result.Success {
			failed++
		}
	}

	fmt.Println("\n========================================")
	fmt.Printf("Total: %d  Purchased: %d  Failed: %d\n", len(requests), len(requests)-failed, failed)
	if failed > 0 {
		os.Exit(1)
	}
}

func newService(cfg *config.Config, log logger.Logger) *purchase.Service {
	registry := provider.NewDefaultRegistry()
	calc := cost.NewCalculator()
	checker := availability.NewChecker(registry, availability.NewMemoryStore(), cfg.Availability.CacheTTL, log)
	sel := selector.NewSelector(registry, checker, calc, selector.Config{
		MinReliabilityScore:    cfg.Selection.MinReliabilityScore,
		FallbackProviderCount:  cfg.Selection.FallbackProviderCount,
		MaxReasonablePrice:     cfg.Selection.MaxReasonablePrice,
		DefaultMaxDeliveryDays: cfg.Selection.DefaultMaxDelivery,
	}, log)
	plc := placer.NewPlacer(registry, placer.RetryConfig{
		MaxAttempts:    cfg.Retry.MaxAttempts,
		InitialDelay:   cfg.Retry.InitialDelay,
		MaxDelay:       cfg.Retry.MaxDelay,
		Multiplier:     cfg.Retry.Multiplier,
		RetryableCodes: placer.DefaultRetryableCodes,
	}, log)
	confirmer := confirmation.NewHandler(registry, confirmation.Config{
		MaxRetries:   cfg.Confirmation.MaxRetries,
		MaxWait:      cfg.Confirmation.MaxWait,
		PollInterval: cfg.Confirmation.PollInterval,
	}, log)
	return purchase.NewService(sel, plc, confirmer, calc, log)
}

func shrink(cfg *config.Config) {
	cfg.Retry.InitialDelay = 10 * time.Millisecond
	cfg.Retry.MaxDelay = 100 * time.Millisecond
	cfg.Confirmation.PollInterval = 20 * time.Millisecond
	cfg.Confirmation.MaxWait = 2 * time.Second
}

func loadTestCases(path string) ([]*model.PurchaseRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read testcase file failed: %w", err)
	}

	var requests []*model.PurchaseRequest
	if err := json.Unmarshal(data, &requests); err != nil {
		return nil, fmt.Errorf("unmarshal testcase failed: %w", err)
	}
	return requests, nil
}

func printResult(r *model.PurchaseResult, took time.Duration) {
	if !r.Success {
		fmt.Printf("  FAILED %s: %s\n", r.ErrorCode, r.Error)
		fmt.Printf("  Attempted: %v\n", r.AttemptedProviders)
		fmt.Printf("  Took: %v\n", took)
		return
	}

	fmt.Printf("  Provider: %s (%s)\n", r.ProviderUsed, r.ProviderOrderID)
	fmt.Printf("  Cost: %.2f  ETA: %s\n", r.TotalCost, r.EstimatedDelivery.Format("2006-01-02"))
	fmt.Printf("  Attempted: %v  Fallbacks: %d\n", r.AttemptedProviders, r.FallbackAttempts)
	if r.Confirmation != nil {
		fmt.Printf("  Confirmation: %s tracking=%s polls=%d\n", r.Confirmation.Status, r.Confirmation.TrackingNumber, r.Confirmation.RetryCount)
		if r.Confirmation.Error != "" {
			fmt.Printf("  Confirmation error: %s\n", r.Confirmation.Error)
		}
	}
	fmt.Printf("  Took: %v\n", took)
}
