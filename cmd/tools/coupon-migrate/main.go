// cmd/tools/coupon-migrate/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"career-readiness/internal/common/config"
	"career-readiness/internal/common/database"
	"career-readiness/internal/common/logger"
	"career-readiness/internal/store"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "Report coupon counts without writing")
	configPath := flag.String("config", "", "Config file (defaults to configs/config.yaml lookup)")
	flag.Parse()

	log := logger.NewStructured("info", "console")

	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.LoadFromFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		log.Error("config load failed", map[string]interface{}{"error": err})
		os.Exit(1)
	}

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		log.Error("postgres connection failed", map[string]interface{}{"error": err})
		os.Exit(1)
	}
	defer pg.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	report, err := store.MigrateCoupons(ctx, pg.DB, *dryRun)
	if err != nil {
		log.Error("coupon migration failed", map[string]interface{}{"error": err})
		os.Exit(1)
	}

	log.Info("coupon migration finished", map[string]interface{}{
		"total":   report.Total,
		"used":    report.Used,
		"unused":  report.Unused,
		"updated": report.Updated,
		"dryRun":  report.DryRun,
	})
	out, _ := json.MarshalIndent(report, "", "  ")
	fmt.Println(string(out))
}
