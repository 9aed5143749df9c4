package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/bukubesar/internal/app"
	"github.com/odyssey-erp/bukubesar/internal/store"
)

// openingBalances is the example starting position of a small trading business.
var openingBalances = []struct {
	account string
	debit   int64
	credit  int64
}{
	{"Kas", 100_000_000, 0},
	{"Persediaan", 50_000_000, 0},
	{"Peralatan", 75_000_000, 0},
	{"Utang Usaha", 0, 45_000_000},
	{"Modal", 0, 180_000_000},
}

func main() {
	force := flag.Bool("force", false, "overwrite a store that already holds data")
	flag.Parse()

	ctx := context.Background()
	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := app.NewLogger(cfg)

	repo, closeRepo, err := app.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	if repo == nil {
		log.Fatalf("STORE_DRIVER is none; nothing to seed")
	}
	if closeRepo != nil {
		defer closeRepo()
	}

	if _, err := repo.Load(ctx); err == nil && !*force {
		log.Fatalf("store already holds a ledger; rerun with -force to replace it")
	} else if err != nil && !errors.Is(err, store.ErrEmpty) {
		log.Fatalf("read store: %v", err)
	}

	engine, err := app.NewEngine(cfg, logger, nil, nil)
	if err != nil {
		log.Fatalf("init engine: %v", err)
	}
	fmt.Println("→ Seeding opening balances...")
	for _, ob := range openingBalances {
		if err := engine.SetOpeningBalance(ob.account, decimal.NewFromInt(ob.debit), decimal.NewFromInt(ob.credit)); err != nil {
			log.Fatalf("opening balance %s: %v", ob.account, err)
		}
	}
	if err := engine.Save(ctx, repo); err != nil {
		log.Fatalf("save: %v", err)
	}
	bs := engine.BalanceSheet()
	fmt.Printf("✓ %s seeded: assets %s, liabilities and equity %s\n",
		engine.Period().Label, bs.TotalAssets.StringFixed(2), bs.TotalLiabilitiesAndEquity.StringFixed(2))
}
