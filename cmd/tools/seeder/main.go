package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-facture/internal/app"
	"github.com/noah-isme/backend-facture/internal/config"
	"github.com/noah-isme/backend-facture/internal/document"
	"github.com/noah-isme/backend-facture/internal/obs"
	"github.com/noah-isme/backend-facture/internal/totals"
)

// seeder fills a tenant with demo quotes and invoices in a spread of statuses.
func main() {
	tenantID := flag.String("tenant", "demo", "tenant to seed")
	count := flag.Int("n", 12, "documents per kind")
	flag.Parse()

	cfg := config.MustLoad()
	logger := obs.NewLogger("console", "info").With().Str("component", "seeder").Logger()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	deps, err := app.Bootstrap(ctx, cfg, logger, app.Options{ApplicationName: "facture-seeder", Migrate: true})
	if err != nil {
		logger.Fatal().Err(err).Msg("bootstrap dependencies")
	}
	defer func() { _ = deps.Close() }()

	docs := deps.Documents
	created := 0
	for i := 0; i < *count; i++ {
		quote, err := docs.Create(ctx, *tenantID, demoInput(document.KindQuote, i))
		if err != nil {
			logger.Fatal().Err(err).Int("index", i).Msg("create quote")
		}
		created++
		for _, to := range quotePath(i) {
			if quote, err = docs.Transition(ctx, *tenantID, quote.ID, to); err != nil {
				logger.Fatal().Err(err).Str("number", quote.Number).Msg("advance quote")
			}
		}
		if quote.Status == document.StatusAccepted && i%2 == 0 {
			if _, err := docs.ConvertQuote(ctx, *tenantID, quote.ID); err != nil {
				logger.Fatal().Err(err).Str("number", quote.Number).Msg("convert quote")
			}
			created++
		}

		invoice, err := docs.Create(ctx, *tenantID, demoInput(document.KindInvoice, i))
		if err != nil {
			logger.Fatal().Err(err).Int("index", i).Msg("create invoice")
		}
		created++
		for _, to := range invoicePath(i) {
			if invoice, err = docs.Transition(ctx, *tenantID, invoice.ID, to); err != nil {
				logger.Fatal().Err(err).Msg("advance invoice")
			}
		}
	}
	logger.Info().Str("tenant", *tenantID).Int("documents", created).Msg("seeding completed")
}

var clients = []string{"Atelier Morel", "Boulangerie Petit", "Cabinet Lemaire", "Dupont & Fils", "Garage Fontaine", "Studio Renard"}

func demoInput(kind document.Kind, i int) document.Input {
	in := document.Input{
		Kind:        kind,
		ClientName:  clients[i%len(clients)],
		ClientEmail: fmt.Sprintf("contact%d@example.com", i),
		Lines: []document.LineInput{
			{Description: "Consulting day", Quantity: decimal.NewFromInt(int64(1 + i%4)), UnitPrice: decimal.RequireFromString("650.00"), VATRate: decimal.NewFromInt(20)},
			{Description: "Training material", Quantity: decimal.NewFromInt(3), UnitPrice: decimal.RequireFromString("42.50"), VATRate: decimal.RequireFromString("5.5"), Discount: decimal.NewFromInt(10), DiscountType: totals.Percentage},
		},
	}
	switch i % 3 {
	case 1:
		in.Discount = document.DiscountInput{Amount: decimal.NewFromInt(5), Type: totals.Percentage}
	case 2:
		in.Discount = document.DiscountInput{Amount: decimal.NewFromInt(100), Type: totals.Fixed}
	}
	return in
}

func quotePath(i int) []document.Status {
	switch i % 4 {
	case 1:
		return []document.Status{document.StatusSent}
	case 2:
		return []document.Status{document.StatusSent, document.StatusAccepted}
	case 3:
		return []document.Status{document.StatusSent, document.StatusRejected}
	}
	return nil
}

func invoicePath(i int) []document.Status {
	switch i % 3 {
	case 1:
		return []document.Status{document.StatusIssued}
	case 2:
		return []document.Status{document.StatusIssued, document.StatusPaid}
	}
	return nil
}
