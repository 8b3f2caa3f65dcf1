package commands

import (
	"github.com/ynab-sync/ynab-sync/internal/config"
	"github.com/ynab-sync/ynab-sync/internal/engine"
	"github.com/ynab-sync/ynab-sync/internal/gocardless"
	"github.com/ynab-sync/ynab-sync/internal/ynab"
)

func (a *app) bankClient(doc *config.Document) (*gocardless.Client, error) {
	return gocardless.NewClient(gocardless.Config{
		Credentials: gocardless.Credentials{
			SecretID:  doc.GoCardless.SecretID,
			SecretKey: doc.GoCardless.SecretKey,
		},
		BaseURL:       a.settings.GoCardlessBaseURL,
		Timeout:       a.settings.HTTPTimeout,
		RatePerSecond: a.settings.GoCardlessRatePerSecond,
		Logger:        a.log,
	})
}

func (a *app) budgetClient(doc *config.Document) (*ynab.Client, error) {
	return ynab.NewClient(ynab.Config{
		APIKey:  doc.YNAB.APIKey,
		BaseURL: a.settings.YNABBaseURL,
		Timeout: a.settings.HTTPTimeout,
		Logger:  a.log,
	})
}

func (a *app) newEngine(observer engine.Observer) (*engine.Engine, error) {
	return engine.New(engine.Config{
		Store: a.store,
		NewBankClient: func(doc *config.Document) (engine.BankData, error) {
			return a.bankClient(doc)
		},
		NewBudgetClient: func(doc *config.Document) (engine.Budget, error) {
			return a.budgetClient(doc)
		},
		Observer: observer,
		Logger:   a.log,
	})
}
