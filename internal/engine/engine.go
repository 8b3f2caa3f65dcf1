// Package engine runs one synchronization pass from the bank-data API into
// a YNAB budget.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ynab-sync/ynab-sync/internal/config"
	"github.com/ynab-sync/ynab-sync/internal/gocardless"
	"github.com/ynab-sync/ynab-sync/internal/importer"
	"github.com/ynab-sync/ynab-sync/internal/model"
	"github.com/ynab-sync/ynab-sync/internal/ynab"
)

// BankData is the read side used by a pass.
type BankData interface {
	GetRequisition(ctx context.Context, requisitionID string) (*gocardless.Requisition, error)
	GetAccountTransactions(ctx context.Context, accountID string, dateFrom time.Time) (*model.AccountTransactions, error)
}

// Budget is the write side used by a pass.
type Budget interface {
	CreateTransactions(ctx context.Context, budgetID string, txns []model.NormalizedTransaction) (*ynab.CreateResult, error)
}

// Store loads and persists the configuration document.
type Store interface {
	Load() (*config.Document, error)
	Save(doc *config.Document) error
}

// Config wires an Engine. The client constructors run once per pass so no
// client or access token outlives the pass that created it.
type Config struct {
	Store           Store
	NewBankClient   func(doc *config.Document) (BankData, error)
	NewBudgetClient func(doc *config.Document) (Budget, error)

	// Now defaults to time.Now.
	Now func() time.Time
	// Observer receives progress events. Optional.
	Observer Observer
	Logger   *zap.Logger
}

// Engine runs sync passes.
type Engine struct {
	store     Store
	newBank   func(*config.Document) (BankData, error)
	newBudget func(*config.Document) (Budget, error)
	now       func() time.Time
	observer  Observer
	log       *zap.Logger
}

// Result summarizes a completed pass.
type Result struct {
	// Added counts transactions the budgeting API reported as created.
	Added int
	// Duplicates counts transactions the budgeting API skipped as already imported.
	Duplicates int
	// Accounts counts accounts whose batch was submitted.
	Accounts int
}

var errNotLinked = &config.Error{Msg: "No accounts found. Please complete authentication first."}

// New creates an Engine.
func New(cfg Config) (*Engine, error) {
	if cfg.Store == nil || cfg.NewBankClient == nil || cfg.NewBudgetClient == nil {
		return nil, errors.New("engine: store and client constructors are required")
	}
	e := &Engine{
		store:     cfg.Store,
		newBank:   cfg.NewBankClient,
		newBudget: cfg.NewBudgetClient,
		now:       cfg.Now,
		observer:  cfg.Observer,
		log:       cfg.Logger,
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.observer == nil {
		e.observer = func(Event) {}
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	return e, nil
}

// Run performs one pass. The watermark is advanced and saved only when
// every mapped account was processed; on any error it is left untouched and
// the next pass re-fetches the same window, relying on the budgeting API's
// import-id duplicate suppression.
func (e *Engine) Run(ctx context.Context) (Result, error) {
	doc, err := e.store.Load()
	if err != nil {
		return Result{}, fmt.Errorf("loading config: %w", err)
	}
	if err := doc.ValidateForSync(); err != nil {
		return Result{}, err
	}
	watermark, err := doc.Watermark()
	if err != nil {
		return Result{}, err
	}

	bank, err := e.newBank(doc)
	if err != nil {
		return Result{}, fmt.Errorf("creating bank data client: %w", err)
	}
	budget, err := e.newBudget(doc)
	if err != nil {
		return Result{}, fmt.Errorf("creating budget client: %w", err)
	}

	req, err := bank.GetRequisition(ctx, doc.GoCardless.RequisitionID)
	if err != nil {
		return Result{}, err
	}
	if !req.Linked() {
		return Result{}, errNotLinked
	}

	e.log.Info("sync pass started",
		zap.Time("date_from", watermark),
		zap.Int("mappings", doc.AccountMappings.Len()))

	var res Result
	for _, link := range doc.AccountMappings.Links() {
		if err := e.syncAccount(ctx, bank, budget, req, doc.YNAB.BudgetID, link, watermark, &res); err != nil {
			e.log.Error("account sync failed",
				zap.String("bank_account", link.BankAccountID),
				zap.String("budget_account", link.BudgetAccountID),
				zap.Error(err))
			return Result{}, err
		}
	}

	doc.SetWatermark(e.now())
	if err := e.store.Save(doc); err != nil {
		return Result{}, fmt.Errorf("saving watermark: %w", err)
	}

	e.observer(Event{Kind: EventPassCompleted, Added: res.Added, Duplicates: res.Duplicates})
	e.log.Info("sync pass completed", zap.Int("added", res.Added), zap.Int("duplicates", res.Duplicates))
	return res, nil
}

func (e *Engine) syncAccount(
	ctx context.Context,
	bank BankData,
	budget Budget,
	req *gocardless.Requisition,
	budgetID string,
	link model.AccountLink,
	watermark time.Time,
	res *Result,
) error {
	ev := Event{BankAccountID: link.BankAccountID, BudgetAccountID: link.BudgetAccountID}

	if link.Skipped() {
		e.skip(ev, ReasonUnmapped)
		return nil
	}
	if !req.HasAccount(link.BankAccountID) {
		ev.Kind = EventAccountMissing
		ev.Reason = ReasonNotInConnection
		e.observer(ev)
		return nil
	}

	txns, err := bank.GetAccountTransactions(ctx, link.BankAccountID, watermark)
	if err != nil {
		return err
	}
	if txns == nil || len(txns.Transactions.Booked) == 0 {
		e.skip(ev, ReasonNoTransactions)
		return nil
	}
	ev.Fetched = len(txns.Transactions.Booked)

	batch, err := importer.Normalize(*txns, link.BudgetAccountID)
	if err != nil {
		return fmt.Errorf("normalizing transactions for %s: %w", link.BankAccountID, err)
	}
	if len(batch) == 0 {
		e.skip(ev, ReasonNoTransactions)
		return nil
	}

	created, err := budget.CreateTransactions(ctx, budgetID, batch)
	if err != nil {
		return err
	}

	ev.Kind = EventAccountSynced
	ev.Submitted = len(batch)
	ev.Added = len(created.TransactionIDs)
	ev.Duplicates = len(created.DuplicateImportIDs)
	res.Added += ev.Added
	res.Duplicates += ev.Duplicates
	res.Accounts++
	e.observer(ev)
	return nil
}

func (e *Engine) skip(ev Event, reason string) {
	ev.Kind = EventAccountSkipped
	ev.Reason = reason
	e.observer(ev)
}
