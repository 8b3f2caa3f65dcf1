package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DirName is the configuration directory under the user's home.
	DirName = ".ynab_sync"
	// FileName is the configuration document inside DirName.
	FileName = "config.yaml"

	// DefaultRedirectURL is where the bank sends the user after linking.
	DefaultRedirectURL = "http://localhost:8000"

	defaultLookback = 7 * 24 * time.Hour
	dateFormat      = "2006-01-02"
)

// Document is the persisted configuration (config.yaml).
type Document struct {
	LastSync          string           `yaml:"last_sync"` // YYYY-MM-DD or RFC3339
	YNAB              YNABConfig       `yaml:"ynab"`
	GoCardless        GoCardlessConfig `yaml:"gocardless,omitempty"`
	AccountMappings   AccountMappings  `yaml:"account_mappings,omitempty"`
	AccountsValidated *bool            `yaml:"accounts_validated,omitempty"`
}

// YNABConfig holds budgeting API settings.
type YNABConfig struct {
	APIKey    string `yaml:"api_key,omitempty"`
	BudgetID  string `yaml:"budget_id"`
	AccountID string `yaml:"account_id,omitempty"`
}

// GoCardlessConfig holds bank-data API settings.
type GoCardlessConfig struct {
	SecretID      string `yaml:"secret_id,omitempty"`
	SecretKey     string `yaml:"secret_key,omitempty"`
	InstitutionID string `yaml:"institution_id,omitempty"`
	RequisitionID string `yaml:"requisition_id,omitempty"`
	RedirectURL   string `yaml:"redirect_url,omitempty"`
}

// DefaultPath returns ~/.ynab_sync/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(DirName, FileName)
	}
	return filepath.Join(home, DirName, FileName)
}

// Default returns the document used when no file exists yet: the sync
// window starts seven days before now.
func Default(now time.Time) *Document {
	return &Document{
		LastSync: now.UTC().Add(-defaultLookback).Format(dateFormat),
	}
}

// Load reads a config.yaml file from disk. A missing file yields Default.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(time.Now()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if doc.LastSync == "" {
		doc.LastSync = Default(time.Now()).LastSync
	}
	return &doc, nil
}

// Save writes a Document to a YAML file, creating its directory.
func Save(path string, doc *Document) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Watermark parses LastSync, which may be a date or an RFC3339 timestamp.
func (d *Document) Watermark() (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, d.LastSync); err == nil {
		return t, nil
	}
	t, err := time.Parse(dateFormat, d.LastSync)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing last_sync %q: %w", d.LastSync, err)
	}
	return t, nil
}

// SetWatermark records t as the start of the next sync window.
func (d *Document) SetWatermark(t time.Time) {
	d.LastSync = t.UTC().Format(time.RFC3339)
}

// RedirectURL returns the configured redirect or DefaultRedirectURL.
func (d *Document) RedirectURL() string {
	if d.GoCardless.RedirectURL != "" {
		return d.GoCardless.RedirectURL
	}
	return DefaultRedirectURL
}
