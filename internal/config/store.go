package config

import "fmt"

// Overrides replace credentials in memory. They are never written to disk.
type Overrides struct {
	YNABAPIKey          string
	GoCardlessSecretID  string
	GoCardlessSecretKey string
}

func (o Overrides) apply(doc *Document) {
	if o.YNABAPIKey != "" {
		doc.YNAB.APIKey = o.YNABAPIKey
	}
	if o.GoCardlessSecretID != "" {
		doc.GoCardless.SecretID = o.GoCardlessSecretID
	}
	if o.GoCardlessSecretKey != "" {
		doc.GoCardless.SecretKey = o.GoCardlessSecretKey
	}
}

// restore copies the on-disk value of every overridden credential into doc.
func (o Overrides) restore(doc, disk *Document) {
	if o.YNABAPIKey != "" {
		doc.YNAB.APIKey = disk.YNAB.APIKey
	}
	if o.GoCardlessSecretID != "" {
		doc.GoCardless.SecretID = disk.GoCardless.SecretID
	}
	if o.GoCardlessSecretKey != "" {
		doc.GoCardless.SecretKey = disk.GoCardless.SecretKey
	}
}

func (o Overrides) empty() bool {
	return o == Overrides{}
}

// FileStore loads and saves the document at Path.
type FileStore struct {
	Path      string
	Overrides Overrides
}

// Load reads the document and applies overrides.
func (s *FileStore) Load() (*Document, error) {
	doc, err := Load(s.Path)
	if err != nil {
		return nil, err
	}
	s.Overrides.apply(doc)
	return doc, nil
}

// Save writes doc, keeping the on-disk value of overridden credentials.
func (s *FileStore) Save(doc *Document) error {
	out := *doc
	if !s.Overrides.empty() {
		disk, err := Load(s.Path)
		if err != nil {
			return fmt.Errorf("reloading config: %w", err)
		}
		s.Overrides.restore(&out, disk)
	}
	return Save(s.Path, &out)
}
