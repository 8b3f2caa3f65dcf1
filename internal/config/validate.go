package config

// Error reports configuration that must be fixed before a command can run.
// It is detected before any network call.
type Error struct {
	Msg string
}

func (e *Error) Error() string { return e.Msg }

var (
	errNoYNABKey       = &Error{Msg: "YNAB API key not found. Please run 'ynab-sync configure' first."}
	errNoBudget        = &Error{Msg: "YNAB budget ID not found. Please run 'ynab-sync configure' first."}
	errNoGoCardless    = &Error{Msg: "GoCardless credentials not found. Please run 'ynab-sync configure' first."}
	errNoInstitution   = &Error{Msg: "GoCardless institution ID not found. Please run 'ynab-sync configure' first."}
	errNoRequisition   = &Error{Msg: "No bank connection found. Please run 'ynab-sync connect' first."}
	errNoMappings      = &Error{Msg: "No account mappings found. Please run 'ynab-sync map-accounts' first."}
	errInvalidLastSync = &Error{Msg: "last_sync is not a valid date. Please fix it in the config file."}
)

// RequireGoCardless checks the bank-data credentials.
func (d *Document) RequireGoCardless() error {
	if d.GoCardless.SecretID == "" || d.GoCardless.SecretKey == "" {
		return errNoGoCardless
	}
	return nil
}

// RequireInstitution checks the credentials and the chosen institution.
func (d *Document) RequireInstitution() error {
	if err := d.RequireGoCardless(); err != nil {
		return err
	}
	if d.GoCardless.InstitutionID == "" {
		return errNoInstitution
	}
	return nil
}

// RequireConnection checks the credentials and the linked requisition.
func (d *Document) RequireConnection() error {
	if err := d.RequireGoCardless(); err != nil {
		return err
	}
	if d.GoCardless.RequisitionID == "" {
		return errNoRequisition
	}
	return nil
}

// ValidateForSync checks everything a sync pass needs.
func (d *Document) ValidateForSync() error {
	if d.YNAB.APIKey == "" {
		return errNoYNABKey
	}
	if d.YNAB.BudgetID == "" {
		return errNoBudget
	}
	if err := d.RequireConnection(); err != nil {
		return err
	}
	if d.AccountMappings.Len() == 0 {
		return errNoMappings
	}
	if _, err := d.Watermark(); err != nil {
		return errInvalidLastSync
	}
	return nil
}
