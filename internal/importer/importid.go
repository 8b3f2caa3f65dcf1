package importer

import (
	"crypto/sha256"
	"encoding/hex"
)

// importIDPrefix tags import identifiers that originate from the bank-data API.
const importIDPrefix = "gc:"

// maxImportIDLen is the budgeting API's limit for import_id.
const maxImportIDLen = 36

// FormatImportID returns an import identifier like "gc:2023010100001".
// An empty transaction ID yields an empty import ID, which leaves the
// transaction without server-side duplicate suppression. IDs too long for
// the limit are replaced by a hex SHA-256 prefix of the full ID.
func FormatImportID(transactionID string) string {
	if transactionID == "" {
		return ""
	}
	id := importIDPrefix + transactionID
	if len(id) <= maxImportIDLen {
		return id
	}
	sum := sha256.Sum256([]byte(transactionID))
	return (importIDPrefix + hex.EncodeToString(sum[:]))[:maxImportIDLen]
}
