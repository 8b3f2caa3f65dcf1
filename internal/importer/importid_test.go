package importer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatImportID(t *testing.T) {
	assert.Equal(t, "gc:abc123", FormatImportID("abc123"))
	assert.Equal(t, "", FormatImportID(""))
}

func TestFormatImportID_FitsAtLimit(t *testing.T) {
	txID := strings.Repeat("7", 33)
	assert.Equal(t, "gc:"+txID, FormatImportID(txID))
}

func TestFormatImportID_LongIDsHashed(t *testing.T) {
	id := FormatImportID(strings.Repeat("x", 64))
	assert.Len(t, id, 36)
	assert.True(t, strings.HasPrefix(id, "gc:"))
	assert.Equal(t, id, FormatImportID(strings.Repeat("x", 64)), "stable across passes")
}

func TestFormatImportID_LongIDsSharingPrefixStayDistinct(t *testing.T) {
	a := FormatImportID("2023010100000000000000000000000000001")
	b := FormatImportID("2023010100000000000000000000000000002")
	assert.Len(t, a, 36)
	assert.Len(t, b, 36)
	assert.NotEqual(t, a, b)
}
