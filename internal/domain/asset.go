package domain

import (
	"regexp"
	"strings"
)

// CashAsset is the asset name under which a customer's cash is held.
const CashAsset = "TRY"

var assetNameRegex = regexp.MustCompile(`^[A-Z0-9]{1,12}$`)

// NormalizeAssetName returns the canonical form of an asset name: trimmed
// and upper-cased. Stores key balance records by this form, so lookups are
// case-insensitive without per-query comparisons.
func NormalizeAssetName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// ValidAssetName reports whether name, once normalized, is a well-formed
// asset name.
func ValidAssetName(name string) bool {
	return assetNameRegex.MatchString(NormalizeAssetName(name))
}

// IsCash reports whether name refers to the cash asset.
func IsCash(name string) bool {
	return NormalizeAssetName(name) == CashAsset
}
