package govinfo

import "strings"

// ParsedPackageID is the decomposition of a compound GovInfo package
// identifier like BILLS-118hr10150ih: collection BILLS, congress 118,
// bill type hr, bill number 10150, version ih.
type ParsedPackageID struct {
	Collection string
	Congress   string
	BillType   string
	BillNumber string
	Version    string
}

// congressUnknown is the placeholder when the congress digits are missing.
const congressUnknown = "Unknown"

// ParsePackageID decomposes a package identifier. The grammar is
// <collection>-<congressDigits><billTypeLetters><billNumberDigits><versionLetters>;
// parsing never fails — any missing segment keeps its per-field default
// (congress "Unknown", everything else empty).
func ParsePackageID(packageID string) ParsedPackageID {
	parsed := ParsedPackageID{Congress: congressUnknown}

	collection, rest, found := strings.Cut(packageID, "-")
	if !found {
		parsed.Collection = packageID
		return parsed
	}
	parsed.Collection = collection

	// Leading digit run: congress.
	i := 0
	for i < len(rest) && isDigit(rest[i]) {
		i++
	}
	if i > 0 {
		parsed.Congress = rest[:i]
	}
	rest = rest[i:]

	// Letter run: bill type.
	i = 0
	for i < len(rest) && isLetter(rest[i]) {
		i++
	}
	parsed.BillType = rest[:i]
	rest = rest[i:]

	// Digit run: bill number.
	i = 0
	for i < len(rest) && isDigit(rest[i]) {
		i++
	}
	parsed.BillNumber = rest[:i]
	rest = rest[i:]

	// Trailing letter run: version. Anything after it is discarded.
	i = 0
	for i < len(rest) && isLetter(rest[i]) {
		i++
	}
	parsed.Version = rest[:i]

	return parsed
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
