package multiversx

import "regexp"

// addressPattern matches a bech32 MultiversX address: the erd1 prefix
// followed by 58 data characters.
var addressPattern = regexp.MustCompile(`(?i)^erd1[a-z0-9]{58}$`)

// IsValidAddress reports whether s looks like a MultiversX account address.
func IsValidAddress(s string) bool {
	return addressPattern.MatchString(s)
}
