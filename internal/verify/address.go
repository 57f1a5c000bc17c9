package verify

import (
	"regexp"
	"strings"

	"golang.org/x/crypto/sha3"
)

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// ValidAddress reports whether s is a 0x-prefixed 20 byte hex address.
// All-lower and all-upper forms are accepted as is; mixed case must carry a valid EIP-55 checksum.
func ValidAddress(s string) bool {
	if !addressPattern.MatchString(s) {
		return false
	}
	digits := s[2:]
	if digits == strings.ToLower(digits) || digits == strings.ToUpper(digits) {
		return true
	}
	return ChecksumAddress(s) == s
}

// ChecksumAddress returns the EIP-55 mixed-case form of a well-formed address.
func ChecksumAddress(s string) string {
	digits := []byte(strings.ToLower(strings.TrimPrefix(s, "0x")))

	h := sha3.NewLegacyKeccak256()
	h.Write(digits)
	sum := h.Sum(nil)

	for i, c := range digits {
		if c < 'a' || c > 'f' {
			continue
		}
		nibble := sum[i/2]
		if i%2 == 0 {
			nibble >>= 4
		} else {
			nibble &= 0x0f
		}
		if nibble >= 8 {
			digits[i] = c - 'a' + 'A'
		}
	}
	return "0x" + string(digits)
}
