// Package claims parses gist evidence: the raw gist URL and the ownership
// claim inside the gist body. Everything here is a pure function of its input.
package claims

import (
	"encoding/hex"
	"strings"
	"unicode/utf8"

	"github.com/ruteri/badge-oracle/interfaces"
)

const (
	// GistURLPrefix is the only accepted evidence location.
	GistURLPrefix = "https://gist.githubusercontent.com/"
	// ClaimPrefix precedes the hex-encoded account in a gist body.
	ClaimPrefix = "This gist is owned by address: 0x"
	// AddressLen is the number of hex characters of an encoded account.
	AddressLen = 64
)

var (
	ErrInvalidURL           = interfaces.ErrInvalidURL
	ErrNoClaimFound         = interfaces.ErrNoClaimFound
	ErrInvalidAddressLength = interfaces.ErrInvalidAddressLength
	ErrInvalidAddress       = interfaces.ErrInvalidAddress
)

// GistURL is a parsed raw gist location.
type GistURL struct {
	Username string
	GistID   string
	Filename string
}

// ParseGistURL parses https://gist.githubusercontent.com/<user>/<id>/raw/<rev>/<file>.
func ParseGistURL(url string) (GistURL, error) {
	path, ok := strings.CutPrefix(url, GistURLPrefix)
	if !ok {
		return GistURL{}, ErrInvalidURL
	}
	components := strings.Split(path, "/")
	if len(components) < 5 {
		return GistURL{}, ErrInvalidURL
	}
	return GistURL{
		Username: components[0],
		GistID:   components[1],
		Filename: components[4],
	}, nil
}

// ExtractClaim returns the account claimed by a gist body. Invalid UTF-8 is
// replaced before searching, and the 64 characters following ClaimPrefix
// must hex-decode to the 32-byte account.
func ExtractClaim(body []byte) (interfaces.AccountID, error) {
	text := strings.ToValidUTF8(string(body), string(utf8.RuneError))

	pos := strings.Index(text, ClaimPrefix)
	if pos < 0 {
		return interfaces.AccountID{}, ErrNoClaimFound
	}

	rest := text[pos+len(ClaimPrefix):]
	end, taken := 0, 0
	for end < len(rest) && taken < AddressLen {
		_, size := utf8.DecodeRuneInString(rest[end:])
		end += size
		taken++
	}
	addr := rest[:end]

	// multi-byte characters count against the byte length
	if len(addr) != AddressLen {
		return interfaces.AccountID{}, ErrInvalidAddressLength
	}

	raw, err := hex.DecodeString(addr)
	if err != nil {
		return interfaces.AccountID{}, ErrInvalidAddress
	}
	return interfaces.NewAccountIDFromBytes(raw)
}
