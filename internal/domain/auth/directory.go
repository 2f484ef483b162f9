package auth

import (
	"errors"
	"fmt"
	"strings"
)

// ResultNoSuchObject is the directory result code for a missing entry.
const ResultNoSuchObject = 32

var (
	// ErrNoSuchObject reports that the searched entry does not exist.
	ErrNoSuchObject = errors.New("no such object")
	// ErrDirectoryConnect reports that no directory session could be established.
	ErrDirectoryConnect = errors.New("directory connect failed")
	// ErrDirectoryBind reports that the administrative bind was refused.
	ErrDirectoryBind = errors.New("directory bind failed")
)

// SearchError is a directory search failure carrying the backend result code.
type SearchError struct {
	Code    int
	Message string
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("directory search failed (code %d): %s", e.Code, e.Message)
}

// Is lets errors.Is(err, ErrNoSuchObject) match a code-32 SearchError.
func (e *SearchError) Is(target error) bool {
	return target == ErrNoSuchObject && e.Code == ResultNoSuchObject
}

// UserEntryDN builds the DN searched for a login: uid=<uid>,ou=People,<base>.
// The uid must already be escaped for use in a DN.
func UserEntryDN(escapedUID, base string) string {
	return "uid=" + escapedUID + ",ou=People," + base
}

// EscapeDNValue escapes v for use as an RDN attribute value (RFC 4514 section 2.4).
func EscapeDNValue(v string) string {
	if v == "" {
		return v
	}
	var b strings.Builder
	b.Grow(len(v))
	last := len(v) - 1
	for i := 0; i < len(v); i++ {
		c := v[i]
		switch {
		case c == ',' || c == '+' || c == '"' || c == '\\' || c == '<' || c == '>' || c == ';' || c == '=':
			b.WriteByte('\\')
			b.WriteByte(c)
		case c == 0:
			b.WriteString(`\00`)
		case (c == ' ' || c == '#') && i == 0:
			b.WriteByte('\\')
			b.WriteByte(c)
		case c == ' ' && i == last:
			b.WriteByte('\\')
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
