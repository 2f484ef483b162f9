package auth

// Package auth contains domain-level types for directory authentication and sessions.
// It is pure and free of framework/adapter concerns.

import "strings"

// Identity is the principal resolved by a successful login.
// It is immutable once a request resolves it.
type Identity struct {
	UID string `json:"uid"`
	DN  string `json:"dn"`
}

// EntryAttribute is a single directory attribute with its values in directory order.
type EntryAttribute struct {
	Name   string
	Values []string
}

// DirectoryEntry is one result of a directory search.
// Attribute order and duplicate values are kept exactly as the directory returned them.
type DirectoryEntry struct {
	DN         string
	Attributes []EntryAttribute
}

// Values returns the values of the first attribute matching name.
// Attribute names are compared case-insensitively, as directories do.
func (e DirectoryEntry) Values(name string) []string {
	for _, attr := range e.Attributes {
		if strings.EqualFold(attr.Name, name) {
			return attr.Values
		}
	}
	return nil
}

// FirstValue returns the first value of the named attribute, or "" when absent.
func (e DirectoryEntry) FirstValue(name string) string {
	if vals := e.Values(name); len(vals) > 0 {
		return vals[0]
	}
	return ""
}

// SearchScope controls how far a directory search descends from its base DN.
type SearchScope int

const (
	// ScopeBase matches only the base object itself.
	ScopeBase SearchScope = iota
	// ScopeOneLevel matches the immediate children of the base object.
	ScopeOneLevel
	// ScopeSubtree matches the base object and everything beneath it.
	ScopeSubtree
)

func (s SearchScope) String() string {
	switch s {
	case ScopeBase:
		return "base"
	case ScopeOneLevel:
		return "one"
	case ScopeSubtree:
		return "sub"
	default:
		return "unknown"
	}
}

// LoginState is a node of the login state machine.
type LoginState string

const (
	StateStart           LoginState = "start"
	StateDirectoryBound  LoginState = "directory_bound"
	StateEntryFound      LoginState = "entry_found"
	StatePasswordChecked LoginState = "password_checked"
	StateTokenIssued     LoginState = "token_issued"

	// Failure exits.
	StateDirectoryUnreachable LoginState = "directory_unreachable"
	StateEntryNotFound        LoginState = "entry_not_found"
	StatePasswordRejected     LoginState = "password_rejected"
	StateStoreFailure         LoginState = "store_failure"
)

// IsFailure reports whether s is a terminal failure state.
func (s LoginState) IsFailure() bool {
	switch s {
	case StateDirectoryUnreachable, StateEntryNotFound, StatePasswordRejected, StateStoreFailure:
		return true
	default:
		return false
	}
}

// PasswordAttribute is the directory attribute holding the stored credential.
const PasswordAttribute = "userPassword"
