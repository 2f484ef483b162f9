package errors

import (
	goerrors "errors"
	"reflect"
	"strconv"
	"strings"

	domainauth "github.com/target/sso-bridge/internal/domain/auth"
	apperrors "github.com/target/sso-bridge/internal/errors"
)

// Classify returns a normalized error class suitable for tagging metrics and logs.
// Application and directory errors map to their code; anything else falls back to
// the innermost concrete type in snake_case-ish form.
func Classify(err error) string {
	if err == nil {
		return ""
	}

	if code := apperrors.GetCode(err); code != "" {
		return string(code)
	}

	var searchErr *domainauth.SearchError
	if goerrors.As(err, &searchErr) {
		return "directory_result_" + strconv.Itoa(searchErr.Code)
	}

	for _, sentinel := range []struct {
		err   error
		class string
	}{
		{domainauth.ErrDirectoryConnect, "directory_connect"},
		{domainauth.ErrDirectoryBind, "directory_bind"},
	} {
		if goerrors.Is(err, sentinel.err) {
			return sentinel.class
		}
	}

	return typeName(err)
}

func typeName(err error) string {
	for {
		unwrapped := goerrors.Unwrap(err)
		if unwrapped == nil {
			break
		}
		err = unwrapped
	}

	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "unknown"
	}

	name := strings.ToLower(strings.ReplaceAll(t.String(), "*", ""))
	name = strings.ReplaceAll(name, ".", "_")
	if name == "" {
		return "unknown"
	}
	return name
}
