package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	domainauth "github.com/target/sso-bridge/internal/domain/auth"
	apperrors "github.com/target/sso-bridge/internal/errors"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"app error", apperrors.Unavailable("down"), "unavailable"},
		{"wrapped app error", fmt.Errorf("login: %w", apperrors.InvalidToken("Invalid token")), "invalid_token"},
		{"search error", &domainauth.SearchError{Code: 32}, "directory_result_32"},
		{"connect", fmt.Errorf("%w: refused", domainauth.ErrDirectoryConnect), "directory_connect"},
		{"bind", fmt.Errorf("%w: refused", domainauth.ErrDirectoryBind), "directory_bind"},
		{"plain", errors.New("boom"), "errors_errorstring"},
		{"context", fmt.Errorf("wait: %w", context.DeadlineExceeded), "context_deadlineexceedederror"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}
