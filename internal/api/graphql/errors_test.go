package graphql

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/99designs/gqlgen/graphql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2/ast"

	apierrors "github.com/feral-file/ff-tier-pass/internal/api/shared/errors"
	"github.com/feral-file/ff-tier-pass/internal/domain"
)

func TestPresentError(t *testing.T) {
	path := ast.Path{ast.PathName("token")}

	tests := []struct {
		name    string
		err     error
		code    string
		message string
	}{
		{
			name:    "rejection",
			err:     fmt.Errorf("token 7: %w", domain.ErrNotFound),
			code:    string(apierrors.ErrCodeNotFound),
			message: string(domain.KindNotFound),
		},
		{
			name:    "api error",
			err:     apierrors.NewValidationError("argument id: bad"),
			code:    string(apierrors.ErrCodeValidationFailed),
			message: "Validation failed",
		},
		{
			name:    "unknown error",
			err:     errors.New("connection reset"),
			code:    string(apierrors.ErrCodeInternalError),
			message: "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gqlErr := presentError(context.Background(), tt.err, path)
			assert.Equal(t, tt.message, gqlErr.Message)
			assert.Equal(t, tt.code, gqlErr.Extensions["code"])
			assert.Equal(t, path, gqlErr.Path)
		})
	}
}

// panicking fails every field
type panicking struct{}

func (panicking) resolve(context.Context, string, arguments) (any, error) {
	panic("resolver bug")
}

func TestExecuteRecoversPanics(t *testing.T) {
	resp := newExecutor(parsedSchema).execute(context.Background(), &graphql.RawParams{Query: `{ nextTokenID }`}, panicking{})

	assert.Equal(t, "null", string(resp.Data))
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "Internal server error", resp.Errors[0].Message)
	assert.Equal(t, ast.Path{ast.PathName("nextTokenID")}, resp.Errors[0].Path)
}

func TestArguments(t *testing.T) {
	args := arguments{"literal": int64(7), "variable": "18446744073709551615", "negative": int64(-1)}

	v, err := args.uint64Arg("literal")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), v)

	v, err = args.uint64Arg("variable")
	require.NoError(t, err)
	assert.Equal(t, uint64(18446744073709551615), v)

	_, err = args.uint64Arg("negative")
	assert.Error(t, err)

	opt, err := args.optionalUint64Arg("absent")
	require.NoError(t, err)
	assert.Nil(t, opt)

	assert.Equal(t, []any{"single"}, arguments{"ops": "single"}.listArg("ops"))
	assert.Nil(t, args.listArg("absent"))
}
