package graphql

import (
	"context"
	"errors"
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"go.uber.org/zap"

	apierrors "github.com/feral-file/ff-tier-pass/internal/api/shared/errors"
	"github.com/feral-file/ff-tier-pass/internal/logger"
)

// presentError formats a resolver error in a consistent way matching the REST API format
func presentError(ctx context.Context, err error, path ast.Path) *gqlerror.Error {
	var gqlErr *gqlerror.Error
	if errors.As(err, &gqlErr) {
		if gqlErr.Path == nil {
			gqlErr.Path = path
		}
		return gqlErr
	}

	apiErr := toAPIError(err)
	if apiErr == nil {
		return handleInternalError(ctx, err, path)
	}
	if apiErr.Code == apierrors.ErrCodeInternalError {
		return handleInternalError(ctx, err, path)
	}

	gqlErr = &gqlerror.Error{
		Message: apiErr.Message,
		Path:    path,
		Extensions: map[string]any{
			"code":    string(apiErr.Code),
			"message": apiErr.Message,
		},
	}
	if apiErr.Details != "" {
		gqlErr.Extensions["details"] = apiErr.Details
	}
	return gqlErr
}

// toAPIError returns the API error carried by err, mapping operation rejections
func toAPIError(err error) *apierrors.APIError {
	var apiErr *apierrors.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	if _, apiErr, ok := apierrors.FromRejection(err); ok {
		return apiErr
	}
	return nil
}

// handleInternalError logs the error and returns a generic internal error
func handleInternalError(ctx context.Context, err error, path ast.Path) *gqlerror.Error {
	logger.ErrorCtx(ctx, err, zap.String("error", "Unhandled GraphQL error"), zap.String("path", path.String()))
	return &gqlerror.Error{
		Message: "Internal server error",
		Path:    path,
		Extensions: map[string]any{
			"code":    string(apierrors.ErrCodeInternalError),
			"message": "Internal server error",
		},
	}
}

// requestError reports a document or variable that cannot be executed
func requestError(message string, args ...any) *gqlerror.Error {
	return &gqlerror.Error{
		Message: fmt.Sprintf(message, args...),
		Extensions: map[string]any{
			"code": string(apierrors.ErrCodeBadRequest),
		},
	}
}

// argumentError reports an argument value the resolver cannot use
func argumentError(name string, err error) error {
	return apierrors.NewValidationError(fmt.Sprintf("argument %s: %s", name, err))
}

// recoverFunc turns a panic in a resolver into an internal error
func recoverFunc(ctx context.Context, r any) error {
	logger.ErrorCtx(ctx, fmt.Errorf("panic: %v", r), zap.Any("panic", r))
	return apierrors.NewInternalError("Internal server error")
}
