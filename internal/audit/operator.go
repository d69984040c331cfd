package audit

import (
	"context"
	"strings"
)

type operatorKey struct{}

// WithOperator records who is acting for the rest of the request.
func WithOperator(ctx context.Context, operator string) context.Context {
	return context.WithValue(ctx, operatorKey{}, strings.TrimSpace(operator))
}

// OperatorFrom returns the operator stored by WithOperator, or "".
func OperatorFrom(ctx context.Context) string {
	operator, _ := ctx.Value(operatorKey{}).(string)
	return operator
}
