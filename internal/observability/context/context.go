package context

import "context"

type requestIDKey struct{}
type buyerIDKey struct{}

// WithRequestID stores the request correlation id on the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestIDFromContext returns the request id or "".
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}

// WithBuyerID stores the authenticated buyer id on the context.
func WithBuyerID(ctx context.Context, buyerID string) context.Context {
	if buyerID == "" {
		return ctx
	}
	return context.WithValue(ctx, buyerIDKey{}, buyerID)
}

// BuyerIDFromContext returns the buyer id or "".
func BuyerIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(buyerIDKey{}).(string); ok {
		return v
	}
	return ""
}
