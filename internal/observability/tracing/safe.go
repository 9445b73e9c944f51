package tracing

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
)

// ExtractContext reads an upstream trace context from the carrier.
func ExtractContext(ctx context.Context, carrier propagation.TextMapCarrier) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, carrier)
}

// Free-text columns (notes, descriptions, names) must never end up on spans.
var blockedAttributeKeys = map[attribute.Key]struct{}{
	"notes":       {},
	"description": {},
	"custom_name": {},
	"status_name": {},
}

// SafeAttributes drops attributes that may carry tenant-authored text.
func SafeAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, blocked := blockedAttributeKeys[attr.Key]; blocked {
			continue
		}
		out = append(out, attr)
	}
	return out
}

// SafeError reduces an error to its message so wrapped values are not exported.
func SafeError(err error) error {
	if err == nil {
		return nil
	}
	return errors.New(err.Error())
}
