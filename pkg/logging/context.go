package logging

import (
	"context"
)

type ctxKey string

const (
	RequestIDKey   ctxKey = "request_id"
	ThreadIDKey    ctxKey = "thread_id"
	StageKey       ctxKey = "stage"
	ServiceNameKey ctxKey = "service_name"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

func WithThreadID(ctx context.Context, threadID string) context.Context {
	return context.WithValue(ctx, ThreadIDKey, threadID)
}

func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, StageKey, stage)
}

func WithServiceName(ctx context.Context, serviceName string) context.Context {
	return context.WithValue(ctx, ServiceNameKey, serviceName)
}

func value(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

func GetRequestID(ctx context.Context) string {
	return value(ctx, RequestIDKey)
}

func GetThreadID(ctx context.Context) string {
	return value(ctx, ThreadIDKey)
}

func GetStage(ctx context.Context) string {
	return value(ctx, StageKey)
}

func GetServiceName(ctx context.Context) string {
	return value(ctx, ServiceNameKey)
}

func GetLogFields(ctx context.Context) []interface{} {
	fields := make([]interface{}, 0, 8)

	for _, key := range []ctxKey{RequestIDKey, ThreadIDKey, StageKey, ServiceNameKey} {
		if v := value(ctx, key); v != "" {
			fields = append(fields, string(key), v)
		}
	}

	return fields
}
