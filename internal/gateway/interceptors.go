package gateway

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/flowpro-icc/tnc-gateway/pkg/metrics"
)

// UnaryServerInterceptor traces, times, and logs every unary request.
func UnaryServerInterceptor(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		startTime := time.Now()
		svcName, methodName := extractServiceAndMethod(info.FullMethod)

		spanCtx, span := otel.Tracer("grpc.server").Start(ctx, info.FullMethod)
		defer span.End()

		metrics.ActiveRequests.Inc()
		resp, err := handler(spanCtx, req)
		metrics.ActiveRequests.Dec()

		duration := time.Since(startTime).Seconds()
		metrics.RequestDuration.WithLabelValues(info.FullMethod, status.Code(err).String()).Observe(duration)
		if err != nil {
			span.RecordError(err)
		}

		// Health probes are frequent and uninteresting.
		if svcName != "grpc.health.v1.Health" {
			log.Info("handled request",
				zap.String("service", svcName),
				zap.String("method", methodName),
				zap.String("trace_id", trace.SpanContextFromContext(spanCtx).TraceID().String()),
				zap.Float64("duration_seconds", duration),
				zap.Error(err),
			)
		}

		return resp, err
	}
}

// StreamServerInterceptor traces, times, and logs every stream.
func StreamServerInterceptor(log *zap.Logger) grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		svcName, methodName := extractServiceAndMethod(info.FullMethod)

		ctx, span := otel.Tracer("grpc.server").Start(ss.Context(), info.FullMethod)
		defer span.End()

		wrapped := &wrappedStream{
			ServerStream: ss,
			ctx:          ctx,
		}

		start := time.Now()
		metrics.ActiveRequests.Inc()
		err := handler(srv, wrapped)
		metrics.ActiveRequests.Dec()

		duration := time.Since(start).Seconds()
		metrics.RequestDuration.WithLabelValues(info.FullMethod, status.Code(err).String()).Observe(duration)
		if err != nil {
			span.RecordError(err)
		}

		log.Info("gRPC stream",
			zap.String("service", svcName),
			zap.String("method", methodName),
			zap.String("trace_id", trace.SpanContextFromContext(ctx).TraceID().String()),
			zap.Float64("duration_seconds", duration),
			zap.Error(err),
		)

		return err
	}
}

// wrappedStream carries the tracing context into the handler.
type wrappedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (w *wrappedStream) Context() context.Context {
	return w.ctx
}

// extractServiceAndMethod splits "/package.service/method".
func extractServiceAndMethod(fullMethod string) (serviceName, methodName string) {
	parts := strings.SplitN(fullMethod[1:], "/", 2)
	if len(parts) != 2 {
		return "unknown", "unknown"
	}
	return parts[0], parts[1]
}
