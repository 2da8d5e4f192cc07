// Package dispatch routes named method calls to their workflows and folds
// every outcome into a uniform response envelope.
package dispatch

import (
	"context"
	"runtime"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"mhmd-mcp/backend/internal/artifacts"
	"mhmd-mcp/backend/internal/browser"
	"mhmd-mcp/backend/internal/interpreter"
	"mhmd-mcp/backend/internal/repository"
	"mhmd-mcp/backend/pkg/models"
)

const (
	serviceName    = "mhmd-mcp"
	serviceVersion = "1.0.0"
)

// Options tunes the Dispatcher.
type Options struct {
	// Timeout bounds one dispatch call end to end, covering every browser,
	// model, and store interaction within it.
	Timeout time.Duration
	// DefaultBaseURL is the frontend entry point workflows target when the
	// caller does not supply one.
	DefaultBaseURL string
}

// Dispatcher is the core command router. It holds no cross-call state; each
// Dispatch call is independent and all mutable state lives in the store.
type Dispatcher struct {
	store    repository.ProfileStore
	executor browser.Executor
	interp   interpreter.Interpreter
	saver    *artifacts.Saver
	logger   *zap.Logger
	opts     Options

	calls    metric.Int64Counter
	failures metric.Int64Counter
}

// New creates a Dispatcher.
func New(store repository.ProfileStore, executor browser.Executor, interp interpreter.Interpreter, saver *artifacts.Saver, logger *zap.Logger, opts Options) *Dispatcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Minute
	}
	if opts.DefaultBaseURL == "" {
		opts.DefaultBaseURL = "http://localhost:3000"
	}

	meter := otel.Meter("mhmd-mcp/backend/internal/dispatch")
	calls, _ := meter.Int64Counter("dispatch.calls",
		metric.WithDescription("Total dispatch calls by method"))
	failures, _ := meter.Int64Counter("dispatch.failures",
		metric.WithDescription("Failed dispatch calls by method and error kind"))

	return &Dispatcher{
		store:    store,
		executor: executor,
		interp:   interp,
		saver:    saver,
		logger:   logger.Named("dispatch"),
		opts:     opts,
		calls:    calls,
		failures: failures,
	}
}

// Dispatch routes one named call. It always returns a well-formed envelope:
// failures of any kind become success=false with a populated error, never a
// fault propagated to the transport. Partial side effects are not rolled
// back; the trace in the failure payload records what ran.
func (d *Dispatcher) Dispatch(ctx context.Context, method string, params map[string]any) models.Envelope {
	ctx, cancel := context.WithTimeout(ctx, d.opts.Timeout)
	defer cancel()

	d.calls.Add(ctx, 1, metric.WithAttributes(attribute.String("method", method)))

	m, ok := ParseMethod(method)
	if !ok {
		return d.finish(ctx, method, nil, failf(KindMethodNotFound, "unknown method %q", method))
	}

	var data any
	var derr *Error

	switch m {
	case MethodListMethods:
		data = Registry()
	case MethodEcho:
		data, derr = runEcho(params)
	case MethodCalculate:
		data, derr = runCalculate(params)
	case MethodSystemInfo:
		data = models.SystemInfo{
			Service:   serviceName,
			Version:   serviceVersion,
			GoVersion: runtime.Version(),
			OS:        runtime.GOOS,
			Arch:      runtime.GOARCH,
		}
	case MethodTakeScreenshot:
		data, derr = d.runTakeScreenshot(ctx, params)
	case MethodPreferenceToggle:
		data, derr = d.runPreferenceToggle(ctx, params)
	case MethodFreeTextCommand:
		data, derr = d.runFreeTextCommand(ctx, params)
	case MethodAPIProbe:
		data, derr = d.runAPIProbe(ctx, params)
	}

	return d.finish(ctx, method, data, derr)
}

// finish packages the workflow outcome. On failure the envelope keeps any
// partial payload (trace lines, artifacts captured before the failing step)
// alongside the error, to aid diagnosis.
func (d *Dispatcher) finish(ctx context.Context, method string, data any, derr *Error) models.Envelope {
	if derr == nil {
		d.logger.Info("dispatch succeeded", zap.String("method", method))
		return models.Envelope{Success: true, Data: data}
	}

	d.failures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("kind", string(derr.Kind)),
	))
	d.logger.Warn("dispatch failed",
		zap.String("method", method),
		zap.String("kind", string(derr.Kind)),
		zap.String("detail", derr.Detail),
	)
	return models.Envelope{Success: false, Data: data, Error: derr.Error()}
}

func runEcho(params map[string]any) (any, *Error) {
	message, derr := requiredStringParam(params, "message")
	if derr != nil {
		return nil, derr
	}
	return map[string]string{"message": message}, nil
}

func runCalculate(params map[string]any) (any, *Error) {
	in, derr := decodeCalculateInput(params)
	if derr != nil {
		return nil, derr
	}

	var result float64
	switch in.Operation {
	case "add":
		result = in.A + in.B
	case "subtract":
		result = in.A - in.B
	case "multiply":
		result = in.A * in.B
	case "divide":
		if in.B == 0 {
			return nil, failf(KindInvalidParameters, "parameter %q must not be zero for divide", "b")
		}
		result = in.A / in.B
	}

	return map[string]any{
		"operation": in.Operation,
		"a":         in.A,
		"b":         in.B,
		"result":    result,
	}, nil
}
