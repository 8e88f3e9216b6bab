// Package scripting executes user-supplied JavaScript in a sandboxed runtime
// with hard wall-clock and heap quotas.
//
// All execution is funneled through a single worker goroutine owning one VM
// at a time: termination semantics stay deterministic and a burst of script
// work cannot exhaust the process. Callers submit work and receive results
// over a one-shot response channel.
package scripting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/dop251/goja"

	apperrors "github.com/retrack-dev/retrack/internal/errors"
)

// watchdogInterval is the maximum gap between execution-status checks.
const watchdogInterval = 100 * time.Millisecond

// terminationReason records why the watchdog interrupted a script. It is
// shared between the worker and the watchdog, hence the atomic accessors.
type terminationReason = int32

const (
	terminationNone terminationReason = iota
	terminationMemory
	terminationTime
)

// Config holds the runtime quotas.
type Config struct {
	// MaxHeapBytes caps the heap growth attributable to a single execution.
	MaxHeapBytes int64
	// MaxExecutionTime caps the wall-clock time of a single execution.
	MaxExecutionTime time.Duration
	// QueueCapacity bounds the submission queue; overflow is a caller error.
	QueueCapacity int
}

// DefaultConfig returns the runtime quotas used when the server config is
// silent: 10 MiB heap, 10 s wall clock.
func DefaultConfig() Config {
	return Config{
		MaxHeapBytes:     10 * 1024 * 1024,
		MaxExecutionTime: 10 * time.Second,
		QueueCapacity:    64,
	}
}

// ExecuteParams describes a single script execution.
type ExecuteParams struct {
	// Source is the script text; the last evaluated expression is the result.
	Source string
	// Args, when non-nil, are JSON-serialized and exposed to the script as
	// the single global name "context".
	Args any
	// Timeout optionally lowers the configured wall-clock cap for this
	// execution.
	Timeout time.Duration
}

type request struct {
	params ExecuteParams
	result chan response
}

type response struct {
	value json.RawMessage
	err   error
}

// Runtime is the engine's sandboxed script executor.
type Runtime struct {
	cfg      Config
	logger   *slog.Logger
	requests chan *request
	stop     chan struct{}
}

// NewRuntime creates the runtime and starts its worker goroutine.
func NewRuntime(cfg Config, logger *slog.Logger) *Runtime {
	if cfg.MaxHeapBytes <= 0 {
		cfg.MaxHeapBytes = DefaultConfig().MaxHeapBytes
	}
	if cfg.MaxExecutionTime <= 0 {
		cfg.MaxExecutionTime = DefaultConfig().MaxExecutionTime
	}
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = DefaultConfig().QueueCapacity
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &Runtime{
		cfg:      cfg,
		logger:   logger,
		requests: make(chan *request, cfg.QueueCapacity),
		stop:     make(chan struct{}),
	}
	go r.worker()
	return r
}

// Close stops the worker. Pending submissions fail with a canceled error.
func (r *Runtime) Close() {
	close(r.stop)
}

// Execute runs a script and returns its JSON-serialized result.
func (r *Runtime) Execute(ctx context.Context, params ExecuteParams) (json.RawMessage, error) {
	req := &request{
		params: params,
		result: make(chan response, 1),
	}

	select {
	case r.requests <- req:
	default:
		return nil, apperrors.Internal("script execution queue is full")
	}

	select {
	case resp := <-req.result:
		return resp.value, resp.err
	case <-ctx.Done():
		// The worker keeps running the script to completion; the watchdog
		// still bounds it.
		return nil, apperrors.Wrap(ctx.Err(), apperrors.ErrCodeCanceled, "script execution canceled")
	case <-r.stop:
		return nil, apperrors.Internal("script runtime is shut down")
	}
}

// worker executes queued scripts one at a time.
func (r *Runtime) worker() {
	for {
		select {
		case req := <-r.requests:
			value, err := r.run(req.params)
			req.result <- response{value: value, err: err}
		case <-r.stop:
			return
		}
	}
}

// run executes a single script on a fresh VM with the quotas armed.
func (r *Runtime) run(params ExecuteParams) (json.RawMessage, error) {
	vm := goja.New()
	hardenGlobals(vm)

	if params.Args != nil {
		if err := bindContext(vm, params.Args); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeScript, "cannot serialize script context")
		}
	}

	timeout := r.cfg.MaxExecutionTime
	if params.Timeout > 0 && params.Timeout < timeout {
		timeout = params.Timeout
	}

	var reason atomic.Int32
	done := make(chan struct{})
	go r.watchdog(vm, timeout, done, &reason)

	value, err := vm.RunString(params.Source)
	close(done)

	if err != nil {
		return nil, r.classifyError(err, reason.Load())
	}

	value, err = awaitValue(value)
	if err != nil {
		return nil, r.classifyError(err, reason.Load())
	}

	out, err := json.Marshal(value.Export())
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeScript, "cannot serialize script result")
	}
	return out, nil
}

// watchdog polls the execution status and interrupts the VM when a quota is
// exceeded. The reason is stored before the interrupt is raised so the worker
// observes it once RunString returns.
func (r *Runtime) watchdog(vm *goja.Runtime, timeout time.Duration, done <-chan struct{}, reason *atomic.Int32) {
	var baseline runtime.MemStats
	runtime.ReadMemStats(&baseline)

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(watchdogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
		}

		// The worker runs one script at a time, so heap growth over the
		// baseline is attributable to this execution. This approximates a
		// per-isolate heap cap.
		var current runtime.MemStats
		runtime.ReadMemStats(&current)
		if grown := int64(current.HeapAlloc) - int64(baseline.HeapAlloc); grown > r.cfg.MaxHeapBytes {
			r.logger.Error("script approaching the memory limit, terminating execution",
				"heap_growth", grown, "limit", r.cfg.MaxHeapBytes)
			reason.Store(terminationMemory)
			vm.Interrupt(terminationMemory)
			return
		}

		if !time.Now().Before(deadline) {
			reason.Store(terminationTime)
			vm.Interrupt(terminationTime)
			return
		}
	}
}

// Sentinel errors identifying which quota terminated a script. Callers can
// test for them with errors.Is; both carry the script error code.
var (
	ErrMemoryLimit = errors.New("memory limit exceeded")
	ErrTimeLimit   = errors.New("time limit exceeded")
)

// classifyError maps a VM error to the script error taxonomy using the
// termination reason recorded by the watchdog.
func (r *Runtime) classifyError(err error, reason terminationReason) error {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		switch reason {
		case terminationMemory:
			return apperrors.Wrap(fmt.Errorf("%w: %w", ErrMemoryLimit, err),
				apperrors.ErrCodeScript, "script exceeded memory limit")
		case terminationTime:
			return apperrors.Wrap(fmt.Errorf("%w: %w", ErrTimeLimit, err),
				apperrors.ErrCodeScript, "script exceeded time limit")
		}
	}
	return apperrors.Wrap(err, apperrors.ErrCodeScript, "script execution failed")
}

// awaitValue unwraps a thenable result. The VM has already drained its
// microtask queue, so a pending promise at this point can never settle.
func awaitValue(value goja.Value) (goja.Value, error) {
	promise, ok := value.Export().(*goja.Promise)
	if !ok {
		return value, nil
	}

	switch promise.State() {
	case goja.PromiseStateFulfilled:
		return promise.Result(), nil
	case goja.PromiseStateRejected:
		return nil, fmt.Errorf("script promise rejected: %s", promise.Result().String())
	default:
		return nil, fmt.Errorf("script returned a promise that never settles")
	}
}

// bindContext exposes the JSON-serialized args as the global "context".
func bindContext(vm *goja.Runtime, args any) error {
	encoded, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode script args: %w", err)
	}

	var decoded any
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		return fmt.Errorf("decode script args: %w", err)
	}
	return vm.Set("context", decoded)
}

// forbiddenGlobals lists host facilities that must never be reachable from a
// user script, mirroring the runtime-op blocklist of the execution contract.
var forbiddenGlobals = []string{
	"require",
	"process",
	"load",
	"loadWithNewGlobal",
	"readFile",
	"quit",
	"exit",
}

// hardenGlobals removes any engine-provided escape hatches before execution.
func hardenGlobals(vm *goja.Runtime) {
	global := vm.GlobalObject()
	for _, name := range forbiddenGlobals {
		if global.Get(name) != nil {
			_ = global.Delete(name)
		}
	}
}
