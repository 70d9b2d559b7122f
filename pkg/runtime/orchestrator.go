// Package runtime implements the top-level facade tying a loaded
// protocol document to a state store, resolver, and evaluator: method
// invocation, the event log, snapshots, and persistence.
package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/cardity-org/cardity-wasm/pkg/document"
	"github.com/cardity-org/cardity-wasm/pkg/eval"
	"github.com/cardity-org/cardity-wasm/pkg/resolver"
	"github.com/cardity-org/cardity-wasm/pkg/state"
	"github.com/cardity-org/cardity-wasm/pkg/state/memstore"
	"github.com/cardity-org/cardity-wasm/pkg/value"
)

// MethodResult is the outcome of one CallMethod invocation. Events holds
// only the events emitted during this call; they are also appended to
// the global event log.
type MethodResult struct {
	Success     bool      `json:"success"`
	ReturnValue string    `json:"return_value"`
	Events      []Event   `json:"events"`
	Error       string    `json:"error_message,omitempty"`
	ErrorKind   ErrorKind `json:"error_kind,omitempty"`
}

// Orchestrator owns a protocol document, its state store, resolver,
// evaluator, and event log. A single Orchestrator is single-threaded
// from the DSL's point of view: the mutex makes each exported operation
// atomic so the optional RPC facade can share one instance, but no two
// invocations ever interleave.
type Orchestrator struct {
	mu sync.Mutex

	cfg     Config
	backend state.Backend
	store   *state.Store
	res     *resolver.Resolver
	eval    *eval.Evaluator
	events  *EventLog
	doc     *document.Document

	logger  *slog.Logger
	metrics Metrics
	tracer  CallTracer
	clock   Clock
}

// New creates an Orchestrator with no protocol loaded. Defaults: an
// in-memory backend, discarded logs, no-op metrics and tracing, and the
// system clock.
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:     DefaultConfig(),
		logger:  slog.New(nopLogHandler{}),
		metrics: nopMetrics{},
		tracer:  nopTracer{},
		clock:   systemClock{},
		events:  NewEventLog(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.backend == nil {
		o.backend = memstore.New()
	}
	o.store = state.NewStore(o.backend)
	o.res = resolver.New(o.store)
	o.eval = eval.New(o.res)
	o.eval.SetEmitHook(func(name string, values []string) {
		o.appendEvent(name, values)
	})
	return o
}

// Close releases the underlying backend's resources.
func (o *Orchestrator) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.store.Close()
}

// Config returns the active runtime options.
func (o *Orchestrator) Config() Config {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cfg
}

// SetConfig replaces the runtime options.
func (o *Orchestrator) SetConfig(cfg Config) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cfg = cfg
}

// LoadProtocolFile loads and validates the PD at path, then initializes
// state from the declared defaults, overwriting any existing state.
func (o *Orchestrator) LoadProtocolFile(path string) error {
	doc, err := document.LoadFile(path)
	if err != nil {
		return o.classifyLoadError(err)
	}
	return o.install(doc)
}

// LoadProtocolJSON loads and validates a PD from raw JSON bytes.
func (o *Orchestrator) LoadProtocolJSON(data []byte) error {
	doc, err := document.Load(data)
	if err != nil {
		return o.classifyLoadError(err)
	}
	return o.install(doc)
}

// LoadProtocolTOMLFile loads and validates a TOML-wrapped PD.
func (o *Orchestrator) LoadProtocolTOMLFile(path string) error {
	doc, err := document.LoadTOMLFile(path)
	if err != nil {
		return o.classifyLoadError(err)
	}
	return o.install(doc)
}

// LoadProtocolBase64 loads and validates a base64-wrapped PD.
func (o *Orchestrator) LoadProtocolBase64(s string) error {
	doc, err := document.LoadBase64(s)
	if err != nil {
		return o.classifyLoadError(err)
	}
	return o.install(doc)
}

func (o *Orchestrator) classifyLoadError(err error) error {
	if errors.Is(err, document.ErrSchema) {
		return wrapError(KindSchema, "protocol validation failed", err)
	}
	return wrapError(KindLoad, "protocol load failed", err)
}

func (o *Orchestrator) install(doc *document.Document) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.doc = doc
	o.eval.RestrictWrites(doc.StateNames())
	if err := o.resetStateLocked(); err != nil {
		return err
	}

	o.logger.Info("protocol loaded",
		slog.String("protocol", doc.Protocol),
		slog.String("version", doc.Version),
		slog.String("hash", doc.Hash),
		slog.Int("methods", len(doc.CPL.Methods)),
		slog.Int("state_vars", len(doc.CPL.State)))
	return nil
}

// Document returns the loaded PD, or nil if none is loaded.
func (o *Orchestrator) Document() *document.Document {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.doc
}

// CallMethod looks up the named method, binds args positionally into
// the parameter frame, executes the body, and computes the return
// value. All failures are reported in the result, never panicked.
func (o *Orchestrator) CallMethod(ctx context.Context, name string, args []string) MethodResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.callLocked(ctx, name, args)
}

func (o *Orchestrator) callLocked(ctx context.Context, name string, args []string) MethodResult {
	if o.doc == nil {
		return o.failure(name, newError(KindLoad, "no protocol loaded"))
	}

	method, ok := o.doc.Method(name)
	if !ok {
		return o.failure(name, newError(KindMethodNotFound, fmt.Sprintf("Method not found: %s", name)))
	}

	if len(args) != len(method.Params) {
		return o.failure(name, newError(KindArity,
			fmt.Sprintf("Parameter count mismatch. Expected %d, got %d", len(method.Params), len(args))))
	}

	_, span := o.tracer.StartCall(ctx, o.doc.Protocol, name)
	start := o.clock.Now()

	frame := make(map[string]string, len(method.Params))
	for i, param := range method.Params {
		frame[param] = args[i]
	}
	o.res.SetFrame(frame)
	defer o.res.ClearFrame()

	var preState map[string]state.Entry
	if o.cfg.Transactional {
		all, err := o.store.Backend().GetAll()
		if err != nil {
			span.End(false, err.Error())
			return o.failure(name, wrapError(KindPersistence, "read state for transactional call", err))
		}
		preState = all
	}
	eventMark := o.events.Len()

	result := o.executeLocked(method)

	if !result.Success && o.cfg.Transactional {
		o.rollbackLocked(preState, eventMark)
		result.Events = nil
	} else {
		result.Events = o.events.All()[eventMark:]
	}

	elapsed := o.clock.Now().Sub(start)
	outcome := "ok"
	if !result.Success {
		outcome = result.ErrorKind.String()
	}
	o.metrics.IncCalls(name, outcome)
	o.metrics.ObserveCallDuration(name, elapsed.Seconds())
	o.metrics.SetStateSize(o.store.Size())
	span.End(result.Success, result.Error)

	o.logger.Debug("method called",
		slog.String("method", name),
		slog.Bool("success", result.Success),
		slog.Int("events", len(result.Events)))
	return result
}

func (o *Orchestrator) executeLocked(method document.Method) MethodResult {
	var returnValue string

	if method.Body != "" {
		last, err := o.eval.ExecBody(method.Body)
		if err != nil {
			return o.evalFailure(err)
		}
		returnValue = last
	}

	if method.Returns != "" {
		ret, err := o.eval.EvalReturn(method.Returns)
		if err != nil {
			return o.evalFailure(err)
		}
		returnValue = ret
	}

	return MethodResult{Success: true, ReturnValue: returnValue}
}

func (o *Orchestrator) evalFailure(err error) MethodResult {
	e := wrapError(KindEval, "method execution failed", err)
	return MethodResult{Success: false, Error: e.Error(), ErrorKind: KindEval}
}

func (o *Orchestrator) failure(method string, err *Error) MethodResult {
	o.logger.Debug("call rejected",
		slog.String("method", method),
		slog.String("kind", err.Kind.String()),
		slog.String("error", err.Message))
	o.metrics.IncCalls(method, err.Kind.String())
	return MethodResult{Success: false, Error: err.Error(), ErrorKind: err.Kind}
}

func (o *Orchestrator) rollbackLocked(pre map[string]state.Entry, eventMark int) {
	if err := o.store.Backend().Clear(); err != nil {
		o.logger.Error("rollback clear failed", slog.String("error", err.Error()))
		return
	}
	if err := o.store.Backend().SetMany(pre); err != nil {
		o.logger.Error("rollback restore failed", slog.String("error", err.Error()))
		return
	}
	o.events.Replace(o.events.All()[:eventMark])
}

// CallMethodWithJSON applies JSON-shaped arguments: an array binds
// positionally; an object is matched against the declared parameter
// names, with missing entries defaulting to the empty string.
func (o *Orchestrator) CallMethodWithJSON(ctx context.Context, name string, args json.RawMessage) MethodResult {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.doc == nil {
		return o.failure(name, newError(KindLoad, "no protocol loaded"))
	}
	method, ok := o.doc.Method(name)
	if !ok {
		return o.failure(name, newError(KindMethodNotFound, fmt.Sprintf("Method not found: %s", name)))
	}

	stringArgs, err := coerceJSONArgs(method, args)
	if err != nil {
		return o.failure(name, wrapError(KindEval, "malformed JSON arguments", err))
	}
	return o.callLocked(ctx, name, stringArgs)
}

func coerceJSONArgs(method document.Method, args json.RawMessage) ([]string, error) {
	if len(args) == 0 {
		return nil, nil
	}

	var arr []json.RawMessage
	if err := json.Unmarshal(args, &arr); err == nil {
		out := make([]string, len(arr))
		for i, raw := range arr {
			out[i] = jsonArgString(raw)
		}
		return out, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(args, &obj); err != nil {
		return nil, fmt.Errorf("arguments must be a JSON array or object: %w", err)
	}
	out := make([]string, len(method.Params))
	for i, param := range method.Params {
		if raw, ok := obj[param]; ok {
			out[i] = jsonArgString(raw)
		}
	}
	return out, nil
}

// jsonArgString unwraps a JSON string argument; any other value is
// passed through as its compact JSON encoding.
func jsonArgString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// GetState reads a state key directly, bypassing the evaluator.
func (o *Orchestrator) GetState(key string) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.store.Get(key)
}

// SetState writes a state key directly, bypassing the evaluator.
func (o *Orchestrator) SetState(key, v string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.store.Set(key, v); err != nil {
		return wrapError(KindPersistence, "set state", err)
	}
	return nil
}

// GetAllState returns every state key and its canonical value.
func (o *Orchestrator) GetAllState() (map[string]string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	all, err := o.store.GetAll()
	if err != nil {
		return nil, wrapError(KindPersistence, "read state", err)
	}
	return all, nil
}

// EmitEvent appends an event directly, outside any method body.
func (o *Orchestrator) EmitEvent(name string, values []string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.appendEvent(name, values)
}

func (o *Orchestrator) appendEvent(name string, values []string) {
	if !o.cfg.EnableEvents {
		return
	}
	if values == nil {
		values = []string{}
	}
	o.events.Append(Event{
		Name:      name,
		Values:    values,
		Timestamp: o.clock.Now().Format(timestampLayout),
	})
	o.metrics.IncEventsEmitted(name)
}

// Events returns the global event log in emission order.
func (o *Orchestrator) Events() []Event {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.events.All()
}

// ClearEventLog discards the global event log.
func (o *Orchestrator) ClearEventLog() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events.Clear()
}

// SaveStateToFile persists the state store to path in the state file
// format.
func (o *Orchestrator) SaveStateToFile(path string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.store.Save(path); err != nil {
		return wrapError(KindPersistence, "save state", err)
	}
	return nil
}

// LoadStateFromFile replaces the state store's contents from the state
// file at path.
func (o *Orchestrator) LoadStateFromFile(path string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.store.Load(path); err != nil {
		return wrapError(KindPersistence, "load state", err)
	}
	return nil
}

// ResetState clears the store and reinstalls the declared defaults.
func (o *Orchestrator) ResetState() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.resetStateLocked()
}

func (o *Orchestrator) resetStateLocked() error {
	if err := o.store.Clear(); err != nil {
		return wrapError(KindPersistence, "clear state", err)
	}
	if o.doc == nil {
		return nil
	}
	for name, v := range o.doc.CPL.State {
		if err := o.store.SetTyped(name, value.ParseKind(v.Type), v.Default); err != nil {
			return wrapError(KindPersistence, fmt.Sprintf("install default for %q", name), err)
		}
	}
	return nil
}

// Reset drops the loaded PD, clears the state store, and discards the
// event log.
func (o *Orchestrator) Reset() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.doc = nil
	o.eval.RestrictWrites(nil)
	o.events.Clear()
	if err := o.store.Clear(); err != nil {
		return wrapError(KindPersistence, "clear state", err)
	}
	return nil
}
