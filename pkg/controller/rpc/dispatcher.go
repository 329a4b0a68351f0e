/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package rpc dispatches service method calls received across the process boundary and provides the
// callers issuing them.
//
// Only methods registered from a service's static handler table are reachable. A request is checked
// in this order: unknown service, unknown method, rate limit, method validator, then executed.
package rpc

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/exp/maps"
	"golang.org/x/time/rate"

	"github.com/hyperledger/aries-wallet-go/component/log"
	"github.com/hyperledger/aries-wallet-go/pkg/common/walleterr"
	"github.com/hyperledger/aries-wallet-go/pkg/controller/command"
)

var logger = log.New("wallet/rpc")

const (
	defaultWorkers = 2

	// DefaultUnlockBurst is the number of unlock attempts accepted at once.
	DefaultUnlockBurst = 5
)

// DefaultUnlockRate is the sustained rate of accepted wallet.unlock calls.
var DefaultUnlockRate = rate.Every(time.Second) //nolint:gochecknoglobals

type limit struct {
	rate  rate.Limit
	burst int
}

// Opt configures a Dispatcher.
type Opt func(d *Dispatcher)

// WithWorkers sets the number of workers of Serve.
func WithWorkers(n int) Opt {
	return func(d *Dispatcher) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithRateLimit limits the calls of service.method. Calls above the limit fail with RateLimited.
func WithRateLimit(service, method string, r rate.Limit, burst int) Opt {
	return func(d *Dispatcher) {
		d.limits[key(service, method)] = limit{rate: r, burst: burst}
	}
}

// WithRequestLog records the outcome of every dispatched request.
func WithRequestLog(l *RequestLog) Opt {
	return func(d *Dispatcher) {
		d.requestLog = l
	}
}

// Dispatcher routes requests to registered command handlers.
type Dispatcher struct {
	mutex      sync.RWMutex
	handlers   map[string]map[string]command.Handler
	limits     map[string]limit
	limiters   map[string]*rate.Limiter
	workers    int
	requestLog *RequestLog
}

// New returns a Dispatcher. wallet.unlock is rate limited unless WithRateLimit overrides it.
func New(opts ...Opt) *Dispatcher {
	d := &Dispatcher{
		handlers: map[string]map[string]command.Handler{},
		limits: map[string]limit{
			key("wallet", "unlock"): {rate: DefaultUnlockRate, burst: DefaultUnlockBurst},
		},
		limiters: map[string]*rate.Limiter{},
		workers:  defaultWorkers,
	}

	for _, opt := range opts {
		opt(d)
	}

	for k, l := range d.limits {
		d.limiters[k] = rate.NewLimiter(l.rate, l.burst)
	}

	return d
}

func key(service, method string) string {
	return service + "." + method
}

// Register adds the handlers of a service table. Registering a service.method twice is an error.
func (d *Dispatcher) Register(handlers ...command.Handler) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	for _, h := range handlers {
		methods, ok := d.handlers[h.Name()]
		if !ok {
			methods = map[string]command.Handler{}
			d.handlers[h.Name()] = methods
		}

		if _, exists := methods[h.Method()]; exists {
			return walleterr.New(walleterr.InvalidConfiguration, "method %s is already registered",
				key(h.Name(), h.Method()))
		}

		methods[h.Method()] = h
	}

	return nil
}

// Services returns the registered service names, sorted.
func (d *Dispatcher) Services() []string {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	services := maps.Keys(d.handlers)
	sort.Strings(services)

	return services
}

// Methods returns the methods of service, sorted.
func (d *Dispatcher) Methods(service string) []string {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	methods := maps.Keys(d.handlers[service])
	sort.Strings(methods)

	return methods
}

func (d *Dispatcher) lookup(req *Request) (command.Handler, error) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	methods, ok := d.handlers[req.Service]
	if !ok {
		return nil, walleterr.New(walleterr.UnknownService, "unknown service '%s'", req.Service)
	}

	h, ok := methods[req.Method]
	if !ok {
		return nil, walleterr.New(walleterr.UnknownMethod, "unknown method '%s' of service '%s'",
			req.Method, req.Service)
	}

	return h, nil
}

// Dispatch executes req and returns its response. Dispatch never panics: a panicking handler yields an
// InternalFailure response.
func (d *Dispatcher) Dispatch(ctx context.Context, req *Request) *Response {
	started := time.Now()

	resp := d.dispatch(ctx, req)

	if d.requestLog != nil && req != nil {
		if err := d.requestLog.Record(req, resp, started); err != nil {
			logger.Warnf("failed to record request %s: %s", req, err)
		}
	}

	return resp
}

func (d *Dispatcher) dispatch(ctx context.Context, req *Request) (resp *Response) {
	if req == nil {
		return errorResponse("", walleterr.New(walleterr.ValidationError, "request is required"))
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("panic while handling %s: %v", req, r)

			resp = errorResponse(req.ID, walleterr.New(walleterr.InternalFailure,
				"internal failure while handling %s", key(req.Service, req.Method)))
		}
	}()

	h, err := d.lookup(req)
	if err != nil {
		return errorResponse(req.ID, err)
	}

	if l, ok := d.limiters[key(req.Service, req.Method)]; ok && !l.Allow() {
		return errorResponse(req.ID, walleterr.New(walleterr.RateLimited, "too many %s calls, retry later",
			key(req.Service, req.Method)))
	}

	if validate := h.Validator(); validate != nil {
		if err := validate(req.Params); err != nil {
			return errorResponse(req.ID, err)
		}
	}

	var out bytes.Buffer

	if cmdErr := h.Handle()(ctx, &out, bytes.NewReader(req.Params)); cmdErr != nil {
		return errorResponse(req.ID, cmdErr)
	}

	result := bytes.TrimSpace(out.Bytes())
	if len(result) == 0 {
		result = []byte("null")
	}

	return &Response{ID: req.ID, OK: true, Result: result}
}

// Serve dispatches the requests of in with a pool of workers and writes responses to out until in is
// closed or ctx is done. Serve returns once every worker stopped; it never closes out.
func (d *Dispatcher) Serve(ctx context.Context, in <-chan *Request, out chan<- *Response) {
	var wg sync.WaitGroup

	for w := 0; w < d.workers; w++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			d.worker(ctx, in, out)
		}()
	}

	wg.Wait()
}

func (d *Dispatcher) worker(ctx context.Context, in <-chan *Request, out chan<- *Response) {
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-in:
			if !ok {
				return
			}

			if req != nil && req.ID == "" {
				logger.Warnf("missing ID for request %s", key(req.Service, req.Method))
			}

			resp := d.Dispatch(ctx, req)

			select {
			case out <- resp:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Call dispatches an in-process call. It satisfies Caller.
func (d *Dispatcher) Call(ctx context.Context, service, method string, params, result interface{}) error {
	req, err := NewRequest(service, method, params)
	if err != nil {
		return err
	}

	resp := d.Dispatch(ctx, req)

	if resp.ID != req.ID {
		return walleterr.New(walleterr.InternalFailure, "response id %s does not match %s", resp.ID, req.ID)
	}

	return DecodeResult(resp, result)
}
