package metrics

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"
)

// Metric names.
const (
	RequestsTotal   = "http_requests_total"
	RequestDuration = "http_request_duration_seconds"
)

// unmatchedRoute labels requests that no route handled.
const unmatchedRoute = "unmatched"

type requestKey struct {
	route  string
	method string
	code   string // status class: 2xx, 4xx, ...
}

type latencyKey struct {
	route  string
	method string
}

type latency struct {
	count uint64
	sum   float64
}

type gauge struct {
	help string
	fn   func() float64
}

// Collector accumulates request metrics. Safe for concurrent use.
type Collector struct {
	mu       sync.Mutex
	requests map[requestKey]uint64
	latency  map[latencyKey]*latency
	gauges   map[string]gauge

	now func() time.Time
}

// New creates an empty Collector.
func New() *Collector {
	return &Collector{
		requests: make(map[requestKey]uint64),
		latency:  make(map[latencyKey]*latency),
		gauges:   make(map[string]gauge),
		now:      time.Now,
	}
}

// Gauge registers a gauge whose value is read from fn at exposition time.
// Registering the same name twice replaces the earlier gauge.
func (c *Collector) Gauge(name, help string, fn func() float64) {
	c.mu.Lock()
	c.gauges[name] = gauge{help: help, fn: fn}
	c.mu.Unlock()
}

// Middleware records every request that passes through it. It must be
// installed on a chi router so the matched route pattern is available once
// the request has been served.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := c.now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := unmatchedRoute
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		c.Observe(route, r.Method, ww.Status(), c.now().Sub(start))
	})
}

// Observe records one request. A zero status counts as 200, matching
// net/http's implicit WriteHeader.
func (c *Collector) Observe(route, method string, status int, d time.Duration) {
	if status == 0 {
		status = http.StatusOK
	}
	code := fmt.Sprintf("%dxx", status/100)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests[requestKey{route: route, method: method, code: code}]++
	l := c.latency[latencyKey{route: route, method: method}]
	if l == nil {
		l = &latency{}
		c.latency[latencyKey{route: route, method: method}] = l
	}
	l.count++
	l.sum += d.Seconds()
}

// Families returns a snapshot of all metric families, sorted by name.
func (c *Collector) Families() []*dto.MetricFamily {
	c.mu.Lock()
	reqKeys := make([]requestKey, 0, len(c.requests))
	for k := range c.requests {
		reqKeys = append(reqKeys, k)
	}
	sort.Slice(reqKeys, func(i, j int) bool {
		a, b := reqKeys[i], reqKeys[j]
		if a.route != b.route {
			return a.route < b.route
		}
		if a.method != b.method {
			return a.method < b.method
		}
		return a.code < b.code
	})
	requests := &dto.MetricFamily{
		Name: proto.String(RequestsTotal),
		Help: proto.String("HTTP requests by route, method and status class."),
		Type: dto.MetricType_COUNTER.Enum(),
	}
	for _, k := range reqKeys {
		requests.Metric = append(requests.Metric, &dto.Metric{
			Label:   labels("code", k.code, "method", k.method, "route", k.route),
			Counter: &dto.Counter{Value: proto.Float64(float64(c.requests[k]))},
		})
	}

	latKeys := make([]latencyKey, 0, len(c.latency))
	for k := range c.latency {
		latKeys = append(latKeys, k)
	}
	sort.Slice(latKeys, func(i, j int) bool {
		if latKeys[i].route != latKeys[j].route {
			return latKeys[i].route < latKeys[j].route
		}
		return latKeys[i].method < latKeys[j].method
	})
	durations := &dto.MetricFamily{
		Name: proto.String(RequestDuration),
		Help: proto.String("HTTP request latency by route and method."),
		Type: dto.MetricType_SUMMARY.Enum(),
	}
	for _, k := range latKeys {
		l := c.latency[k]
		durations.Metric = append(durations.Metric, &dto.Metric{
			Label: labels("method", k.method, "route", k.route),
			Summary: &dto.Summary{
				SampleCount: proto.Uint64(l.count),
				SampleSum:   proto.Float64(l.sum),
			},
		})
	}

	gauges := make(map[string]gauge, len(c.gauges))
	for name, g := range c.gauges {
		gauges[name] = g
	}
	c.mu.Unlock()

	var out []*dto.MetricFamily
	if len(requests.Metric) > 0 {
		out = append(out, requests)
	}
	if len(durations.Metric) > 0 {
		out = append(out, durations)
	}
	// Gauge funcs may take their own locks; call them outside c.mu.
	for name, g := range gauges {
		out = append(out, &dto.MetricFamily{
			Name: proto.String(name),
			Help: proto.String(g.help),
			Type: dto.MetricType_GAUGE.Enum(),
			Metric: []*dto.Metric{{
				Gauge: &dto.Gauge{Value: proto.Float64(g.fn())},
			}},
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GetName() < out[j].GetName() })
	return out
}

// WriteTo writes all families to w in the Prometheus text format.
func (c *Collector) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, mf := range c.Families() {
		n, err := expfmt.MetricFamilyToText(w, mf)
		total += int64(n)
		if err != nil {
			return total, fmt.Errorf("metrics: encode %s: %w", mf.GetName(), err)
		}
	}
	return total, nil
}

// ServeHTTP serves GET /metrics.
func (c *Collector) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", string(expfmt.NewFormat(expfmt.TypeTextPlain)))
	if _, err := c.WriteTo(w); err != nil {
		slog.Error("metrics: write exposition", "err", err)
	}
}

// labels builds label pairs from alternating name/value arguments. Names
// must already be sorted.
func labels(kv ...string) []*dto.LabelPair {
	out := make([]*dto.LabelPair, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, &dto.LabelPair{Name: proto.String(kv[i]), Value: proto.String(kv[i+1])})
	}
	return out
}
