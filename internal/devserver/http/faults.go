package http

import (
	"maps"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/arcade/pkg/httpx"
	"github.com/aussiebroadwan/arcade/pkg/slogx"
)

// Fault makes the next Times requests to Path misbehave. With Status set
// the request is answered with it; with Drop the connection is closed
// without a response; with only DelayMS the request is slowed down and then
// served normally.
type Fault struct {
	Path    string `json:"path"`
	Method  string `json:"method,omitempty"`
	Status  int    `json:"status,omitempty"`
	Body    string `json:"body,omitempty"` // sent verbatim; a default error body otherwise
	Drop    bool   `json:"drop,omitempty"`
	DelayMS int    `json:"delay_ms,omitempty"`
	Times   int    `json:"times,omitempty"` // defaults to 1
}

type faultInjector struct {
	mu     sync.Mutex
	queued []Fault
	hits   map[string]int
}

func newFaultInjector() *faultInjector {
	return &faultInjector{hits: make(map[string]int)}
}

func (f *faultInjector) inject(faults ...Fault) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, fault := range faults {
		fault.Times = max(fault.Times, 1)
		f.queued = append(f.queued, fault)
	}
}

func (f *faultInjector) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queued = nil
	f.hits = make(map[string]int)
}

func (f *faultInjector) hitCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

func (f *faultInjector) snapshot() map[string]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return maps.Clone(f.hits)
}

// take records a hit and pops the first fault matching r.
func (f *faultInjector) take(r *http.Request) (Fault, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.hits[r.URL.Path]++

	for i := range f.queued {
		fault := &f.queued[i]
		if fault.Path != r.URL.Path {
			continue
		}
		if fault.Method != "" && !strings.EqualFold(fault.Method, r.Method) {
			continue
		}

		taken := *fault
		fault.Times--
		if fault.Times == 0 {
			f.queued = append(f.queued[:i], f.queued[i+1:]...)
		}
		return taken, true
	}
	return Fault{}, false
}

// InjectFaults queues faults for upcoming requests.
func (rt *Router) InjectFaults(faults ...Fault) {
	rt.faults.inject(faults...)
}

// ResetFaults drops queued faults and zeroes hit counters.
func (rt *Router) ResetFaults() {
	rt.faults.reset()
}

// Hits returns how many requests reached path, faulted ones included.
func (rt *Router) Hits(path string) int {
	return rt.faults.hitCount(path)
}

func (rt *Router) faultMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/debug/") {
			next.ServeHTTP(w, r)
			return
		}

		fault, ok := rt.faults.take(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		log := slogx.FromContext(r.Context())
		log.Info("injecting fault", "status", fault.Status, "drop", fault.Drop, "delay_ms", fault.DelayMS)

		if fault.DelayMS > 0 {
			t := time.NewTimer(time.Duration(fault.DelayMS) * time.Millisecond)
			select {
			case <-t.C:
			case <-r.Context().Done():
				t.Stop()
				return
			}
		}

		switch {
		case fault.Drop:
			conn, _, err := http.NewResponseController(w).Hijack()
			if err != nil {
				log.Error("fault: hijack failed", "err", err)
				httpx.WriteError(w, http.StatusBadGateway, httpx.CodeUnavailable, "connection drop unsupported")
				return
			}
			_ = conn.Close()
		case fault.Status != 0 && fault.Body != "":
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(fault.Status)
			_, _ = w.Write([]byte(fault.Body))
		case fault.Status != 0:
			code := httpx.CodeInternal
			if fault.Status == http.StatusServiceUnavailable {
				code = httpx.CodeUnavailable
			}
			rt.writeError(w, fault.Status, code, "injected fault")
		default:
			next.ServeHTTP(w, r)
		}
	})
}

func (rt *Router) handleInjectFaults(w http.ResponseWriter, r *http.Request) {
	var faults []Fault
	if err := rt.decode(r, &faults); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeInvalidArgument, err.Error())
		return
	}
	for _, f := range faults {
		if f.Path == "" {
			httpx.WriteError(w, http.StatusBadRequest, httpx.CodeInvalidArgument, "fault path is required")
			return
		}
	}
	rt.InjectFaults(faults...)
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) handleResetFaults(w http.ResponseWriter, r *http.Request) {
	rt.ResetFaults()
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) handleHits(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"hits": rt.faults.snapshot()})
}
