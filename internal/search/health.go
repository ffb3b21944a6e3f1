package search

import (
	"strings"
	"time"

	"github.com/RanolP/imakaraokay/internal/domain"
	"github.com/RanolP/imakaraokay/internal/metrics"
)

type providerHealth struct {
	lastSuccessAt time.Time
	lastPanicAt   time.Time
	lastPanic     string
	lastLatency   time.Duration
	lastCount     int
	lastQuery     string
	totalRequests int64
	emptyCount    int64
	panicCount    int64
}

func (e *Engine) healthState(providerName string) *providerHealth {
	name := strings.ToLower(strings.TrimSpace(providerName))
	state := e.health[name]
	if state == nil {
		state = &providerHealth{}
		e.health[name] = state
	}
	return state
}

func (e *Engine) recordProviderResult(providerName string, kind domain.ProviderKind, query string, count int, latency time.Duration, now time.Time) {
	name := strings.ToLower(strings.TrimSpace(providerName))
	metrics.ProviderRequestDuration.WithLabelValues(name, string(kind)).Observe(latency.Seconds())
	metrics.ProviderResults.WithLabelValues(name, string(kind)).Observe(float64(count))

	e.healthMu.Lock()
	defer e.healthMu.Unlock()

	state := e.healthState(name)
	state.totalRequests++
	state.lastQuery = strings.TrimSpace(query)
	state.lastLatency = latency
	state.lastCount = count
	if count == 0 {
		state.emptyCount++
		metrics.ProviderRequestsTotal.WithLabelValues(name, string(kind), "empty").Inc()
		return
	}
	state.lastSuccessAt = now
	metrics.ProviderRequestsTotal.WithLabelValues(name, string(kind), "ok").Inc()
}

func (e *Engine) recordProviderPanic(providerName string, kind domain.ProviderKind, query, message string, latency time.Duration, now time.Time) {
	name := strings.ToLower(strings.TrimSpace(providerName))
	metrics.ProviderRequestsTotal.WithLabelValues(name, string(kind), "panic").Inc()

	e.healthMu.Lock()
	defer e.healthMu.Unlock()

	state := e.healthState(name)
	state.totalRequests++
	state.panicCount++
	state.lastQuery = strings.TrimSpace(query)
	state.lastLatency = latency
	state.lastCount = 0
	state.lastPanic = message
	state.lastPanicAt = now
}

// ProviderDiagnostics reports per-provider call statistics in the same order
// as Providers.
func (e *Engine) ProviderDiagnostics() []domain.ProviderDiagnostics {
	infos := e.Providers()

	e.healthMu.Lock()
	defer e.healthMu.Unlock()

	items := make([]domain.ProviderDiagnostics, 0, len(infos))
	for _, info := range infos {
		item := domain.ProviderDiagnostics{
			Name:    info.Name,
			Label:   info.Label,
			Kind:    info.Kind,
			Enabled: info.Enabled,
		}
		if state := e.health[info.Name]; state != nil {
			if !state.lastSuccessAt.IsZero() {
				lastSuccessAt := state.lastSuccessAt
				item.LastSuccessAt = &lastSuccessAt
			}
			if !state.lastPanicAt.IsZero() {
				lastPanicAt := state.lastPanicAt
				item.LastPanicAt = &lastPanicAt
			}
			item.LastPanic = state.lastPanic
			item.LastLatencyMS = state.lastLatency.Milliseconds()
			item.LastCount = state.lastCount
			item.LastQuery = state.lastQuery
			item.TotalRequests = state.totalRequests
			item.EmptyCount = state.emptyCount
			item.PanicCount = state.panicCount
		}
		items = append(items, item)
	}
	return items
}
