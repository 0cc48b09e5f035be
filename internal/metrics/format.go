// Package metrics provides Prometheus metrics for format validation,
// finalization and command synthesis.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	optionRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "videoformat",
		Subsystem: "options",
		Name:      "rejected_total",
		Help:      "Option values rejected by validation",
	}, []string{"option", "reason"})

	finalizeRules = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "videoformat",
		Subsystem: "finalize",
		Name:      "rules_applied_total",
		Help:      "Conflict resolution rules that changed a format",
	}, []string{"rule"})

	commandsSynthesized = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "videoformat",
		Subsystem: "synthesis",
		Name:      "commands_total",
		Help:      "Argument lists synthesized",
	})

	commandArguments = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "videoformat",
		Subsystem: "synthesis",
		Name:      "arguments",
		Help:      "Number of arguments per synthesized command",
		Buckets:   prometheus.LinearBuckets(0, 8, 8),
	})

	// Local copy of the counters for printing without a registry scrape.
	stats   = FormatStats{Rejections: map[string]int{}, Rules: map[string]int{}}
	statsMu sync.RWMutex
)

// FormatStats holds counter values recorded by this process.
type FormatStats struct {
	Rejections  map[string]int // keyed by "option/reason"
	Rules       map[string]int
	Synthesized int
}

// RecordRejection counts a rejected option value.
func RecordRejection(option, reason string) {
	optionRejections.WithLabelValues(option, reason).Inc()
	statsMu.Lock()
	stats.Rejections[option+"/"+reason]++
	statsMu.Unlock()
}

// RecordFinalizeRule counts a finalize rule that modified a format.
func RecordFinalizeRule(rule string) {
	finalizeRules.WithLabelValues(rule).Inc()
	statsMu.Lock()
	stats.Rules[rule]++
	statsMu.Unlock()
}

// RecordSynthesis counts a synthesized command and its argument count.
func RecordSynthesis(args int) {
	commandsSynthesized.Inc()
	commandArguments.Observe(float64(args))
	statsMu.Lock()
	stats.Synthesized++
	statsMu.Unlock()
}

// GetFormatStats returns a copy of the recorded counters.
func GetFormatStats() FormatStats {
	statsMu.RLock()
	defer statsMu.RUnlock()

	dup := FormatStats{
		Rejections:  make(map[string]int, len(stats.Rejections)),
		Rules:       make(map[string]int, len(stats.Rules)),
		Synthesized: stats.Synthesized,
	}
	for k, v := range stats.Rejections {
		dup.Rejections[k] = v
	}
	for k, v := range stats.Rules {
		dup.Rules[k] = v
	}
	return dup
}
