package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	plansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "htn",
		Subsystem: "planner",
		Name:      "plans_total",
		Help:      "Planning attempts by result.",
	}, []string{"result"})

	backtracksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "htn",
		Subsystem: "planner",
		Name:      "backtracks_total",
		Help:      "Task failures that sent the parent to its next binding.",
	})

	fallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "htn",
		Subsystem: "planner",
		Name:      "case_fallbacks_total",
		Help:      "Cases abandoned in favour of the next case of the same task.",
	})

	planSteps = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "htn",
		Subsystem: "planner",
		Name:      "steps",
		Help:      "Planner steps taken per attempt.",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
	})
)

// Result labels for plansTotal.
const (
	resultFound  = "found"
	resultNoPlan = "no_plan"
	resultError  = "error"
)
