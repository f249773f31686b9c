package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	stepTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "romaantica",
			Name:      "booking_step_transitions_total",
			Help:      "Count of wizard step changes.",
		},
		[]string{"from", "to"},
	)

	slotLoads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "romaantica",
			Name:      "booking_slot_loads_total",
			Help:      "Count of slot availability loads by outcome.",
		},
		[]string{"outcome"},
	)

	staleSlotResponses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "romaantica",
			Name:      "booking_stale_slot_responses_total",
			Help:      "Count of slot responses discarded because a newer request was issued.",
		},
	)

	submissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "romaantica",
			Name:      "booking_submissions_total",
			Help:      "Count of booking submissions by outcome.",
		},
		[]string{"outcome"},
	)

	validationErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "romaantica",
			Name:      "booking_validation_errors_total",
			Help:      "Count of rejected customer inputs by reason.",
		},
		[]string{"reason"},
	)

	apiRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "romaantica",
			Name:      "booking_api_requests_total",
			Help:      "Count of booking API calls by endpoint and status.",
		},
		[]string{"endpoint", "status"},
	)

	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "romaantica",
			Name:      "booking_slot_cache_lookups_total",
			Help:      "Count of slot cache lookups by result.",
		},
		[]string{"result"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(stepTransitions, slotLoads, staleSlotResponses,
			submissions, validationErrors, apiRequests, cacheLookups)
	})
}

func IncStepTransition(from, to int) {
	stepTransitions.WithLabelValues(strconv.Itoa(from), strconv.Itoa(to)).Inc()
}

func IncSlotLoad(outcome string) {
	slotLoads.WithLabelValues(outcome).Inc()
}

func IncStaleSlotResponse() {
	staleSlotResponses.Inc()
}

func IncSubmission(outcome string) {
	submissions.WithLabelValues(outcome).Inc()
}

func IncValidationError(reason string) {
	validationErrors.WithLabelValues(reason).Inc()
}

func IncAPIRequest(endpoint string, status int) {
	apiRequests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
}

func IncCacheLookup(hit bool) {
	if hit {
		cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	cacheLookups.WithLabelValues("miss").Inc()
}
