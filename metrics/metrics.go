package metrics

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/ethereum-optimism/infra/jenkins-reporter/types"
	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	MetricsNamespace = "jenkins_reporter"
)

var (
	Debug                bool = false
	validStatuses             = []types.SpecStatus{types.SpecStatusPass, types.SpecStatusFail, types.SpecStatusSkip}
	nonAlphanumericRegex      = regexp.MustCompile(`[^a-zA-Z ]+`)

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of errors",
	}, []string{
		"error",
	})

	specsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "specs_total",
		Help:      "Count of spec results added to reports",
	}, []string{
		"browser",
		"status",
	})

	suitesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "suites_total",
		Help:      "Count of browser suites finalized",
	}, []string{
		"browser",
		"errored",
	})

	droppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "dropped_notifications_total",
		Help:      "Count of notifications ignored because their run or browser was unknown",
	}, []string{
		"notification",
	})

	reportWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "report_writes_total",
		Help:      "Count of report file writes",
	}, []string{
		"result",
	})

	pendingWrites = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "pending_writes",
		Help:      "Report writes currently in flight",
	})

	messagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "messages_total",
		Help:      "Count of log messages captured for system-out",
	})

	eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "events_total",
		Help:      "Count of lifecycle events received",
	}, []string{
		"type",
	})
)

// errToLabel tries to make the error string a more valid Prometheus label
func errToLabel(err error) string {
	if err == nil {
		return "nil"
	}
	errClean := nonAlphanumericRegex.ReplaceAllString(err.Error(), "")
	errClean = strings.ReplaceAll(errClean, " ", "_")
	errClean = strings.ReplaceAll(errClean, "__", "_")
	return errClean
}

func RecordError(error string) {
	if Debug {
		log.Debug("metric inc",
			"m", "errors_total",
			"error", error,
		)
	}
	errorsTotal.WithLabelValues(error).Inc()
}

// RecordErrorDetails concats the error message to the label
// and also tries to clean the label to be a valid Prometheus label
func RecordErrorDetails(label string, err error) {
	if err == nil {
		return
	}
	label = fmt.Sprintf("%s.%s", label, errToLabel(err))
	RecordError(label)
}

func RecordSpec(browser string, status types.SpecStatus) {
	if !slices.Contains(validStatuses, status) {
		log.Error("RecordSpec - invalid status", "status", status)
		return
	}
	if Debug {
		log.Debug("metric inc",
			"m", "specs_total",
			"browser", browser,
			"status", status)
	}
	specsTotal.WithLabelValues(browser, string(status)).Inc()
}

func RecordSuite(browser string, errored bool) {
	suitesTotal.WithLabelValues(browser, fmt.Sprintf("%t", errored)).Inc()
}

func RecordDropped(notification string) {
	droppedTotal.WithLabelValues(notification).Inc()
}

func RecordReportWrite(err error) {
	result := "success"
	if err != nil {
		result = "failure"
		RecordErrorDetails("report_write", err)
	}
	reportWritesTotal.WithLabelValues(result).Inc()
}

func SetPendingWrites(n int) {
	pendingWrites.Set(float64(n))
}

func RecordMessage() {
	messagesTotal.Inc()
}

func RecordEvent(eventType string) {
	eventsTotal.WithLabelValues(eventType).Inc()
}
