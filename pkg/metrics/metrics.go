package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all application metrics
type Metrics struct {
	// Scheduled task metrics
	TasksProcessed    prometheus.Counter
	TasksFailed       prometheus.Counter
	TaskRunLatency    prometheus.Histogram
	TaskQueueSize     prometheus.Gauge
	TaskRetries       *prometheus.CounterVec
	TaskDispatchDelay *prometheus.HistogramVec

	// Database metrics
	DatabaseOperations *prometheus.CounterVec

	// Notification metrics
	NotificationsCreated *prometheus.CounterVec
	BrokerPublishErrors  prometheus.Counter
}

// New creates all application metrics under the given namespace. Collectors
// are not registered; call MustRegister with the process registry.
func New(namespace string) *Metrics {
	return &Metrics{
		TasksProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_processed_total",
			Help:      "Total number of scheduled tasks executed successfully",
		}),
		TasksFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_failed_total",
			Help:      "Total number of scheduled tasks that exhausted their retries",
		}),
		TaskRunLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_run_duration_seconds",
			Help:      "Time spent executing scheduled tasks",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		TaskQueueSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "task_queue_size",
			Help:      "Current number of pending scheduled tasks",
		}),
		TaskRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_retry_attempts_total",
			Help:      "Total number of retry attempts per task name",
		}, []string{"task"}),
		TaskDispatchDelay: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_dispatch_delay_seconds",
			Help:      "Time between a task's ETA and its actual execution",
			Buckets:   []float64{.1, .5, 1, 5, 15, 60, 300, 900, 3600},
		}, []string{"task"}),
		DatabaseOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "database_operations_total",
			Help:      "Total number of database operations",
		}, []string{"operation", "status"}),
		NotificationsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_created_total",
			Help:      "Total number of notifications created per type",
		}, []string{"type"}),
		BrokerPublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broker_publish_errors_total",
			Help:      "Total number of failed broker publishes",
		}),
	}
}

// MustRegister registers every collector with the given registerer.
func (m *Metrics) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		m.TasksProcessed,
		m.TasksFailed,
		m.TaskRunLatency,
		m.TaskQueueSize,
		m.TaskRetries,
		m.TaskDispatchDelay,
		m.DatabaseOperations,
		m.NotificationsCreated,
		m.BrokerPublishErrors,
	)
}
