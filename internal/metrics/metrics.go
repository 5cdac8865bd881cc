// Package metrics collects in-process counters for the status command.
package metrics

import (
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type Metrics struct {
	startTime time.Time

	storeReads     atomic.Int64
	storeWrites    atomic.Int64
	storeFailures  atomic.Int64
	storeNotFounds atomic.Int64

	asyncDispatched atomic.Int64
	asyncCompleted  atomic.Int64
	asyncFailed     atomic.Int64

	logins        atomic.Int64
	loginFailures atomic.Int64
	registrations atomic.Int64

	notificationsScheduled atomic.Int64
	notificationsDelivered atomic.Int64
	notificationsCancelled atomic.Int64

	opDurations     []time.Duration
	opDurationsLock sync.Mutex

	operationCalls map[string]*atomic.Int64
	operationLock  sync.Mutex
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

func Default() *Metrics {
	once.Do(func() {
		defaultMetrics = New()
	})
	return defaultMetrics
}

func New() *Metrics {
	return &Metrics{
		startTime:      time.Now(),
		opDurations:    make([]time.Duration, 0, 1000),
		operationCalls: make(map[string]*atomic.Int64),
	}
}

func (m *Metrics) RecordStoreRead(success bool) {
	m.storeReads.Add(1)
	if !success {
		m.storeFailures.Add(1)
	}
}

func (m *Metrics) RecordStoreWrite(success bool) {
	m.storeWrites.Add(1)
	if !success {
		m.storeFailures.Add(1)
	}
}

func (m *Metrics) RecordStoreNotFound() {
	m.storeNotFounds.Add(1)
}

func (m *Metrics) RecordAsyncDispatched() {
	m.asyncDispatched.Add(1)
}

func (m *Metrics) RecordAsyncCompleted(success bool) {
	if success {
		m.asyncCompleted.Add(1)
	} else {
		m.asyncFailed.Add(1)
	}
}

func (m *Metrics) RecordLogin(success bool) {
	if success {
		m.logins.Add(1)
	} else {
		m.loginFailures.Add(1)
	}
}

func (m *Metrics) RecordRegistration() {
	m.registrations.Add(1)
}

func (m *Metrics) RecordNotificationScheduled() {
	m.notificationsScheduled.Add(1)
}

func (m *Metrics) RecordNotificationDelivered() {
	m.notificationsDelivered.Add(1)
}

func (m *Metrics) RecordNotificationCancelled() {
	m.notificationsCancelled.Add(1)
}

func (m *Metrics) RecordOperation(name string) {
	m.operationLock.Lock()
	defer m.operationLock.Unlock()

	if m.operationCalls[name] == nil {
		m.operationCalls[name] = &atomic.Int64{}
	}
	m.operationCalls[name].Add(1)
}

func (m *Metrics) RecordOperationDuration(d time.Duration) {
	m.opDurationsLock.Lock()
	defer m.opDurationsLock.Unlock()

	m.opDurations = append(m.opDurations, d)
	if len(m.opDurations) > 1000 {
		m.opDurations = m.opDurations[1:]
	}
}

type Snapshot struct {
	Uptime                 time.Duration    `json:"uptime"`
	StoreReads             int64            `json:"store_reads"`
	StoreWrites            int64            `json:"store_writes"`
	StoreFailures          int64            `json:"store_failures"`
	StoreNotFounds         int64            `json:"store_not_founds"`
	AsyncDispatched        int64            `json:"async_dispatched"`
	AsyncCompleted         int64            `json:"async_completed"`
	AsyncFailed            int64            `json:"async_failed"`
	Logins                 int64            `json:"logins"`
	LoginFailures          int64            `json:"login_failures"`
	Registrations          int64            `json:"registrations"`
	NotificationsScheduled int64            `json:"notifications_scheduled"`
	NotificationsDelivered int64            `json:"notifications_delivered"`
	NotificationsCancelled int64            `json:"notifications_cancelled"`
	AvgOperationTime       time.Duration    `json:"avg_operation_time"`
	P99OperationTime       time.Duration    `json:"p99_operation_time"`
	OperationCalls         map[string]int64 `json:"operation_calls"`
	AsyncSuccessRate       float64          `json:"async_success_rate"`
}

func (m *Metrics) Snapshot() *Snapshot {
	s := &Snapshot{
		Uptime:                 time.Since(m.startTime),
		StoreReads:             m.storeReads.Load(),
		StoreWrites:            m.storeWrites.Load(),
		StoreFailures:          m.storeFailures.Load(),
		StoreNotFounds:         m.storeNotFounds.Load(),
		AsyncDispatched:        m.asyncDispatched.Load(),
		AsyncCompleted:         m.asyncCompleted.Load(),
		AsyncFailed:            m.asyncFailed.Load(),
		Logins:                 m.logins.Load(),
		LoginFailures:          m.loginFailures.Load(),
		Registrations:          m.registrations.Load(),
		NotificationsScheduled: m.notificationsScheduled.Load(),
		NotificationsDelivered: m.notificationsDelivered.Load(),
		NotificationsCancelled: m.notificationsCancelled.Load(),
		OperationCalls:         make(map[string]int64),
	}

	finished := s.AsyncCompleted + s.AsyncFailed
	if finished > 0 {
		s.AsyncSuccessRate = float64(s.AsyncCompleted) / float64(finished) * 100
	}

	m.opDurationsLock.Lock()
	if len(m.opDurations) > 0 {
		var total time.Duration
		for _, d := range m.opDurations {
			total += d
		}
		s.AvgOperationTime = total / time.Duration(len(m.opDurations))

		sorted := make([]time.Duration, len(m.opDurations))
		copy(sorted, m.opDurations)
		for i := 0; i < len(sorted)-1; i++ {
			for j := i + 1; j < len(sorted); j++ {
				if sorted[j] < sorted[i] {
					sorted[i], sorted[j] = sorted[j], sorted[i]
				}
			}
		}
		p99Index := int(float64(len(sorted)) * 0.99)
		if p99Index >= len(sorted) {
			p99Index = len(sorted) - 1
		}
		s.P99OperationTime = sorted[p99Index]
	}
	m.opDurationsLock.Unlock()

	m.operationLock.Lock()
	for k, v := range m.operationCalls {
		s.OperationCalls[k] = v.Load()
	}
	m.operationLock.Unlock()

	return s
}

// Exposition renders the counters in the Prometheus text format for the
// status command's verbose output.
func (m *Metrics) Exposition() string {
	var sb strings.Builder

	writeCounter := func(name, help string, value int64) {
		sb.WriteString("# HELP " + name + " " + help + "\n")
		sb.WriteString("# TYPE " + name + " counter\n")
		sb.WriteString(name + " " + strconv.FormatInt(value, 10) + "\n\n")
	}

	sb.WriteString("# HELP myhealth_uptime_seconds Time since process start\n")
	sb.WriteString("# TYPE myhealth_uptime_seconds gauge\n")
	sb.WriteString("myhealth_uptime_seconds " + strconv.FormatInt(int64(time.Since(m.startTime).Seconds()), 10) + "\n\n")

	writeCounter("myhealth_store_reads_total", "Store read operations", m.storeReads.Load())
	writeCounter("myhealth_store_writes_total", "Store write operations", m.storeWrites.Load())
	writeCounter("myhealth_store_failures_total", "Store operations that failed", m.storeFailures.Load())
	writeCounter("myhealth_store_not_founds_total", "Store lookups with no row", m.storeNotFounds.Load())
	writeCounter("myhealth_async_dispatched_total", "Operations handed to the dispatcher", m.asyncDispatched.Load())
	writeCounter("myhealth_async_completed_total", "Dispatched operations that succeeded", m.asyncCompleted.Load())
	writeCounter("myhealth_async_failed_total", "Dispatched operations that failed", m.asyncFailed.Load())
	writeCounter("myhealth_logins_total", "Successful logins", m.logins.Load())
	writeCounter("myhealth_login_failures_total", "Rejected logins", m.loginFailures.Load())
	writeCounter("myhealth_registrations_total", "Accounts created", m.registrations.Load())
	writeCounter("myhealth_notifications_scheduled_total", "Notifications armed", m.notificationsScheduled.Load())
	writeCounter("myhealth_notifications_delivered_total", "Notifications delivered", m.notificationsDelivered.Load())
	writeCounter("myhealth_notifications_cancelled_total", "Notifications cancelled", m.notificationsCancelled.Load())

	m.operationLock.Lock()
	for name, count := range m.operationCalls {
		sb.WriteString("# HELP myhealth_operation_calls_total Calls per operation\n")
		sb.WriteString("# TYPE myhealth_operation_calls_total counter\n")
		sb.WriteString("myhealth_operation_calls_total{operation=\"" + name + "\"} " + strconv.FormatInt(count.Load(), 10) + "\n\n")
	}
	m.operationLock.Unlock()

	return sb.String()
}

func RecordStoreRead(success bool) {
	Default().RecordStoreRead(success)
}

func RecordStoreWrite(success bool) {
	Default().RecordStoreWrite(success)
}

func RecordStoreNotFound() {
	Default().RecordStoreNotFound()
}

func RecordAsyncDispatched() {
	Default().RecordAsyncDispatched()
}

func RecordAsyncCompleted(success bool) {
	Default().RecordAsyncCompleted(success)
}

func RecordLogin(success bool) {
	Default().RecordLogin(success)
}

func RecordRegistration() {
	Default().RecordRegistration()
}

func RecordNotificationScheduled() {
	Default().RecordNotificationScheduled()
}

func RecordNotificationDelivered() {
	Default().RecordNotificationDelivered()
}

func RecordNotificationCancelled() {
	Default().RecordNotificationCancelled()
}

func RecordOperation(name string) {
	Default().RecordOperation(name)
}

func RecordOperationDuration(d time.Duration) {
	Default().RecordOperationDuration(d)
}

func GetSnapshot() *Snapshot {
	return Default().Snapshot()
}

func Exposition() string {
	return Default().Exposition()
}
