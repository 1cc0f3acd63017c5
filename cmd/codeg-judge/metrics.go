package main

import (
	"io"
	"sync"

	"github.com/codeg/judge/envexec"
	"github.com/codeg/judge/filestore"
	"github.com/codeg/judge/judger"
	"github.com/codeg/judge/types"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	ginprometheus "github.com/zsais/go-gin-prometheus"
)

const (
	metricsNamespace = "codeg_judge"
)

var (
	// 1ms -> 10s
	timeBuckets = []float64{
		0.001, 0.002, 0.005, 0.008, 0.010, 0.025, 0.050, 0.075, 0.1, 0.2,
		0.4, 0.6, 0.8, 1.0, 1.5, 2, 5, 10,
	}

	// 4k (1<<12) -> 4g (1<<32)
	memoryBucket = prometheus.ExponentialBuckets(1<<12, 2, 21)
	// 64 byte -> 32m
	uploadSizeBucket = prometheus.ExponentialBuckets(1<<6, 2, 20)

	submissionCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "submissions_total",
		Help:      "Number of judged submissions",
	}, []string{"mode", "verdict"})

	caseCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "test_cases_total",
		Help:      "Number of executed test cases",
	}, []string{"verdict"})

	caseTimeHist = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "case_run_seconds",
		Help:      "Wall time of executed test cases",
		Buckets:   timeBuckets,
	}, []string{"verdict"})

	caseMemHist = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "case_peak_memory_bytes",
		Help:      "Peak resident memory of executed test cases",
		Buckets:   memoryBucket,
	}, []string{"verdict"})

	deliveryCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "callback_deliveries_total",
		Help:      "Number of callback deliveries by result",
	}, []string{"result"})

	uploadSizeHist = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "upload_size_bytes",
		Help:      "Size of uploaded source files",
		Buckets:   uploadSizeBucket,
	})

	uploadCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "uploads_current",
		Help:      "Number of uploads held by the store",
	})

	uploadBytes = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "uploads_current_bytes",
		Help:      "Bytes of uploads held by the store",
	})
)

func registerMetrics(reg prometheus.Registerer) {
	reg.MustRegister(submissionCount, caseCount, deliveryCount)
	reg.MustRegister(caseTimeHist, caseMemHist)
	reg.MustRegister(uploadSizeHist, uploadCount, uploadBytes)
}

var _ judger.Observer = metricsObserver{}

type metricsObserver struct{}

func (metricsObserver) ObserveCase(v types.Verdict, o *envexec.Outcome) {
	verdict := v.String()
	caseCount.WithLabelValues(verdict).Inc()
	if o == nil || o.CompileError {
		return
	}
	caseTimeHist.WithLabelValues(verdict).Observe(o.Time.Seconds())
	if o.Memory > 0 {
		caseMemHist.WithLabelValues(verdict).Observe(float64(o.Memory))
	}
}

func (metricsObserver) ObserveSubmission(mode string, v types.Verdict) {
	submissionCount.WithLabelValues(mode, v.String()).Inc()
}

func (metricsObserver) ObserveDelivery(err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	deliveryCount.WithLabelValues(result).Inc()
}

var _ filestore.FileStore = &metricsFileStore{}

type metricsFileStore struct {
	mu sync.Mutex
	filestore.FileStore
	fileSize map[string]int64
}

func newMetricsFileStore(fs filestore.FileStore) filestore.FileStore {
	return &metricsFileStore{
		FileStore: fs,
		fileSize:  make(map[string]int64),
	}
}

type countingReader struct {
	io.Reader
	n int64
}

func (r *countingReader) Read(p []byte) (int, error) {
	n, err := r.Reader.Read(p)
	r.n += int64(n)
	return n, err
}

func (m *metricsFileStore) Add(name string, r io.Reader) (string, error) {
	cr := &countingReader{Reader: r}
	id, err := m.FileStore.Add(name, cr)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.fileSize[id] = cr.n
	uploadSizeHist.Observe(float64(cr.n))
	uploadCount.Inc()
	uploadBytes.Add(float64(cr.n))
	return id, nil
}

func (m *metricsFileStore) Remove(id string) bool {
	success := m.FileStore.Remove(id)

	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.fileSize[id]; ok {
		uploadCount.Dec()
		uploadBytes.Sub(float64(s))
		delete(m.fileSize, id)
	}
	return success
}

func initGinMetrics(r *gin.Engine) {
	p := ginprometheus.NewWithConfig(ginprometheus.Config{
		Subsystem:          "gin",
		DisableBodyReading: true,
	})
	p.ReqCntURLLabelMappingFn = func(c *gin.Context) string {
		return c.FullPath()
	}
	r.Use(p.HandlerFunc())
}
