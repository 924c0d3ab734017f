package observability

import (
	"sort"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/eleven-am/agentpool/internal/domain"
)

// ColdStartReporter is implemented by pools that count resolver activity.
type ColdStartReporter interface {
	ColdStartStats() domain.ColdStartStats
}

var instanceStatuses = []domain.InstanceStatus{
	domain.InstanceStatusIdle,
	domain.InstanceStatusBusy,
	domain.InstanceStatusError,
	domain.InstanceStatusMaintenance,
}

var healthStates = []domain.HealthClassification{
	domain.HealthHealthy,
	domain.HealthDegraded,
	domain.HealthCritical,
}

// poolCollector reads a fresh pool snapshot on every scrape.
type poolCollector struct {
	pool PoolStatus

	instances    *prometheus.Desc
	active       *prometheus.Desc
	available    *prometheus.Desc
	errored      *prometheus.Desc
	responseTime *prometheus.Desc
	loadRatio    *prometheus.Desc
	successRate  *prometheus.Desc
	bottlenecks  *prometheus.Desc
	health       *prometheus.Desc

	typeInstances *prometheus.Desc
	typeLoad      *prometheus.Desc
	typeCapacity  *prometheus.Desc

	resolutions    *prometheus.Desc
	cacheHits      *prometheus.Desc
	feedback       *prometheus.Desc
	sparsityChecks *prometheus.Desc
	sparseResults  *prometheus.Desc
}

func newPoolCollector(pool PoolStatus) *poolCollector {
	return &poolCollector{
		pool: pool,

		instances:    prometheus.NewDesc("agentpool_instances", "Registered instances", nil, nil),
		active:       prometheus.NewDesc("agentpool_instances_active", "Busy instances", nil, nil),
		available:    prometheus.NewDesc("agentpool_instances_available", "Idle or busy instances", nil, nil),
		errored:      prometheus.NewDesc("agentpool_instances_error", "Quarantined instances", nil, nil),
		responseTime: prometheus.NewDesc("agentpool_response_time_ms", "Mean smoothed response time in milliseconds", nil, nil),
		loadRatio:    prometheus.NewDesc("agentpool_load_ratio", "Mean load ratio", nil, nil),
		successRate:  prometheus.NewDesc("agentpool_success_rate", "Mean smoothed success rate", nil, nil),
		bottlenecks:  prometheus.NewDesc("agentpool_bottlenecks", "Instances above the bottleneck threshold", nil, nil),
		health:       prometheus.NewDesc("agentpool_health", "Health classification, 1 for the current one", []string{"state"}, nil),

		typeInstances: prometheus.NewDesc("agentpool_agent_type_instances", "Instances per agent type and status", []string{"agent_type", "status"}, nil),
		typeLoad:      prometheus.NewDesc("agentpool_agent_type_load", "Summed current load per agent type", []string{"agent_type"}, nil),
		typeCapacity:  prometheus.NewDesc("agentpool_agent_type_capacity", "Summed max load per agent type", []string{"agent_type"}, nil),

		resolutions:    prometheus.NewDesc("agentpool_coldstart_resolutions_total", "Cold start solutions created by solution type", []string{"solution_type"}, nil),
		cacheHits:      prometheus.NewDesc("agentpool_coldstart_cache_hits_total", "Cold start requests served from the cache", nil, nil),
		feedback:       prometheus.NewDesc("agentpool_coldstart_feedback_total", "Effectiveness samples folded into solutions", nil, nil),
		sparsityChecks: prometheus.NewDesc("agentpool_coldstart_sparsity_checks_total", "Data sparsity checks performed", nil, nil),
		sparseResults:  prometheus.NewDesc("agentpool_coldstart_sparse_results_total", "Data sparsity checks that found sparse history", nil, nil),
	}
}

func (c *poolCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		c.instances, c.active, c.available, c.errored,
		c.responseTime, c.loadRatio, c.successRate, c.bottlenecks, c.health,
		c.typeInstances, c.typeLoad, c.typeCapacity,
		c.resolutions, c.cacheHits, c.feedback, c.sparsityChecks, c.sparseResults,
	} {
		ch <- d
	}
}

func (c *poolCollector) Collect(ch chan<- prometheus.Metric) {
	metrics := c.pool.GetSystemMetrics()

	gauge := func(desc *prometheus.Desc, value float64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, value, labels...)
	}

	gauge(c.instances, float64(metrics.TotalInstances))
	gauge(c.active, float64(metrics.ActiveInstances))
	gauge(c.available, float64(metrics.AvailableInstances))
	gauge(c.errored, float64(metrics.ErrorInstances))
	gauge(c.responseTime, metrics.AverageResponseTime)
	gauge(c.loadRatio, metrics.AverageLoad)
	gauge(c.successRate, metrics.AverageSuccessRate)
	gauge(c.bottlenecks, float64(len(metrics.Bottlenecks)))
	for _, state := range healthStates {
		value := 0.0
		if metrics.Health == state {
			value = 1
		}
		gauge(c.health, value, string(state))
	}

	c.collectAgentTypes(gauge)

	if reporter, ok := c.pool.(ColdStartReporter); ok {
		c.collectColdStart(ch, reporter.ColdStartStats())
	}
}

type agentTypeTotals struct {
	byStatus map[domain.InstanceStatus]int
	load     float64
	capacity float64
}

func (c *poolCollector) collectAgentTypes(gauge func(*prometheus.Desc, float64, ...string)) {
	totals := make(map[string]*agentTypeTotals)
	for _, instance := range c.pool.Instances("") {
		t, ok := totals[instance.AgentType]
		if !ok {
			t = &agentTypeTotals{byStatus: make(map[domain.InstanceStatus]int)}
			totals[instance.AgentType] = t
		}
		t.byStatus[instance.Status]++
		t.load += instance.CurrentLoad
		t.capacity += instance.MaxLoad
	}

	agentTypes := make([]string, 0, len(totals))
	for agentType := range totals {
		agentTypes = append(agentTypes, agentType)
	}
	sort.Strings(agentTypes)

	for _, agentType := range agentTypes {
		t := totals[agentType]
		for _, status := range instanceStatuses {
			gauge(c.typeInstances, float64(t.byStatus[status]), agentType, string(status))
		}
		gauge(c.typeLoad, t.load, agentType)
		gauge(c.typeCapacity, t.capacity, agentType)
	}
}

func (c *poolCollector) collectColdStart(ch chan<- prometheus.Metric, stats domain.ColdStartStats) {
	counter := func(desc *prometheus.Desc, value int64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, float64(value), labels...)
	}

	for solutionType, count := range stats.Resolved {
		counter(c.resolutions, count, solutionType)
	}
	counter(c.cacheHits, stats.CacheHits)
	counter(c.feedback, stats.Feedback)
	counter(c.sparsityChecks, stats.SparsityChecks)
	counter(c.sparseResults, stats.SparseResults)
}
