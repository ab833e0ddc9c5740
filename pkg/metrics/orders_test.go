package metrics

import (
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestOrderMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewOrderMetrics(reg)

	metrics.IncCreated("franchise-a")
	metrics.IncCreated("franchise-a")
	metrics.IncTransition("validated")
	metrics.IncComplianceFailure()
	metrics.IncStockShortage("")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "orders_created_total", "franchise", "franchise-a"); err != nil {
		t.Fatalf("fetch created: %v", err)
	} else if got != 2 {
		t.Fatalf("expected created=2, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "order_transitions_total", "to_status", "validated"); err != nil {
		t.Fatalf("fetch transitions: %v", err)
	} else if got != 1 {
		t.Fatalf("expected transitions=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "stock_shortages_total", "warehouse", "unknown"); err != nil {
		t.Fatalf("fetch shortages: %v", err)
	} else if got != 1 {
		t.Fatalf("expected shortages=1, got %f", got)
	}

	mf := findMetricFamily(mfs, "compliance_failures_total")
	if mf == nil || len(mf.GetMetric()) != 1 {
		t.Fatalf("compliance counter missing")
	}
	if got := mf.GetMetric()[0].GetCounter().GetValue(); got != 1 {
		t.Fatalf("expected compliance failures=1, got %f", got)
	}
}

func TestOrderMetricsNilRegistererIsNoop(t *testing.T) {
	metrics := NewOrderMetrics(nil)
	metrics.IncCreated("franchise-a")
	metrics.IncTransition("validated")
	metrics.IncComplianceFailure()
	metrics.IncStockShortage("warehouse-a")
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
