package cgroup

import "testing"

func TestMetricResultAvailability(t *testing.T) {
	cases := []struct {
		name string
		m    MetricResult
		want bool
	}{
		{"unavailable", MetricUnavailable(), false},
		{"unlimited", MetricUnlimited(), true},
		{"bytes", MetricBytes(10), true},
		{"count", MetricCount(3), true},
		{"cpus", MetricCpus(2.5), true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.m.IsAvailable(); got != c.want {
				t.Fatalf("IsAvailable() = %v, want %v", got, c.want)
			}
		})
	}
}

func TestMetricResultAccessorsRejectWrongKind(t *testing.T) {
	m := MetricBytes(42)
	if _, ok := m.CountValue(); ok {
		t.Fatal("CountValue should fail on a Bytes result")
	}
	if _, ok := m.CpusValue(); ok {
		t.Fatal("CpusValue should fail on a Bytes result")
	}
	v, ok := m.BytesValue()
	if !ok || v != 42 {
		t.Fatalf("BytesValue = %d, %v, want 42, true", v, ok)
	}
}

func TestMetricResultString(t *testing.T) {
	if s := MetricUnavailable().String(); s != "unavailable" {
		t.Fatalf("String() = %q", s)
	}
	if s := MetricUnlimited().String(); s != "unlimited" {
		t.Fatalf("String() = %q", s)
	}
	if s := MetricBytes(100).String(); s != "100 bytes" {
		t.Fatalf("String() = %q", s)
	}
}
