// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func gaugeValue(t *testing.T, state string) float64 {
	t.Helper()
	var m dto.Metric
	if err := StreamState.WithLabelValues(state).Write(&m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return m.GetGauge().GetValue()
}

func TestSetStreamState(t *testing.T) {
	states := []string{"idle", "stream_open", "disconnected"}

	SetStreamState("stream_open", states)
	if gaugeValue(t, "stream_open") != 1 {
		t.Error("active state should be 1")
	}
	if gaugeValue(t, "idle") != 0 || gaugeValue(t, "disconnected") != 0 {
		t.Error("inactive states should be 0")
	}

	SetStreamState("disconnected", states)
	if gaugeValue(t, "stream_open") != 0 || gaugeValue(t, "disconnected") != 1 {
		t.Error("state change not reflected")
	}
}

func TestRecordContainmentCheck(t *testing.T) {
	before := testutil.ToFloat64(ContainmentChecks.WithLabelValues("static", "ok"))
	RecordContainmentCheck("static", "ok", 3*time.Millisecond)
	after := testutil.ToFloat64(ContainmentChecks.WithLabelValues("static", "ok"))
	if after-before != 1 {
		t.Errorf("counter delta = %v, want 1", after-before)
	}
}

func TestRecordFlush(t *testing.T) {
	before := testutil.ToFloat64(IngestFlushes)
	RecordFlush(12)
	if got := testutil.ToFloat64(IngestFlushes) - before; got != 1 {
		t.Errorf("flush delta = %v, want 1", got)
	}
}

func TestRecordRequests(t *testing.T) {
	RecordRTLSRequest("list_triggers", "200", 10*time.Millisecond)
	RecordAPIRequest("GET", "/api/status", "200", time.Millisecond)

	if testutil.ToFloat64(RTLSRequests.WithLabelValues("list_triggers", "200")) < 1 {
		t.Error("rtls request not recorded")
	}
	if testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/status", "200")) < 1 {
		t.Error("api request not recorded")
	}
}
