package metrics

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newtron-network/routeaudit/pkg/ipaddr"
	"github.com/newtron-network/routeaudit/pkg/routing"
	"github.com/newtron-network/routeaudit/pkg/util"
)

func TestObserveLookup(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveLookup(nil, time.Microsecond)
	m.ObserveLookup(nil, time.Microsecond)
	m.ObserveLookup(&util.LookupError{Destination: "10.0.0.1"}, time.Microsecond)
	m.ObserveLookup(util.NewAddressError("parse", "x", util.ErrInvalidAddressFormat), 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Lookups.WithLabelValues(ResultHit)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Lookups.WithLabelValues(ResultNoRoute)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Lookups.WithLabelValues(ResultInvalid)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.LookupDuration))
}

func TestReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{util.NewEntryError("e", "", util.ErrInvalidOutputInterface), "invalid_interface"},
		{util.NewEntryError("e", "x", util.ErrDuplicateEntryConflict), "duplicate_conflict"},
		{fmt.Errorf("route 3: %w", util.NewEntryError("e", "x", util.ErrInterfaceNextHopMismatch)), "interface_next_hop_mismatch"},
		{util.NewAddressError("parse", "1.2.3", util.ErrInvalidAddressFormat), "invalid_address"},
		{errors.New("boom"), "other"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Reason(tt.err))
		})
	}
}

func TestObserveStepsAndReload(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	tbl := routing.NewTable("t")
	for _, p := range []string{"192.168.0.0/24", "192.168.1.0/24", "192.168.1.0/24"} {
		dest, mask, err := ipaddr.ParsePrefix(p)
		require.NoError(t, err)
		require.NoError(t, tbl.AddEntry(dest, mask, 1, ipaddr.MustParse("1.1.1.1")))
	}
	m.ObserveSteps(tbl.Optimize())
	m.ObserveReload(tbl, nil)
	m.ObserveReload(nil, errors.New("bad file"))
	m.ObserveRejected(util.ErrDuplicateEntryConflict)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.OptimizerSteps.WithLabelValues(string(routing.StepRedundant))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OptimizerSteps.WithLabelValues(string(routing.StepContiguous))))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.TableEntries))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Reloads.WithLabelValues("error")))

	expected := `
# HELP routeaudit_rejected_inserts_total Routes rejected while loading a table, by reason
# TYPE routeaudit_rejected_inserts_total counter
routeaudit_rejected_inserts_total{reason="duplicate_conflict"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "routeaudit_rejected_inserts_total"))
}

func TestNew_DoubleRegisterPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
