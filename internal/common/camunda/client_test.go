package camunda

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func TestIsRetryableConnectError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"refused", fmt.Errorf("dial tcp 127.0.0.1:26500: connection refused"), true},
		{"grpc unavailable", fmt.Errorf("rpc error: code = Unavailable desc = no healthy upstream"), true},
		{"deadline", fmt.Errorf("context deadline exceeded"), true},
		{"permission", fmt.Errorf("rpc error: code = PermissionDenied"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryableConnectError(tt.err))
		})
	}
}

// ==========================
// Test Helper Functions
// ==========================

type countingHandler struct{ calls int }

func (h *countingHandler) Handle(worker.JobClient, entities.Job) { h.calls++ }

type fakeRecorder struct {
	statuses  []string
	durations []time.Duration
}

func (r *fakeRecorder) RecordJobProcessed(_ context.Context, taskType, status string) {
	r.statuses = append(r.statuses, taskType+":"+status)
}

func (r *fakeRecorder) RecordJobDuration(_ context.Context, _ string, d time.Duration) {
	r.durations = append(r.durations, d)
}

func TestInstrument(t *testing.T) {
	inner := &countingHandler{}
	rec := &fakeRecorder{}

	h := Instrument("rank-suppliers", inner, rec, zaptest.NewLogger(t))
	h.Handle(nil, entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 1}})
	h.Handle(nil, entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 2}})

	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, []string{"rank-suppliers:handled", "rank-suppliers:handled"}, rec.statuses)
	assert.Len(t, rec.durations, 2)
}

type panickingHandler struct{}

func (panickingHandler) Handle(worker.JobClient, entities.Job) {
	panic("runtime error: slice bounds out of range [:-16]")
}

func TestInstrument_RecoversPanic(t *testing.T) {
	rec := &fakeRecorder{}
	h := Instrument("rank-suppliers", panickingHandler{}, rec, zaptest.NewLogger(t))

	assert.NotPanics(t, func() {
		h.Handle(nil, entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 7}})
	})
	assert.Equal(t, []string{"rank-suppliers:panicked"}, rec.statuses)
	assert.Len(t, rec.durations, 1)
}

func TestInstrument_NilRecorder(t *testing.T) {
	inner := &countingHandler{}
	h := Instrument("rank-suppliers", inner, nil, nil)

	assert.NotPanics(t, func() {
		h.Handle(nil, entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 1}})
	})
	assert.Equal(t, 1, inner.calls)
}
