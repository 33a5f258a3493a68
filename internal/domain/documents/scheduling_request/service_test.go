package scheduling_request_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/numerator"
	sr "stockledger/internal/domain/documents/scheduling_request"
	"stockledger/internal/testutil/memstore"
)

const owner = "user-1"

func newService(store *memstore.Store) *sr.Service {
	return sr.NewService(store.Schedules(), store.Numerator(), store, numerator.DefaultAttempts)
}

func create(t *testing.T, svc *sr.Service) *sr.SchedulingRequest {
	t.Helper()
	req, err := svc.Create(context.Background(), sr.CreateInput{
		OwnerID:       owner,
		CustomerName:  "Toko Makmur",
		Address:       "Jl. Merdeka 1",
		ScheduledDate: time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return req
}

func TestApprove_AssignsDeliveryOrderNumber(t *testing.T) {
	store := memstore.New()
	svc := newService(store)
	a, b := create(t, svc), create(t, svc)

	approvedA, err := svc.Approve(context.Background(), owner, a.ID, "admin-1")
	require.NoError(t, err)
	approvedB, err := svc.Approve(context.Background(), owner, b.ID, "admin-1")
	require.NoError(t, err)

	assert.Equal(t, sr.StatusApproved, approvedA.Status)
	require.NotNil(t, approvedA.DeliveryOrderNumber)
	assert.Regexp(t, `^DO-\d{8}-0001$`, *approvedA.DeliveryOrderNumber)
	assert.Regexp(t, `^DO-\d{8}-0002$`, *approvedB.DeliveryOrderNumber)
	assert.Equal(t, "admin-1", *approvedA.ApprovedBy)
	assert.NotNil(t, approvedA.ApprovedAt)
}

func TestApprove_RetriesOnCollision(t *testing.T) {
	store := memstore.New()
	svc := newService(store)
	req := create(t, svc)
	store.FailOn(memstore.OpScheduleUpdate, apperror.NewDuplicate("scheduling_request", "delivery_order_number"), 2)

	approved, err := svc.Approve(context.Background(), owner, req.ID, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), numerator.ParseSequence(*approved.DeliveryOrderNumber))
}

func TestApprove_OnlyPending(t *testing.T) {
	store := memstore.New()
	svc := newService(store)
	req := create(t, svc)

	_, err := svc.Reject(context.Background(), owner, req.ID, "no truck")
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), owner, req.ID, "admin-1")
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidState))

	_, err = svc.Reject(context.Background(), owner, req.ID, "again")
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidState))

	// A refused approval draws no number.
	other := create(t, svc)
	approved, err := svc.Approve(context.Background(), owner, other.ID, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), numerator.ParseSequence(*approved.DeliveryOrderNumber))
}

func TestApprove_NotFound(t *testing.T) {
	svc := newService(memstore.New())
	_, err := svc.Approve(context.Background(), owner, id.New(), "admin-1")
	assert.True(t, apperror.IsNotFound(err))
}

func TestCreate_Validation(t *testing.T) {
	svc := newService(memstore.New())
	_, err := svc.Create(context.Background(), sr.CreateInput{OwnerID: owner, CustomerName: "x"})
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidArgument))
}

func TestList_ByStatus(t *testing.T) {
	store := memstore.New()
	svc := newService(store)
	a := create(t, svc)
	create(t, svc)

	_, err := svc.Approve(context.Background(), owner, a.ID, "admin-1")
	require.NoError(t, err)

	pending, err := svc.List(context.Background(), owner, sr.ListFilter{Status: sr.StatusPending})
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	approved, err := svc.List(context.Background(), owner, sr.ListFilter{Status: sr.StatusApproved})
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, a.ID, approved[0].ID)
}
