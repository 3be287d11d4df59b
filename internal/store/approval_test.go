package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pesio-ai/be-dash-approvals/internal/logger"
)

func newTestStores(t *testing.T) (*ApprovalStore, *NotificationStore, *MemoryStorage) {
	t.Helper()
	ctx := context.Background()

	storage := NewMemoryStorage()
	notifications, err := NewNotificationStore(ctx, storage, nil, logger.Nop())
	require.NoError(t, err)
	approvals, err := NewApprovalStore(ctx, storage, notifications, logger.Nop())
	require.NoError(t, err)

	return approvals, notifications, storage
}

func TestAddPendingCreatesRequestAndNotification(t *testing.T) {
	approvals, notifications, _ := newTestStores(t)
	ctx := context.Background()

	created := approvals.AddPending(ctx, &AddPendingRequest{
		Concept: "Servidores",
		Amount:  100000,
		Urgent:  true,
	})

	require.NotEmpty(t, created.ID)
	assert.Empty(t, created.Status)

	pending := approvals.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, created.ID, pending[0].ID)
	assert.Equal(t, "Servidores", pending[0].Concept)
	assert.True(t, pending[0].Urgent)
	assert.Equal(t, 1, approvals.PendingCount())

	entries := notifications.Notifications()
	require.Len(t, entries, 1)
	assert.Equal(t, ActionCreated, entries[0].Action)
	assert.Equal(t, "approvals", entries[0].Type)
	assert.Equal(t, created.ID, entries[0].EntityID)
	assert.Contains(t, entries[0].Description, "Servidores")
	assert.Contains(t, entries[0].Description, "1,000.00")
	assert.Equal(t, 1, notifications.UnreadCount())
}

func TestApproveMovesRequestToTerminalCollection(t *testing.T) {
	approvals, notifications, _ := newTestStores(t)
	ctx := context.Background()

	created := approvals.AddPending(ctx, &AddPendingRequest{Concept: "Servidores", Amount: 100000})

	require.True(t, approvals.Approve(ctx, created.ID))

	assert.Empty(t, approvals.Pending())
	assert.Equal(t, 0, approvals.PendingCount())

	approved := approvals.Approved()
	require.Len(t, approved, 1)
	assert.Equal(t, created.ID, approved[0].ID)
	assert.Equal(t, StatusApproved, approved[0].Status)

	entries := notifications.Notifications()
	require.Len(t, entries, 2)
	assert.Equal(t, ActionUpdated, entries[0].Action)
	assert.Contains(t, entries[0].Description, "approved")
	assert.Equal(t, 2, notifications.UnreadCount())
}

func TestRejectMovesRequestToTerminalCollection(t *testing.T) {
	approvals, notifications, _ := newTestStores(t)
	ctx := context.Background()

	created := approvals.AddPending(ctx, &AddPendingRequest{Concept: "Licencias", Amount: 5000})

	require.True(t, approvals.Reject(ctx, created.ID))

	assert.Empty(t, approvals.Pending())
	rejected := approvals.Rejected()
	require.Len(t, rejected, 1)
	assert.Equal(t, StatusRejected, rejected[0].Status)

	entries := notifications.Notifications()
	require.Len(t, entries, 2)
	assert.Contains(t, entries[0].Description, "rejected")
}

func TestDecideUnknownIDIsSilentNoOp(t *testing.T) {
	approvals, notifications, _ := newTestStores(t)
	ctx := context.Background()

	approvals.AddPending(ctx, &AddPendingRequest{Concept: "Servidores", Amount: 100000})

	assert.False(t, approvals.Approve(ctx, "no-such-id"))
	assert.False(t, approvals.Reject(ctx, "no-such-id"))

	assert.Equal(t, 1, approvals.PendingCount())
	assert.Empty(t, approvals.Approved())
	assert.Empty(t, approvals.Rejected())
	assert.Len(t, notifications.Notifications(), 1)
}

func TestTerminalDecisionsAreFinal(t *testing.T) {
	approvals, notifications, _ := newTestStores(t)
	ctx := context.Background()

	created := approvals.AddPending(ctx, &AddPendingRequest{Concept: "Servidores", Amount: 100000})
	require.True(t, approvals.Approve(ctx, created.ID))

	// Re-deciding a terminal id declines silently: no duplicate record,
	// no re-emitted notification, no move between terminal collections.
	assert.False(t, approvals.Approve(ctx, created.ID))
	assert.False(t, approvals.Reject(ctx, created.ID))

	assert.Len(t, approvals.Approved(), 1)
	assert.Empty(t, approvals.Rejected())
	assert.Len(t, notifications.Notifications(), 2)
}

func TestPendingCountTracksSuccessfulDecisions(t *testing.T) {
	approvals, _, _ := newTestStores(t)
	ctx := context.Background()

	ids := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		created := approvals.AddPending(ctx, &AddPendingRequest{Concept: "Gasto", Amount: int64(i * 100)})
		ids = append(ids, created.ID)
	}
	require.Equal(t, 5, approvals.PendingCount())

	require.True(t, approvals.Approve(ctx, ids[0]))
	require.True(t, approvals.Reject(ctx, ids[3]))
	assert.False(t, approvals.Approve(ctx, "missing"))

	// 5 adds minus 2 successful decisions; the miss does not count.
	assert.Equal(t, 3, approvals.PendingCount())
}

func TestCollectionsAreMostRecentFirst(t *testing.T) {
	approvals, _, _ := newTestStores(t)
	ctx := context.Background()

	first := approvals.AddPending(ctx, &AddPendingRequest{Concept: "Primero"})
	second := approvals.AddPending(ctx, &AddPendingRequest{Concept: "Segundo"})
	third := approvals.AddPending(ctx, &AddPendingRequest{Concept: "Tercero"})

	pending := approvals.Pending()
	require.Len(t, pending, 3)
	assert.Equal(t, third.ID, pending[0].ID)
	assert.Equal(t, second.ID, pending[1].ID)
	assert.Equal(t, first.ID, pending[2].ID)

	require.True(t, approvals.Approve(ctx, first.ID))
	require.True(t, approvals.Approve(ctx, third.ID))

	approved := approvals.Approved()
	require.Len(t, approved, 2)
	assert.Equal(t, third.ID, approved[0].ID)
	assert.Equal(t, first.ID, approved[1].ID)
}

func TestTransfersDefaultToZeroAndDropUnknownDestinations(t *testing.T) {
	approvals, _, _ := newTestStores(t)
	ctx := context.Background()

	created := approvals.AddPending(ctx, &AddPendingRequest{
		Concept:   "Traspaso",
		Amount:    700,
		Transfers: map[string]int64{"nomina": 250, "bogus": 999},
	})

	require.Len(t, created.Transfers, len(TransferDestinations))
	assert.Equal(t, int64(250), created.Transfers["nomina"])
	assert.Equal(t, int64(0), created.Transfers["tesoreria"])
	assert.Equal(t, int64(0), created.Transfers["proveedores"])
	assert.Equal(t, int64(0), created.Transfers["impuestos"])
	assert.NotContains(t, created.Transfers, "bogus")
}

func TestApprovalStoreRehydratesFromStorage(t *testing.T) {
	approvals, _, storage := newTestStores(t)
	ctx := context.Background()

	created := approvals.AddPending(ctx, &AddPendingRequest{Concept: "Servidores", Amount: 100000, Urgent: true})
	other := approvals.AddPending(ctx, &AddPendingRequest{Concept: "Licencias", Amount: 5000})
	require.True(t, approvals.Approve(ctx, created.ID))

	reloaded, err := NewApprovalStore(ctx, storage, nil, logger.Nop())
	require.NoError(t, err)

	wantPending, err := json.Marshal(approvals.Pending())
	require.NoError(t, err)
	gotPending, err := json.Marshal(reloaded.Pending())
	require.NoError(t, err)
	assert.JSONEq(t, string(wantPending), string(gotPending))

	wantApproved, err := json.Marshal(approvals.Approved())
	require.NoError(t, err)
	gotApproved, err := json.Marshal(reloaded.Approved())
	require.NoError(t, err)
	assert.JSONEq(t, string(wantApproved), string(gotApproved))

	assert.Equal(t, 1, reloaded.PendingCount())
	require.Len(t, reloaded.Pending(), 1)
	assert.Equal(t, other.ID, reloaded.Pending()[0].ID)
}

func TestReadAccessorsReturnCopies(t *testing.T) {
	approvals, _, _ := newTestStores(t)
	ctx := context.Background()

	approvals.AddPending(ctx, &AddPendingRequest{Concept: "Servidores", Amount: 100000})

	pending := approvals.Pending()
	pending[0].Concept = "mutated"
	pending[0].Transfers["nomina"] = 12345

	fresh := approvals.Pending()
	assert.Equal(t, "Servidores", fresh[0].Concept)
	assert.Equal(t, int64(0), fresh[0].Transfers["nomina"])
}
