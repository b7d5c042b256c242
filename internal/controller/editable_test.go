package controller

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"testing"
	"time"

	"github.com/mr1hm/go-disaster-admin/internal/models"
	"github.com/mr1hm/go-disaster-admin/internal/transport"
)

var rejected = &transport.RequestError{StatusCode: http.StatusInternalServerError, Message: "database locked"}

func alwaysConfirm() Option {
	return WithConfirmer(ConfirmFunc(func(context.Context, string) bool { return true }))
}

func TestUpdateStatus_OptimisticSuccess(t *testing.T) {
	fake := &fakeAlerts{list: scenarioAlerts()}
	c := loadedAlerts(t, fake, WithClock(func() time.Time { return fixedNow }))

	if err := c.UpdateStatus(context.Background(), "1", models.AlertStatusMonitoring); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}

	a, _ := c.Get("1")
	if a.Status != models.AlertStatusMonitoring {
		t.Errorf("expected monitoring, got %s", a.Status)
	}
	if a.UpdatedAt != "2026-03-01T10:00:00.000Z" {
		t.Errorf("expected fresh updatedAt, got %q", a.UpdatedAt)
	}
	if c.SyncState("1") != Synced {
		t.Errorf("expected synced, got %s", c.SyncState("1"))
	}
	if len(fake.updates) != 1 || *fake.updates[0].Status != models.AlertStatusMonitoring || fake.updates[0].Title != nil {
		t.Errorf("unexpected patch sent %+v", fake.updates)
	}
}

func TestUpdateStatus_OptimisticRejectedRollsBack(t *testing.T) {
	fake := &fakeAlerts{list: scenarioAlerts(), updateErr: rejected}
	c := loadedAlerts(t, fake)
	before, _ := c.Get("1")

	err := c.UpdateStatus(context.Background(), "1", models.AlertStatusResolved)
	if !errors.Is(err, transport.ErrRequestFailed) {
		t.Fatalf("expected request failure, got %v", err)
	}

	after, _ := c.Get("1")
	if after != before {
		t.Errorf("expected rollback to %+v, got %+v", before, after)
	}
	if c.SyncState("1") != Synced {
		t.Errorf("expected synced after rollback, got %s", c.SyncState("1"))
	}
	if !errors.Is(c.Err(), transport.ErrRequestFailed) {
		t.Errorf("error must be surfaced, got %v", c.Err())
	}
}

func TestUpdateStatus_OptimisticRejectedKeepsStaleWithoutRollback(t *testing.T) {
	fake := &fakeAlerts{list: scenarioAlerts(), updateErr: rejected}
	c := loadedAlerts(t, fake, WithRollback(false))

	err := c.UpdateStatus(context.Background(), "1", models.AlertStatusResolved)
	if err == nil {
		t.Fatal("expected error")
	}

	after, _ := c.Get("1")
	if after.Status != models.AlertStatusResolved {
		t.Errorf("expected the patched value to remain, got %s", after.Status)
	}
	if c.SyncState("1") != Stale {
		t.Errorf("expected stale, got %s", c.SyncState("1"))
	}
}

func TestUpdateStatus_PendingWhileInFlight(t *testing.T) {
	release := make(chan struct{})
	fake := &blockingUpdates{fakeAlerts: fakeAlerts{list: scenarioAlerts()}, release: release, started: make(chan struct{})}
	c := NewAlerts(fake)
	if err := c.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() { done <- c.UpdateStatus(context.Background(), "2", models.AlertStatusActive) }()
	<-fake.started

	if c.SyncState("2") != Pending {
		t.Errorf("expected pending, got %s", c.SyncState("2"))
	}
	if a, _ := c.Get("2"); a.Status != models.AlertStatusActive {
		t.Errorf("optimistic value should show before the ack, got %s", a.Status)
	}
	if !c.Pending() {
		t.Error("controller should report pending work")
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if c.SyncState("2") != Synced {
		t.Errorf("expected synced, got %s", c.SyncState("2"))
	}
}

func TestUpdateStatus_RejectedAfterFailedLoadRollsBack(t *testing.T) {
	release := make(chan struct{})
	fake := &blockingUpdates{
		fakeAlerts: fakeAlerts{list: scenarioAlerts(), updateErr: rejected},
		release:    release,
		started:    make(chan struct{}),
	}
	c := NewAlerts(fake)
	if err := c.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() { done <- c.UpdateStatus(context.Background(), "1", models.AlertStatusResolved) }()
	<-fake.started

	fake.mu.Lock()
	fake.listErr = errors.New("offline")
	fake.mu.Unlock()
	if err := c.Load(context.Background()); err == nil {
		t.Fatal("expected the load to fail")
	}

	close(release)
	if err := <-done; !errors.Is(err, transport.ErrRequestFailed) {
		t.Fatalf("expected request failure, got %v", err)
	}
	if a, _ := c.Get("1"); a.Status != models.AlertStatusActive {
		t.Errorf("expected rollback to active, got %s", a.Status)
	}
	if c.SyncState("1") != Synced {
		t.Errorf("expected synced, got %s", c.SyncState("1"))
	}
}

func TestUpdateStatus_RejectedAfterAppliedLoadKeepsServerValue(t *testing.T) {
	release := make(chan struct{})
	fake := &blockingUpdates{
		fakeAlerts: fakeAlerts{list: scenarioAlerts(), updateErr: rejected},
		release:    release,
		started:    make(chan struct{}),
	}
	c := NewAlerts(fake)
	if err := c.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() { done <- c.UpdateStatus(context.Background(), "1", models.AlertStatusResolved) }()
	<-fake.started

	fake.mu.Lock()
	fake.list = slices.Clone(fake.list)
	fake.list[0].Status = models.AlertStatusMonitoring
	fake.mu.Unlock()
	if err := c.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	close(release)
	if err := <-done; err == nil {
		t.Fatal("expected error")
	}
	if a, _ := c.Get("1"); a.Status != models.AlertStatusMonitoring {
		t.Errorf("expected the loaded value, got %s", a.Status)
	}
	if c.SyncState("1") != Synced {
		t.Errorf("expected synced, got %s", c.SyncState("1"))
	}
}

func TestLoad_ClearsStaleState(t *testing.T) {
	fake := &fakeAlerts{list: scenarioAlerts(), updateErr: rejected}
	c := loadedAlerts(t, fake, WithRollback(false))

	if err := c.UpdateStatus(context.Background(), "1", models.AlertStatusResolved); err == nil {
		t.Fatal("expected error")
	}
	if c.SyncState("1") != Stale {
		t.Fatalf("expected stale, got %s", c.SyncState("1"))
	}

	if err := c.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if a, _ := c.Get("1"); a.Status != models.AlertStatusActive {
		t.Errorf("expected the server value, got %s", a.Status)
	}
	if c.SyncState("1") != Synced {
		t.Errorf("expected synced after reload, got %s", c.SyncState("1"))
	}
}

type blockingUpdates struct {
	fakeAlerts
	started chan struct{}
	release chan struct{}
}

func (b *blockingUpdates) Update(ctx context.Context, id string, p models.AlertPatch) (models.Ack, error) {
	close(b.started)
	<-b.release
	return b.fakeAlerts.Update(ctx, id, p)
}

func TestUpdateFields_UnknownID(t *testing.T) {
	fake := &fakeAlerts{list: scenarioAlerts()}
	c := loadedAlerts(t, fake)

	title := "x"
	if err := c.UpdateFields(context.Background(), "42", models.AlertPatch{Title: &title}); !errors.Is(err, ErrUnknownID) {
		t.Errorf("expected ErrUnknownID, got %v", err)
	}
	if len(fake.updates) != 0 {
		t.Error("no update call expected")
	}
}

func TestRemove_RequiresConfirmation(t *testing.T) {
	fake := &fakeAlerts{list: scenarioAlerts()}
	c := loadedAlerts(t, fake)

	if err := c.Remove(context.Background(), "1"); !errors.Is(err, ErrNotConfirmed) {
		t.Fatalf("expected ErrNotConfirmed, got %v", err)
	}
	if len(fake.deletes) != 0 || c.Len() != 2 {
		t.Error("declined delete must not be sent")
	}

	var prompt string
	c = loadedAlerts(t, fake, WithConfirmer(ConfirmFunc(func(_ context.Context, p string) bool {
		prompt = p
		return true
	})))
	if err := c.Remove(context.Background(), "1"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if prompt != "Delete alerts 1?" {
		t.Errorf("unexpected prompt %q", prompt)
	}
	if got := ids(c.Items()); !slices.Equal(got, []string{"2"}) {
		t.Errorf("expected local removal, got %v", got)
	}
}

func TestRemove_FailureKeepsItem(t *testing.T) {
	fake := &fakeAlerts{list: scenarioAlerts(), deleteErr: transport.ErrNetworkUnavailable}
	c := loadedAlerts(t, fake, alwaysConfirm())

	if err := c.Remove(context.Background(), "2"); !errors.Is(err, transport.ErrNetworkUnavailable) {
		t.Fatalf("expected network error, got %v", err)
	}
	if c.Len() != 2 {
		t.Error("item must stay after a failed delete")
	}
	if c.Pending() {
		t.Error("pending should be cleared")
	}
}

func TestSyncState_String(t *testing.T) {
	for s, want := range map[SyncState]string{Synced: "synced", Pending: "pending", Stale: "stale", SyncState(9): "unknown"} {
		if s.String() != want {
			t.Errorf("%d: got %q, want %q", s, s.String(), want)
		}
	}
}
