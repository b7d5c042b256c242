package controller

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/mr1hm/go-disaster-admin/internal/models"
	"github.com/mr1hm/go-disaster-admin/internal/transport"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

var fixedNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

// fakeAlerts is an in-memory alerts accessor.
type fakeAlerts struct {
	mu sync.Mutex

	list    []models.Alert
	listErr error
	listFn  func(ctx context.Context) ([]models.Alert, error)

	created   models.Alert
	createErr error
	creates   int

	updateErr error
	updates   []models.AlertPatch

	deleteErr error
	deletes   []string
}

func (f *fakeAlerts) List(ctx context.Context) ([]models.Alert, error) {
	f.mu.Lock()
	fn, list, err := f.listFn, f.list, f.listErr
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx)
	}
	if err != nil {
		return nil, err
	}
	return slices.Clone(list), nil
}

func (f *fakeAlerts) Create(ctx context.Context, d models.AlertDraft) (models.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.createErr != nil {
		return models.Alert{}, f.createErr
	}
	a := f.created
	a.Title, a.Location, a.Severity, a.Type, a.Status, a.Description = d.Title, d.Location, d.Severity, d.Type, d.Status, d.Description
	return a, nil
}

func (f *fakeAlerts) Update(ctx context.Context, id string, p models.AlertPatch) (models.Ack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, p)
	if f.updateErr != nil {
		return models.Ack{}, f.updateErr
	}
	return models.Ack{Message: "Alert updated successfully"}, nil
}

func (f *fakeAlerts) Delete(ctx context.Context, id string) (models.Ack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, id)
	if f.deleteErr != nil {
		return models.Ack{}, f.deleteErr
	}
	return models.Ack{Message: "Alert deleted successfully"}, nil
}

func scenarioAlerts() []models.Alert {
	return []models.Alert{
		{ID: "1", Title: "Cyclone watch", Location: "Odisha coast", Severity: models.SeverityLow, Status: models.AlertStatusActive},
		{ID: "2", Title: "Flood", Location: "Assam", Severity: models.SeverityCritical, Status: models.AlertStatusResolved},
	}
}

func loadedAlerts(t *testing.T, fake *fakeAlerts, opts ...Option) *Alerts {
	t.Helper()
	c := NewAlerts(fake, opts...)
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return c
}

func ids(alerts []models.Alert) []string {
	out := make([]string, len(alerts))
	for i, a := range alerts {
		out[i] = a.ID
	}
	return out
}

func TestFilteredView_Scenario(t *testing.T) {
	c := loadedAlerts(t, &fakeAlerts{list: scenarioAlerts()})

	tests := []struct {
		name     string
		severity string
		status   string
		want     []string
	}{
		{"no filters", All, All, []string{"1", "2"}},
		{"severity critical", "critical", All, []string{"2"}},
		{"status active", All, "active", []string{"1"}},
		{"both", "critical", "active", []string{}},
		{"empty means all", "", "", []string{"1", "2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := c.SetFilter("severity", tt.severity); err != nil {
				t.Fatal(err)
			}
			if err := c.SetFilter("status", tt.status); err != nil {
				t.Fatal(err)
			}
			if got := ids(c.Filtered()); !slices.Equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilteredView_AllSentinelReturnsItems(t *testing.T) {
	c := loadedAlerts(t, &fakeAlerts{list: scenarioAlerts()})
	c.SetSearch("")

	got := c.Filtered()
	items := c.Items()
	if len(got) != len(items) {
		t.Fatalf("expected %d items, got %d", len(items), len(got))
	}
	for i := range items {
		if got[i].ID != items[i].ID {
			t.Errorf("order differs at %d: %s != %s", i, got[i].ID, items[i].ID)
		}
	}
}

func TestFilteredView_MonotonicNarrowing(t *testing.T) {
	alerts := append(scenarioAlerts(),
		models.Alert{ID: "3", Title: "Heatwave", Location: "Rajasthan", Severity: models.SeverityCritical, Status: models.AlertStatusActive},
		models.Alert{ID: "4", Title: "Flash flood", Location: "Uttarakhand", Severity: models.SeverityCritical, Status: models.AlertStatusActive},
	)
	c := loadedAlerts(t, &fakeAlerts{list: alerts})

	steps := []func(){
		func() { c.SetFilter("severity", "critical") },
		func() { c.SetFilter("status", "active") },
		func() { c.SetSearch("FLOOD") },
		func() { c.SetSearch("flash flood uttar") },
	}

	prev := ids(c.Filtered())
	for i, step := range steps {
		step()
		cur := ids(c.Filtered())
		for _, id := range cur {
			if !slices.Contains(prev, id) {
				t.Fatalf("step %d: %s not in previous result %v", i, id, prev)
			}
		}
		if len(cur) > len(prev) {
			t.Fatalf("step %d widened the result: %v -> %v", i, prev, cur)
		}
		prev = cur
	}
	if len(prev) != 0 {
		t.Errorf("expected empty final result, got %v", prev)
	}
}

func TestFilteredView_SearchIsCaseInsensitiveOverSearchFields(t *testing.T) {
	c := loadedAlerts(t, &fakeAlerts{list: scenarioAlerts()})

	c.SetSearch("ASSAM")
	if got := ids(c.Filtered()); !slices.Equal(got, []string{"2"}) {
		t.Errorf("location search: got %v", got)
	}

	c.SetSearch("cyclone")
	if got := ids(c.Filtered()); !slices.Equal(got, []string{"1"}) {
		t.Errorf("title search: got %v", got)
	}

	c.SetSearch("flood ")
	if got := ids(c.Filtered()); len(got) != 0 {
		t.Errorf("search text is matched as typed, got %v", got)
	}

	c.ResetFilters()
	if got := ids(c.Filtered()); len(got) != 2 {
		t.Errorf("reset should show everything, got %v", got)
	}
}

func TestFilteredView_IsRestartableSnapshot(t *testing.T) {
	fake := &fakeAlerts{list: scenarioAlerts()}
	c := loadedAlerts(t, fake)

	view := c.FilteredView()

	fake.mu.Lock()
	fake.list = nil
	fake.mu.Unlock()
	if err := c.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	for range 2 {
		n := 0
		for range view {
			n++
		}
		if n != 2 {
			t.Errorf("expected the snapshot to yield 2 items, got %d", n)
		}
	}

	for a := range c.FilteredView() {
		t.Errorf("expected no items after reload, got %s", a.ID)
	}
}

func TestSetFilter_Unknown(t *testing.T) {
	c := NewAlerts(&fakeAlerts{})
	if err := c.SetFilter("priority", "urgent"); !errors.Is(err, ErrUnknownFilter) {
		t.Errorf("expected ErrUnknownFilter, got %v", err)
	}
	if got := c.FilterNames(); !slices.Equal(got, []string{"severity", "status"}) {
		t.Errorf("unexpected filter names %v", got)
	}
	if c.Filter("severity") != All {
		t.Errorf("unset filter should read as %q", All)
	}
}

func TestLoad_FailureLeavesItemsUntouched(t *testing.T) {
	fake := &fakeAlerts{list: scenarioAlerts()}
	c := loadedAlerts(t, fake)
	before := c.Items()

	fake.mu.Lock()
	fake.listErr = transport.ErrNetworkUnavailable
	fake.mu.Unlock()

	err := c.Load(context.Background())
	if !errors.Is(err, transport.ErrNetworkUnavailable) {
		t.Fatalf("expected ErrNetworkUnavailable, got %v", err)
	}
	if !errors.Is(c.Err(), transport.ErrNetworkUnavailable) {
		t.Errorf("expected recorded error, got %v", c.Err())
	}
	if got := c.Items(); !slices.Equal(ids(got), ids(before)) || got[0] != before[0] {
		t.Errorf("items changed on failed load: %v", got)
	}
	if c.Pending() {
		t.Error("pending should be cleared")
	}

	fake.mu.Lock()
	fake.listErr = nil
	fake.mu.Unlock()
	if err := c.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if c.Err() != nil {
		t.Errorf("successful load should clear the error, got %v", c.Err())
	}
}

// gatedLoads makes each List call block until the test releases it.
type gatedLoads struct {
	started chan int
	gates   []chan []models.Alert
	mu      sync.Mutex
	calls   int
}

func newGatedLoads(n int) *gatedLoads {
	g := &gatedLoads{started: make(chan int, n)}
	for range n {
		g.gates = append(g.gates, make(chan []models.Alert, 1))
	}
	return g
}

func (g *gatedLoads) list(ctx context.Context) ([]models.Alert, error) {
	g.mu.Lock()
	i := g.calls
	g.calls++
	g.mu.Unlock()
	g.started <- i
	return <-g.gates[i], nil
}

func TestLoad_LatestIssuedWins(t *testing.T) {
	first := []models.Alert{{ID: "old"}}
	second := []models.Alert{{ID: "new"}}

	tests := []struct {
		name  string
		order []int
	}{
		{"second resolves last", []int{0, 1}},
		{"second resolves first", []int{1, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGatedLoads(2)
			c := NewAlerts(&fakeAlerts{listFn: g.list})

			done := []chan error{make(chan error, 1), make(chan error, 1)}
			go func() { done[0] <- c.Load(context.Background()) }()
			<-g.started
			go func() { done[1] <- c.Load(context.Background()) }()
			<-g.started

			if !c.Pending() {
				t.Error("expected pending while loads are in flight")
			}

			responses := [][]models.Alert{first, second}
			for _, i := range tt.order {
				g.gates[i] <- responses[i]
				if err := <-done[i]; err != nil {
					t.Fatalf("load %d failed: %v", i, err)
				}
			}

			if got := ids(c.Items()); !slices.Equal(got, []string{"new"}) {
				t.Errorf("expected the second load's data, got %v", got)
			}
			if c.Pending() {
				t.Error("pending should be cleared")
			}
		})
	}
}

func TestCreate_PrependsServerEntity(t *testing.T) {
	fake := &fakeAlerts{
		list:    scenarioAlerts(),
		created: models.Alert{ID: "99", CreatedAt: "T0", UpdatedAt: "T0"},
	}
	c := loadedAlerts(t, fake)

	draft := models.NewAlertDraft()
	draft.Title = "Flood"
	draft.Location = "Assam"
	draft.Severity = models.SeverityHigh

	created, err := c.Create(context.Background(), draft)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID != "99" {
		t.Errorf("expected server id, got %q", created.ID)
	}

	c.ResetFilters()
	got := c.Filtered()
	if len(got) != 3 || got[0].ID != "99" || got[0].CreatedAt != "T0" {
		t.Errorf("expected created alert first, got %v", ids(got))
	}
	if got := c.Items(); got[0].ID != "99" {
		t.Errorf("items[0] = %q, want 99", got[0].ID)
	}
}

func TestCreate_AfterLoadThatAlreadyHasTheEntity(t *testing.T) {
	fake := &blockingCreates{
		fakeAlerts: fakeAlerts{list: scenarioAlerts(), created: models.Alert{ID: "99"}},
		started:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	c := NewAlerts(fake)
	if err := c.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	draft := models.NewAlertDraft()
	draft.Title = "Flood"
	draft.Location = "Silchar"

	done := make(chan error, 1)
	go func() {
		_, err := c.Create(context.Background(), draft)
		done <- err
	}()
	<-fake.started

	fake.mu.Lock()
	fake.list = append([]models.Alert{{ID: "99", Title: "Flood", Location: "Silchar"}}, fake.list...)
	fake.mu.Unlock()
	if err := c.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	close(fake.release)
	if err := <-done; err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if got := ids(c.Items()); !slices.Equal(got, []string{"99", "1", "2"}) {
		t.Errorf("expected each id once, got %v", got)
	}
}

type blockingCreates struct {
	fakeAlerts
	started chan struct{}
	release chan struct{}
}

func (b *blockingCreates) Create(ctx context.Context, d models.AlertDraft) (models.Alert, error) {
	close(b.started)
	<-b.release
	return b.fakeAlerts.Create(ctx, d)
}

func TestCreate_ValidationBeforeNetwork(t *testing.T) {
	fake := &fakeAlerts{}
	c := NewAlerts(fake)

	draft := models.NewAlertDraft()
	draft.Title = "Flood"

	_, err := c.Create(context.Background(), draft)
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	var vErr *models.ValidationError
	if !errors.As(err, &vErr) || !slices.Equal(vErr.Fields, []string{"location"}) {
		t.Errorf("expected missing location, got %v", err)
	}
	if fake.creates != 0 {
		t.Error("no create call expected")
	}
	if c.Len() != 0 {
		t.Error("items must be unchanged")
	}
}

func TestSubmit_ResetsFormOnlyOnSuccess(t *testing.T) {
	fake := &fakeAlerts{created: models.Alert{ID: "7"}, createErr: &transport.RequestError{StatusCode: 500, Message: "boom"}}
	c := NewAlerts(fake)

	form := c.Form()
	if form.Severity != models.SeverityMedium || form.Status != models.AlertStatusActive {
		t.Fatalf("unexpected default form %+v", form)
	}
	form.Title = "Landslide"
	form.Location = "Shimla"
	c.SetForm(form)

	if _, err := c.Submit(context.Background()); !errors.Is(err, transport.ErrRequestFailed) {
		t.Fatalf("expected request failure, got %v", err)
	}
	if c.Form().Title != "Landslide" {
		t.Error("form must be preserved after a failed submit")
	}
	if c.Len() != 0 {
		t.Error("items must be unchanged after a failed submit")
	}

	fake.mu.Lock()
	fake.createErr = nil
	fake.mu.Unlock()

	created, err := c.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if created.Title != "Landslide" {
		t.Errorf("unexpected created %+v", created)
	}
	if c.Form() != models.NewAlertDraft() {
		t.Errorf("form should be reset, got %+v", c.Form())
	}
}

func TestSelection(t *testing.T) {
	fake := &fakeAlerts{list: scenarioAlerts()}
	c := loadedAlerts(t, fake, WithConfirmer(ConfirmFunc(func(context.Context, string) bool { return true })))

	if err := c.Select("nope"); !errors.Is(err, ErrUnknownID) {
		t.Errorf("expected ErrUnknownID, got %v", err)
	}
	if err := c.Select("2"); err != nil {
		t.Fatal(err)
	}
	if a, ok := c.Selected(); !ok || a.Title != "Flood" {
		t.Errorf("unexpected selection %+v %v", a, ok)
	}

	if err := c.Remove(context.Background(), "2"); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Selected(); ok {
		t.Error("selection should be gone with its entity")
	}

	c.Select("1")
	c.ClearSelection()
	if _, ok := c.Selected(); ok {
		t.Error("selection should be cleared")
	}
}

func TestSubscribe(t *testing.T) {
	fake := &fakeAlerts{list: scenarioAlerts()}
	c := NewAlerts(fake)
	id, events := c.Subscribe()

	if err := c.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	c.SetSearch("flood")

	for _, want := range []EventType{EventLoaded, EventFiltered} {
		select {
		case e := <-events:
			if e.Type != want || e.Kind != "alerts" {
				t.Errorf("got %+v, want %s", e, want)
			}
		case <-time.After(time.Second):
			t.Fatalf("timeout waiting for %s", want)
		}
	}

	c.Unsubscribe(id)
	if _, ok := <-events; ok {
		t.Error("channel should be closed after Unsubscribe")
	}
}

func TestCounts(t *testing.T) {
	c := loadedAlerts(t, &fakeAlerts{list: append(scenarioAlerts(), models.Alert{ID: "3", Status: "archived"})})

	counts, err := c.Counts("status")
	if err != nil {
		t.Fatal(err)
	}
	if counts["active"] != 1 || counts["resolved"] != 1 || counts["archived"] != 1 {
		t.Errorf("unexpected counts %v", counts)
	}
	if _, err := c.Counts("type"); !errors.Is(err, ErrUnknownFilter) {
		t.Errorf("expected ErrUnknownFilter, got %v", err)
	}
	if got := c.Active(); len(got) != 1 || got[0].ID != "1" {
		t.Errorf("unexpected active alerts %v", ids(got))
	}
}
