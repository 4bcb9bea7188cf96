package rsengine_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/leafbridge/rootstock/hostmutex"
	"github.com/leafbridge/rootstock/rsdeploy"
	"github.com/leafbridge/rootstock/rsdeployevent"
	"github.com/leafbridge/rootstock/rsengine"
	"github.com/leafbridge/rootstock/rsevent"
	"github.com/leafbridge/rootstock/rsjournal"
	"github.com/leafbridge/rootstock/rsvariables"
)

var engineTarget = rsdeploy.TargetID{
	Environment: "production",
	Project:     "billing",
	Machine:     "web-01",
}

// captureHandler retains every event record it receives.
type captureHandler struct {
	mu      sync.Mutex
	records []rsevent.Record
}

func (h *captureHandler) Name() string { return "capture" }

func (h *captureHandler) Handle(r rsevent.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r)
	return nil
}

// eventsOf returns the captured events of type T in the order they were
// recorded.
func eventsOf[T rsevent.Interface](h *captureHandler) []T {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []T
	for _, r := range h.records {
		if record, ok := r.(rsevent.RecordOf[T]); ok {
			out = append(out, record.Event)
		}
	}
	return out
}

// testHarness holds a deployment engine and its collaborators, rooted in
// a temporary directory.
type testHarness struct {
	home    string
	engine  rsengine.Engine
	journal rsjournal.Store
	events  *captureHandler
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()
	home := t.TempDir()

	locks, err := hostmutex.OpenDir(filepath.Join(home, "locks"))
	if err != nil {
		t.Fatalf("failed to open the lock directory: %v", err)
	}
	journal, err := rsjournal.OpenStore(filepath.Join(home, "journal"))
	if err != nil {
		t.Fatalf("failed to open the journal store: %v", err)
	}

	events := &captureHandler{}
	engine := rsengine.NewEngine(rsengine.Options{
		Locks:       locks,
		Journal:     journal,
		Events:      rsevent.Recorder{Handler: events},
		LockTimeout: time.Second,
	})
	return &testHarness{home: home, engine: engine, journal: journal, events: events}
}

// newDeployment returns a deployment for the test target. The fingerprint
// is precomputed so that runs do not need a package file on disk.
func (h *testHarness) newDeployment(id string) *rsengine.RunningDeployment {
	return &rsengine.RunningDeployment{
		ID:          rsdeploy.DeploymentID(id),
		Target:      engineTarget,
		Package:     rsdeploy.PackageInfo{Path: "/var/tmp/site.zip", Format: rsdeploy.FormatZip},
		Variables:   rsvariables.NewStore(),
		Fingerprint: "c0ffee",
	}
}

// breakJournal replaces the journal directory with a regular file, so that
// every journal read and write fails.
func (h *testHarness) breakJournal(t *testing.T) {
	t.Helper()
	path := filepath.Join(h.home, "journal")
	if err := os.RemoveAll(path); err != nil {
		t.Fatalf("failed to remove the journal directory: %v", err)
	}
	if err := os.WriteFile(path, []byte("not a directory"), 0o644); err != nil {
		t.Fatalf("failed to replace the journal directory: %v", err)
	}
}

// namedConvention is a convention with a canned behavior.
type namedConvention struct {
	name string
	run  func(ctx context.Context, deployment *rsengine.RunningDeployment) error
}

func (c namedConvention) Name() string { return c.name }

func (c namedConvention) Execute(ctx context.Context, deployment *rsengine.RunningDeployment) error {
	if c.run == nil {
		return nil
	}
	return c.run(ctx, deployment)
}

func TestEngineRunsConventionsInOrder(t *testing.T) {
	h := newTestHarness(t)
	deployment := h.newDeployment("run-1")

	var order []string
	record := func(name string) rsengine.Convention {
		return namedConvention{name: name, run: func(ctx context.Context, d *rsengine.RunningDeployment) error {
			order = append(order, name)
			return nil
		}}
	}

	err := h.engine.Run(context.Background(), deployment, []rsengine.Convention{
		record("first"), record("second"), record("third"),
	})
	if err != nil {
		t.Fatalf("the run failed: %v", err)
	}

	if len(order) != 3 || order[0] != "first" || order[1] != "second" || order[2] != "third" {
		t.Errorf("conventions ran as %v (expected [first second third])", order)
	}

	entry, found, err := h.journal.TryGetEntry(engineTarget)
	if err != nil || !found {
		t.Fatalf("the run was not journaled: found=%t err=%v", found, err)
	}
	if !entry.Successful {
		t.Error("a successful run was journaled as a failure")
	}
	if entry.ID != "run-1" {
		t.Errorf("journal entry ID: %s (expected run-1)", entry.ID)
	}
	if entry.Fingerprint != "c0ffee" {
		t.Errorf("journal entry fingerprint: %s (expected c0ffee)", entry.Fingerprint)
	}

	started := eventsOf[rsdeployevent.ConventionStarted](h.events)
	if len(started) != 3 {
		t.Fatalf("convention start events: %d (expected 3)", len(started))
	}
	for i, event := range started {
		if event.Position != i+1 || event.Total != 3 {
			t.Errorf("event %d reports position %d of %d", i, event.Position, event.Total)
		}
	}

	stopped := eventsOf[rsdeployevent.PipelineStopped](h.events)
	if len(stopped) != 1 {
		t.Fatalf("pipeline stop events: %d (expected 1)", len(stopped))
	}
	if stopped[0].Err != nil || stopped[0].Skipped {
		t.Errorf("pipeline stop reports err=%v skipped=%t", stopped[0].Err, stopped[0].Skipped)
	}
}

func TestEngineStopsAtFirstFailure(t *testing.T) {
	h := newTestHarness(t)
	deployment := h.newDeployment("run-1")

	sentinel := errors.New("the disk is full")
	executed := false

	err := h.engine.Run(context.Background(), deployment, []rsengine.Convention{
		namedConvention{name: "ok"},
		namedConvention{name: "failing", run: func(ctx context.Context, d *rsengine.RunningDeployment) error {
			return sentinel
		}},
		namedConvention{name: "later", run: func(ctx context.Context, d *rsengine.RunningDeployment) error {
			executed = true
			return nil
		}},
	})

	if err != sentinel {
		t.Errorf("the run returned %v (expected the convention's error unchanged)", err)
	}
	if executed {
		t.Error("a convention ran after an earlier convention failed")
	}

	entry, found, err := h.journal.TryGetEntry(engineTarget)
	if err != nil || !found {
		t.Fatalf("the failed run was not journaled: found=%t err=%v", found, err)
	}
	if entry.Successful {
		t.Error("a failed run was journaled as a success")
	}

	stopped := eventsOf[rsdeployevent.ConventionStopped](h.events)
	if len(stopped) != 2 {
		t.Fatalf("convention stop events: %d (expected 2)", len(stopped))
	}
	if stopped[0].Err != nil {
		t.Errorf("the first convention reported an error: %v", stopped[0].Err)
	}
	if stopped[1].Err == nil {
		t.Error("the failing convention reported no error")
	}
}

func TestEngineSkipRemaining(t *testing.T) {
	h := newTestHarness(t)
	deployment := h.newDeployment("run-1")

	executed := false
	err := h.engine.Run(context.Background(), deployment, []rsengine.Convention{
		namedConvention{name: "skipper", run: func(ctx context.Context, d *rsengine.RunningDeployment) error {
			d.SkipRemaining = true
			return nil
		}},
		namedConvention{name: "later", run: func(ctx context.Context, d *rsengine.RunningDeployment) error {
			executed = true
			return nil
		}},
	})
	if err != nil {
		t.Fatalf("the run failed: %v", err)
	}
	if executed {
		t.Error("a convention ran after an earlier convention ended the run")
	}

	// An early termination is still a successful, journaled run.
	entry, found, err := h.journal.TryGetEntry(engineTarget)
	if err != nil || !found {
		t.Fatalf("the skipped run was not journaled: found=%t err=%v", found, err)
	}
	if !entry.Successful {
		t.Error("a skipped run was journaled as a failure")
	}

	stopped := eventsOf[rsdeployevent.PipelineStopped](h.events)
	if len(stopped) != 1 || !stopped[0].Skipped {
		t.Errorf("pipeline stop events: %+v (expected one skipped stop)", stopped)
	}
}

func TestEngineSkipJournal(t *testing.T) {
	h := newTestHarness(t)
	deployment := h.newDeployment("run-1")
	deployment.SkipJournal = true

	err := h.engine.Run(context.Background(), deployment, []rsengine.Convention{
		namedConvention{name: "ok"},
	})
	if err != nil {
		t.Fatalf("the run failed: %v", err)
	}

	if _, found, err := h.journal.TryGetEntry(engineTarget); err != nil || found {
		t.Errorf("a suppressed run reached the journal: found=%t err=%v", found, err)
	}
	if suppressed := eventsOf[rsdeployevent.JournalSuppressed](h.events); len(suppressed) != 1 {
		t.Errorf("journal suppression events: %d (expected 1)", len(suppressed))
	}
}

func TestEngineJournalFailureFailsSuccessfulRun(t *testing.T) {
	h := newTestHarness(t)
	h.breakJournal(t)
	deployment := h.newDeployment("run-1")

	err := h.engine.Run(context.Background(), deployment, []rsengine.Convention{
		namedConvention{name: "ok"},
	})
	if err == nil {
		t.Fatal("the run succeeded although its journal entry could not be written")
	}

	if failed := eventsOf[rsdeployevent.JournalWriteFailed](h.events); len(failed) != 1 {
		t.Errorf("journal failure events: %d (expected 1)", len(failed))
	}
}

func TestEngineJournalFailureDoesNotMaskRunError(t *testing.T) {
	h := newTestHarness(t)
	h.breakJournal(t)
	deployment := h.newDeployment("run-1")

	sentinel := errors.New("the deploy script failed")
	err := h.engine.Run(context.Background(), deployment, []rsengine.Convention{
		namedConvention{name: "failing", run: func(ctx context.Context, d *rsengine.RunningDeployment) error {
			return sentinel
		}},
	})

	if err != sentinel {
		t.Errorf("the run returned %v (expected the convention's error, not the journal's)", err)
	}
	if failed := eventsOf[rsdeployevent.JournalWriteFailed](h.events); len(failed) != 1 {
		t.Errorf("journal failure events: %d (expected 1)", len(failed))
	}
}

func TestEngineLockContention(t *testing.T) {
	h := newTestHarness(t)

	// Hold the target's lock through a separate file description, as a
	// concurrent deployment process would.
	locks, err := hostmutex.OpenDir(filepath.Join(h.home, "locks"))
	if err != nil {
		t.Fatalf("failed to open the lock directory: %v", err)
	}
	handle, err := locks.Acquire(context.Background(), "deploy:"+engineTarget.Key(), 0)
	if err != nil {
		t.Fatalf("failed to acquire the lock: %v", err)
	}
	defer handle.Release()

	engine := rsengine.NewEngine(rsengine.Options{
		Locks:   locks,
		Journal: h.journal,
		Events:  rsevent.Recorder{Handler: h.events},
	})

	executed := false
	deployment := h.newDeployment("run-1")
	err = engine.Run(context.Background(), deployment, []rsengine.Convention{
		namedConvention{name: "ok", run: func(ctx context.Context, d *rsengine.RunningDeployment) error {
			executed = true
			return nil
		}},
	})

	var timeout hostmutex.TimeoutError
	if !errors.As(err, &timeout) {
		t.Fatalf("the run returned %v (expected a lock timeout)", err)
	}
	if executed {
		t.Error("a convention ran without the deployment lock")
	}
	if _, found, err := h.journal.TryGetEntry(engineTarget); err != nil || found {
		t.Errorf("a run that never held the lock reached the journal: found=%t err=%v", found, err)
	}
	if started := eventsOf[rsdeployevent.PipelineStarted](h.events); len(started) != 0 {
		t.Errorf("pipeline start events: %d (expected 0)", len(started))
	}
	if refused := eventsOf[rsdeployevent.LockNotAcquired](h.events); len(refused) != 1 {
		t.Errorf("lock refusal events: %d (expected 1)", len(refused))
	}
}

func TestEngineCancelledRunIsJournaled(t *testing.T) {
	h := newTestHarness(t)
	deployment := h.newDeployment("run-1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	executed := false
	err := h.engine.Run(ctx, deployment, []rsengine.Convention{
		namedConvention{name: "ok", run: func(ctx context.Context, d *rsengine.RunningDeployment) error {
			executed = true
			return nil
		}},
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("the run returned %v (expected context.Canceled)", err)
	}
	if executed {
		t.Error("a convention ran under a cancelled context")
	}

	entry, found, err := h.journal.TryGetEntry(engineTarget)
	if err != nil || !found {
		t.Fatalf("the cancelled run was not journaled: found=%t err=%v", found, err)
	}
	if entry.Successful {
		t.Error("a cancelled run was journaled as a success")
	}
}

func TestEngineComputesFingerprint(t *testing.T) {
	h := newTestHarness(t)

	pkg := filepath.Join(h.home, "site.zip")
	if err := os.WriteFile(pkg, []byte("package payload"), 0o644); err != nil {
		t.Fatalf("failed to write the package: %v", err)
	}

	run := func(id string) rsjournal.Fingerprint {
		deployment := h.newDeployment(id)
		deployment.Package.Path = pkg
		deployment.Fingerprint = ""
		deployment.Variables.Set("Site.Name", "billing")
		if err := h.engine.Run(context.Background(), deployment, nil); err != nil {
			t.Fatalf("the run failed: %v", err)
		}
		if deployment.Fingerprint == "" {
			t.Fatal("the engine did not fingerprint the deployment")
		}
		return deployment.Fingerprint
	}

	first := run("run-1")
	second := run("run-2")
	if first != second {
		t.Errorf("identical attempts produced fingerprints %s and %s", first, second)
	}

	entry, found, err := h.journal.TryGetEntry(engineTarget)
	if err != nil || !found {
		t.Fatalf("the run was not journaled: found=%t err=%v", found, err)
	}
	if entry.Fingerprint != second {
		t.Errorf("journal entry fingerprint: %s (expected %s)", entry.Fingerprint, second)
	}
}

func TestEngineNilVariables(t *testing.T) {
	h := newTestHarness(t)
	deployment := h.newDeployment("run-1")
	deployment.Variables = nil

	err := h.engine.Run(context.Background(), deployment, []rsengine.Convention{
		namedConvention{name: "ok", run: func(ctx context.Context, d *rsengine.RunningDeployment) error {
			d.Variables.Set("Site.Name", "billing")
			return nil
		}},
	})
	if err != nil {
		t.Fatalf("the run failed: %v", err)
	}
	if deployment.Variables == nil {
		t.Fatal("the engine left the deployment without a variable store")
	}
	if got := deployment.Variables.Value("Site.Name"); got != "billing" {
		t.Errorf("variable value: %q (expected billing)", got)
	}
}

func TestEngineValidatesDeployment(t *testing.T) {
	h := newTestHarness(t)

	missingID := h.newDeployment("")
	if err := h.engine.Run(context.Background(), missingID, nil); err == nil {
		t.Error("a deployment without an ID was accepted")
	}

	missingTarget := h.newDeployment("run-1")
	missingTarget.Target = rsdeploy.TargetID{}
	if err := h.engine.Run(context.Background(), missingTarget, nil); err == nil {
		t.Error("a deployment without a target was accepted")
	}
}

func TestBuildDeploymentPipelineOrder(t *testing.T) {
	want := []string{
		"environment",
		"previous-installation",
		"idempotency-check",
		"verify-package",
		"extract-package",
		"pre-deploy-scripts",
		"substitute-variables",
		"transform-config",
		"deploy-scripts",
		"custom-install-copy",
		"register-web-server",
		"post-deploy-scripts",
	}

	pipeline := rsengine.BuildDeploymentPipeline(rsengine.PipelineOptions{})
	if len(pipeline) != len(want) {
		t.Fatalf("pipeline length: %d (expected %d)", len(pipeline), len(want))
	}
	for i, convention := range pipeline {
		if convention.Name() != want[i] {
			t.Errorf("convention %d is %q (expected %q)", i, convention.Name(), want[i])
		}
	}
}

func TestEngineDeployAndRerun(t *testing.T) {
	h := newTestHarness(t)
	pkgPath := buildPackage(t, t.TempDir(), rsdeploy.FormatZip)

	pipeline := rsengine.BuildDeploymentPipeline(rsengine.PipelineOptions{
		Journal: h.journal,
		Events:  rsevent.Recorder{Handler: h.events},
	})

	run := func(id string) *rsengine.RunningDeployment {
		deployment := &rsengine.RunningDeployment{
			ID:        rsdeploy.DeploymentID(id),
			Target:    engineTarget,
			Package:   rsdeploy.PackageInfo{Path: pkgPath, Format: rsdeploy.FormatZip},
			Staging:   openStaging(t, h.home, rsdeploy.DeploymentID(id)),
			Variables: rsvariables.NewStore(),
		}
		if err := h.engine.Run(context.Background(), deployment, pipeline); err != nil {
			t.Fatalf("run %q failed: %v", id, err)
		}
		return deployment
	}

	// The first deployment of a fresh target runs the whole pipeline.
	first := run("run-1")
	if first.SkipRemaining {
		t.Error("the first run skipped its conventions")
	}

	entry, exists, err := h.journal.TryGetEntry(engineTarget)
	if err != nil {
		t.Fatalf("failed to read the journal: %v", err)
	}
	if !exists {
		t.Fatal("the first run was not journaled")
	}
	if !entry.Successful {
		t.Error("the first run was journaled as unsuccessful")
	}
	if len(entry.Files) == 0 {
		t.Error("the first run journaled an empty file manifest")
	}

	// An identical rerun stops at the idempotency check and still
	// journals its outcome.
	second := run("run-2")
	if !second.SkipRemaining {
		t.Error("the second run did not skip its conventions")
	}
	if second.Fingerprint != first.Fingerprint {
		t.Errorf("fingerprints differ across identical runs: %q and %q", first.Fingerprint, second.Fingerprint)
	}
	if got := len(eventsOf[rsdeployevent.DeploymentAlreadyCurrent](h.events)); got != 1 {
		t.Errorf("recorded %d already-current events (expected 1)", got)
	}
	if got := len(eventsOf[rsdeployevent.ExtractionStarted](h.events)); got != 1 {
		t.Errorf("recorded %d extraction events (expected 1)", got)
	}

	history, err := h.journal.History(engineTarget)
	if err != nil {
		t.Fatalf("failed to read the journal history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("journal holds %d entries (expected 2)", len(history))
	}

	current, _, err := h.journal.TryGetEntry(engineTarget)
	if err != nil {
		t.Fatalf("failed to read the current entry: %v", err)
	}
	if current.ID != "run-2" || !current.Successful {
		t.Errorf("current entry is %q with successful %t (expected run-2, successful)", current.ID, current.Successful)
	}
}
