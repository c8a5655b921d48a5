package ecsloop

import (
	"reflect"
	"sync"
	"testing"
	"time"
)

func TestAppRunsStartupOnceWithoutLoopPlugin(t *testing.T) {
	w := NewWorld()
	app := NewApp(w)

	var ran int
	app.AddSystem(Startup, func() { ran++ }, nil)
	app.Run()

	if ran != 1 {
		t.Fatalf("expected startup system to run exactly once, got %d", ran)
	}
}

type countingLoopPlugin struct{ maxTicks int }

func (countingLoopPlugin) EnablesLoop() bool { return true }

func (p countingLoopPlugin) Build(app *App) {
	w := app.World()
	InsertResource(w, Score{})
	app.AddSystem(Update, func(score Resource[Score], exit EventWriter[AppExit]) {
		v, _ := score.Get()
		v.N++
		score.Set(v)
		if v.N >= p.maxTicks {
			exit.Send(AppExit{})
		}
	}, []any{NewResource[Score](w), NewEventWriter[AppExit](w)})
}

func TestAppLoopsUntilAppExit(t *testing.T) {
	w := NewWorld()
	app := NewApp(w)
	app.AddPlugin(countingLoopPlugin{maxTicks: 3})
	app.Run()

	v, ok := NewResource[Score](w).Get()
	if !ok || v.N != 3 {
		t.Fatalf("expected exactly 3 ticks to run before AppExit stopped the loop, got %+v ok=%v", v, ok)
	}
}

func TestOnEnterFiresOnEveryTransitionNotOnlyInsertion(t *testing.T) {
	w := NewWorld()
	app := NewApp(w)
	InsertState(w, PhaseMenu)

	var enters int
	OnEnter(app, PhasePlaying, func() { enters++ }, nil)

	next := NewNextState[GamePhase](w)
	app.prepare()
	app.startPool()

	tick := func() {
		app.runStage(StateTransition)
		w.ApplyStateTransitions()
	}

	tick() // settle InsertState's own transitioned flag

	next.Set(PhasePlaying)
	tick() // promotes current to PhasePlaying
	tick() // observes the promotion; OnEnter should fire
	if enters != 1 {
		t.Fatalf("expected OnEnter(PhasePlaying) to fire once after the first transition, got %d", enters)
	}

	next.Set(PhaseMenu)
	tick() // promotes current back to PhaseMenu
	tick() // observes it; OnEnter(PhasePlaying) must not fire while leaving
	if enters != 1 {
		t.Fatalf("expected OnEnter(PhasePlaying) not to fire while leaving the state, got %d", enters)
	}

	next.Set(PhasePlaying)
	tick()
	tick()
	if enters != 2 {
		t.Fatalf("expected OnEnter(PhasePlaying) to fire again on a later transition (not gated on the once-only JustCreated flag), got %d", enters)
	}
}

func TestConditionSkipsSystemButPreservesOrder(t *testing.T) {
	w := NewWorld()
	app := NewApp(w)
	InsertState(w, PhaseMenu)

	var order []string
	var mu sync.Mutex
	record := func(name string) func() {
		return func() {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
		}
	}

	first := app.AddSystem(Update, record("first"), nil)
	app.AddSystem(Update, record("gated"), nil, RunIf(InState(PhasePlaying)), After(first))
	app.AddSystem(Update, record("third"), nil, After(first))

	app.prepare()
	app.startPool()
	app.runStage(Update)

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 2 {
		t.Fatalf("expected the gated system to be skipped, got order=%v", order)
	}
	if order[0] != "first" {
		t.Fatalf("expected 'first' to run before 'third', got %v", order)
	}
}

// TestFalseConditionNeverEntersInFlight proves a false-condition node is
// resolved by the scan loop itself (predecessors-done, then Condition,
// then compatibility, all inside run()'s own lock) rather than inside
// runNode/the worker pool: it must be marked done without ever appearing
// in r.inFlight, so a conflicting node is never forced to wait on it.
func TestFalseConditionNeverEntersInFlight(t *testing.T) {
	w := NewWorld()
	InsertResource(w, Score{})
	app := NewApp(w, WithWorkers(2))

	gatedRan := false
	gated := &systemNode{
		stage:     Update,
		name:      "gated",
		fn:        reflect.ValueOf(func() { gatedRan = true }),
		condition: UserPredicate(func(*World) bool { return false }),
		access:    describeParams([]any{NewResource[Score](w)}),
	}
	var conflictRan bool
	conflict := &systemNode{
		stage:  Update,
		name:   "conflict",
		fn:     reflect.ValueOf(func() { conflictRan = true }),
		access: describeParams([]any{NewResource[Score](w)}),
	}
	gated.id, conflict.id = 0, 1

	r := newStageRunner(Update, []*systemNode{gated, conflict}, app)
	app.startPool()

	done := make(chan struct{})
	go func() {
		r.run(w)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("stage never drained: a false-condition node must not block its conflicting peer")
	}

	if gatedRan {
		t.Fatalf("gated system must not run when its condition is false")
	}
	if !conflictRan {
		t.Fatalf("expected the conflicting system to run despite the gated peer's conflicting access")
	}
	r.mu.Lock()
	_, stillInFlight := r.inFlight[gated.id]
	r.mu.Unlock()
	if stillInFlight {
		t.Fatalf("expected the false-condition node never to remain in in_flight")
	}
}

func TestConflictingQueriesNeverRunConcurrently(t *testing.T) {
	w := NewWorld()
	app := NewApp(w, WithWorkers(4))
	e := w.Spawn()
	AddComponent(w, e, Position{X: 0})

	var active int32
	var mu sync.Mutex
	var maxActive int32
	observe := func() {
		mu.Lock()
		active++
		if active > maxActive {
			maxActive = active
		}
		mu.Unlock()
		time.Sleep(2 * time.Millisecond)
		mu.Lock()
		active--
		mu.Unlock()
	}

	app.AddSystem(Update, func(q *Query1[Position]) { observe() }, []any{NewQuery1[Position](w)})
	app.AddSystem(Update, func(q *Query1[Position]) { observe() }, []any{NewQuery1[Position](w)})

	app.prepare()
	app.startPool()
	app.runStage(Update)

	if maxActive > 1 {
		t.Fatalf("expected conflicting mutable queries never to run concurrently, observed %d concurrent", maxActive)
	}
}

func TestIndependentSystemsRunConcurrently(t *testing.T) {
	w := NewWorld()
	app := NewApp(w, WithWorkers(4))

	var wg sync.WaitGroup
	wg.Add(2)
	block := make(chan struct{})
	app.AddSystem(Update, func(r Resource[Score]) {
		wg.Done()
		<-block
	}, []any{NewResource[Score](w)})
	app.AddSystem(Update, func(r Resource[Damage]) {
		wg.Done()
		<-block
	}, []any{NewResource[Damage](w)})

	app.prepare()
	app.startPool()

	done := make(chan struct{})
	go func() {
		app.runStage(Update)
		close(done)
	}()

	waited := make(chan struct{})
	go func() {
		wg.Wait()
		close(waited)
	}()

	select {
	case <-waited:
		close(block)
	case <-time.After(time.Second):
		t.Fatalf("expected two independent systems to both start concurrently")
	}
	<-done
}

func TestDoctorInspectReportsDepthAndStage(t *testing.T) {
	w := NewWorld()
	app := NewApp(w)
	first := app.AddSystem(Update, noop, nil)
	app.AddSystem(Update, noop, nil, After(first))

	views := Inspect(app)
	if len(views) != 2 {
		t.Fatalf("expected 2 node views, got %d", len(views))
	}
	for _, v := range views {
		if v.Stage != "Update" {
			t.Fatalf("expected stage Update, got %q", v.Stage)
		}
	}
	if views[0].Depth != 0 || views[1].Depth != 1 {
		t.Fatalf("expected depths 0 and 1, got %d and %d", views[0].Depth, views[1].Depth)
	}
}
