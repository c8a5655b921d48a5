package ecsloop

import (
	"reflect"
	"runtime"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func fmtToken(tok uint64) string {
	return strconv.FormatUint(tok, 16)
}

// Plugin assembles systems, sets and resources into an App. Build is
// called once per distinct plugin type during Registration; a second
// AddPlugin call with a plugin of a type already added is ignored.
type Plugin interface {
	Build(app *App)
}

// LoopPlugin additionally tells the App Driver to run the repeating main
// loop (First through PostRender) rather than stopping after the Startup
// sequence. A bare Plugin without this marker only ever runs
// PreStartup/Startup/PostStartup followed immediately by PreExit/Exit/
// PostExit.
type LoopPlugin interface {
	Plugin
	EnablesLoop() bool
}

// App is the registration surface and driver: one arena of System Nodes,
// one Stage Runner per populated stage, a Set Registry, and the World they
// all operate on.
type App struct {
	id      uuid.UUID
	mu      sync.Mutex
	world   *World
	nodes   []*systemNode
	sets    *setRegistry
	plugins map[reflect.Type]bool
	hasLoop bool
	workers int
	log     *logger

	prepared bool
	runners  [stageCount]*stageRunner

	pool     chan func()
	poolOnce sync.Once
}

// startPool lazily spins up the App's shared worker pool, sized a.workers,
// matching the familiar workerPool-channel idiom.
func (a *App) startPool() {
	a.poolOnce.Do(func() {
		a.pool = make(chan func(), a.workers*4)
		for i := 0; i < a.workers; i++ {
			go func() {
				for fn := range a.pool {
					fn()
				}
			}()
		}
	})
}

// AppOption configures an App at construction time.
type AppOption func(*App)

// WithWorkers overrides the worker pool size; the zero value defaults to
// runtime.GOMAXPROCS(0), matching a typical scheduler's default sizing.
func WithWorkers(n int) AppOption {
	return func(a *App) {
		if n > 0 {
			a.workers = n
		}
	}
}

// WithZapLogger installs z as the App's (and its World's) logger.
func WithZapLogger(z *zap.Logger) AppOption {
	return func(a *App) {
		a.log = newLogger(z)
		a.world.SetLogger(z)
	}
}

// NewApp constructs an App bound to w.
func NewApp(w *World, opts ...AppOption) *App {
	a := &App{
		id:      uuid.New(),
		world:   w,
		sets:    newSetRegistry(),
		plugins: make(map[reflect.Type]bool),
		workers: runtime.GOMAXPROCS(0),
		log:     w.logger,
	}
	if a.workers < 1 {
		a.workers = 1
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// World returns the App's bound World.
func (a *App) World() *World { return a.world }

// ID returns this App instance's diagnostic identity, stable for the life
// of the process — used to tell apart multiple Apps in shared log output or
// the debug server.
func (a *App) ID() uuid.UUID { return a.id }

// AddPlugin builds p into the App unless a plugin of the same concrete
// type has already been added.
func (a *App) AddPlugin(p Plugin) {
	t := reflect.TypeOf(p)
	a.mu.Lock()
	if a.plugins[t] {
		a.mu.Unlock()
		return
	}
	a.plugins[t] = true
	if lp, ok := p.(LoopPlugin); ok && lp.EnablesLoop() {
		a.hasLoop = true
	}
	a.mu.Unlock()
	p.Build(a)
}

// AddSystem registers fn, called with params as its live argument handles,
// against stage. Returns a handle usable in later Before/After options.
func (a *App) AddSystem(stage Stage, fn any, params []any, opts ...SystemOption) *SystemHandle {
	fv := validateSystemFunc(fn, params)
	argv := make([]reflect.Value, len(params))
	for i, p := range params {
		argv[i] = reflect.ValueOf(p)
	}

	n := &systemNode{
		stage:  stage,
		name:   systemName(fn),
		fn:     fv,
		params: argv,
		access: describeParams(params),
	}

	a.mu.Lock()
	n.id = NodeID(len(a.nodes))
	a.nodes = append(a.nodes, n)
	for _, o := range opts {
		o(n)
	}
	for _, pred := range n.pendingAfter {
		if err := addEdge(a.nodes, pred, n.id); err != nil {
			a.nodes = a.nodes[:len(a.nodes)-1]
			a.mu.Unlock()
			a.log.cycleRejected(err)
			panic(err)
		}
	}
	for _, succ := range n.pendingBefore {
		if err := addEdge(a.nodes, n.id, succ); err != nil {
			a.nodes = a.nodes[:len(a.nodes)-1]
			a.mu.Unlock()
			a.log.cycleRejected(err)
			panic(err)
		}
	}
	if err := applySetMembership(a.nodes, a.sets, n); err != nil {
		a.nodes = a.nodes[:len(a.nodes)-1]
		a.mu.Unlock()
		a.log.cycleRejected(err)
		panic(err)
	}
	a.prepared = false
	a.mu.Unlock()

	return &SystemHandle{id: n.id}
}

// OnEnter registers fn to run at stage StateTransition exactly during the
// tick state type S transitions to v.
func OnEnter[S comparable](app *App, v S, fn any, params []any, opts ...SystemOption) *SystemHandle {
	cond := All(InState(v), justEnteredCondition[S]())
	opts = append(opts, RunIf(cond))
	return app.AddSystem(StateTransition, fn, params, opts...)
}

// OnExit registers fn to run at stage StateTransition exactly during the
// tick state type S transitions away from v.
func OnExit[S comparable](app *App, v S, fn any, params []any, opts ...SystemOption) *SystemHandle {
	cond := UserPredicate(func(w *World) bool {
		cur, ok := NewState[S](w).Get()
		return ok && cur != v && NewState[S](w).transitionedThisTick()
	})
	opts = append(opts, RunIf(cond))
	return app.AddSystem(StateTransition, fn, params, opts...)
}

func justEnteredCondition[S comparable]() Condition {
	return conditionFunc(func(w *World) bool {
		return NewState[S](w).transitionedThisTick()
	})
}

// prepare computes each node's depth and builds one stageRunner per
// populated stage (reach_ms is computed by the runner on each pass). Idempotent; called automatically by Run
// and by doctor-style introspection.
func (a *App) prepare() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.prepared {
		return
	}

	memo := make(map[NodeID]int, len(a.nodes))
	var depthOf func(id NodeID) int
	depthOf = func(id NodeID) int {
		if d, ok := memo[id]; ok {
			return d
		}
		n := a.nodes[id]
		if len(n.before) == 0 {
			memo[id] = 0
			return 0
		}
		max := 0
		for _, p := range n.before {
			if d := depthOf(p); d > max {
				max = d
			}
		}
		memo[id] = 1 + max
		return memo[id]
	}
	for _, n := range a.nodes {
		n.depth = depthOf(n.id)
	}

	byStage := make(map[Stage][]*systemNode)
	for _, n := range a.nodes {
		byStage[n.stage] = append(byStage[n.stage], n)
	}
	for s, ns := range byStage {
		a.runners[s] = newStageRunner(s, ns, a)
	}
	a.prepared = true
}

// Prepare computes scheduling metadata without running anything; exposed
// for the "doctor" CLI subcommand.
func (a *App) Prepare() { a.prepare() }

// Nodes returns every registered System Node, for introspection.
func (a *App) Nodes() []*systemNode {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*systemNode, len(a.nodes))
	copy(out, a.nodes)
	return out
}

// SystemNodeView is a read-only snapshot of one System Node's diagnostics,
// safe to serialize (e.g. by the debug server or the doctor CLI
// subcommand) without exposing the node's live callable or parameters.
type SystemNodeView struct {
	Name  string
	Stage string
	Depth int
	AvgMs float64
	Token string
}

// Inspect snapshots every registered node's diagnostics. Calls prepare()
// first so Depth reflects the current scheduling graph even if Run has
// not been called yet.
func Inspect(a *App) []SystemNodeView {
	a.prepare()
	nodes := a.Nodes()
	out := make([]SystemNodeView, len(nodes))
	for i, n := range nodes {
		out[i] = SystemNodeView{
			Name:  n.Name(),
			Stage: n.Stage().String(),
			Depth: n.Depth(),
			AvgMs: n.AvgMs(),
			Token: fmtToken(n.Token()),
		}
	}
	return out
}

func (a *App) runStage(s Stage) {
	r := a.runners[s]
	if r == nil {
		if s == First {
			a.world.TickEvents()
		}
		return
	}
	a.log.stageEnter(s)
	start := nowMs()
	r.run(a.world)
	a.log.stageExit(s, nowMs()-start)
}

// Run executes the full App Driver lifecycle: Registration has already
// happened via AddPlugin/AddSystem; Prepare builds the Stage Runners;
// Startup runs once; the main loop runs repeatedly only if a LoopPlugin
// was added, until AppExit is observed; Shutdown then runs once.
func (a *App) Run() {
	a.prepare()
	a.startPool()

	for _, s := range startupStages {
		a.runStage(s)
	}

	if a.hasLoop {
		exitReader := NewEventReader[AppExit](a.world)
		for {
			for _, s := range loopStages {
				a.runStage(s)
				if s == StateTransition {
					a.world.ApplyStateTransitions()
				}
			}
			if len(exitReader.Read()) > 0 {
				break
			}
		}
	}

	for _, s := range exitStages {
		a.runStage(s)
	}
}
