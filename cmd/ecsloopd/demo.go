package main

import "github.com/brightforge/ecsloop"

// Position and Velocity are the demo's two components: a minimal moving-
// entity setup that exercises queries, commands, resources and events
// together instead of in isolation.
type Position struct{ X, Y float64 }
type Velocity struct{ DX, DY float64 }

// TickCount is a resource incremented once per Update and read back out by
// countTicks to decide when to request AppExit.
type TickCount struct{ N int }

// demoPlugin is a LoopPlugin: it spawns a handful of moving entities at
// Startup, advances them each Update, and sends AppExit once maxTicks
// Update passes have run.
type demoPlugin struct {
	maxTicks int
}

func (p demoPlugin) EnablesLoop() bool { return true }

func (p demoPlugin) Build(app *ecsloop.App) {
	w := app.World()
	ecsloop.InsertResource(w, TickCount{})

	app.AddSystem(ecsloop.Startup, spawnEntities, []any{ecsloop.NewCommand(w)})
	app.AddSystem(ecsloop.Update, moveEntities, []any{ecsloop.NewQuery2[Position, Velocity](w)})
	app.AddSystem(ecsloop.Update, p.countTicks, []any{
		ecsloop.NewResource[TickCount](w),
		ecsloop.NewEventWriter[ecsloop.AppExit](w),
	})
}

func spawnEntities(cmd ecsloop.Command) {
	for i := 0; i < 5; i++ {
		e := cmd.Spawn()
		ecsloop.Attach(cmd, e, Position{X: float64(i), Y: 0})
		ecsloop.Attach(cmd, e, Velocity{DX: 1, DY: 0.5})
	}
}

func moveEntities(q *ecsloop.Query2[Position, Velocity]) {
	q.Reset()
	for q.Next() {
		pos, vel := q.Get()
		pos.X += vel.DX
		pos.Y += vel.DY
	}
}

func (p demoPlugin) countTicks(tick ecsloop.Resource[TickCount], exit ecsloop.EventWriter[ecsloop.AppExit]) {
	v, _ := tick.Get()
	v.N++
	tick.Set(v)
	if v.N >= p.maxTicks {
		exit.Send(ecsloop.AppExit{})
	}
}
