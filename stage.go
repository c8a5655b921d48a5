package ecsloop

// Stage is a closed scheduling phase. The App Driver runs the stages in
// this fixed order: the startup stages once, the loop stages once per
// main-loop tick, and the exit stages once. Systems registered
// against the same stage are dispatched by that stage's Stage Runner;
// ordering across stages is implicit in this list and never configurable.
type Stage int

const (
	PreStartup Stage = iota
	Startup
	PostStartup

	First
	PreUpdate
	StateTransition
	Update
	PostUpdate
	PreRender
	Render
	PostRender

	PreExit
	Exit
	PostExit

	stageCount
)

var stageNames = [stageCount]string{
	PreStartup:      "PreStartup",
	Startup:         "Startup",
	PostStartup:     "PostStartup",
	First:           "First",
	PreUpdate:       "PreUpdate",
	StateTransition: "StateTransition",
	Update:          "Update",
	PostUpdate:      "PostUpdate",
	PreRender:       "PreRender",
	Render:          "Render",
	PostRender:      "PostRender",
	PreExit:         "PreExit",
	Exit:            "Exit",
	PostExit:        "PostExit",
}

// String returns the stage's tag name, or "Unknown" for an out-of-range
// value.
func (s Stage) String() string {
	if s < 0 || s >= stageCount {
		return "Unknown"
	}
	return stageNames[s]
}

// startupStages run exactly once, before the first tick's First stage.
var startupStages = []Stage{PreStartup, Startup, PostStartup}

// loopStages run once per tick, in order, for as long as the App keeps
// looping.
var loopStages = []Stage{
	First, PreUpdate, StateTransition, Update, PostUpdate,
	PreRender, Render, PostRender,
}

// exitStages run exactly once, after the loop has been asked to stop.
var exitStages = []Stage{PreExit, Exit, PostExit}

// AppExit is the built-in event that requests the App Driver stop looping.
// Any system may EventWriter[AppExit].Send it; the driver observes it via
// EventReader[AppExit] at the end of each tick.
type AppExit struct{}
