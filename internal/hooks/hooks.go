// Package hooks runs an optional user Lua script on phase transitions.
// The script defines a global on_phase(location, event, previous) function;
// hook errors are logged and never affect monitors.
package hooks

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	lua "github.com/yuin/gopher-lua"

	"github.com/dokzlo13/sunwatchd/internal/eventbus"
)

const hookFunction = "on_phase"

// Runner owns a single Lua state. All hook calls are serialized through the
// runner's mutex since LState is not thread-safe.
type Runner struct {
	mu sync.Mutex
	L  *lua.LState
}

// Load compiles and runs the hook script, returning a Runner. The script
// must define the on_phase function at the top level.
func Load(scriptPath string) (*Runner, error) {
	L := lua.NewState()

	if err := L.DoFile(scriptPath); err != nil {
		L.Close()
		return nil, fmt.Errorf("failed to load hook script: %w", err)
	}

	fn := L.GetGlobal(hookFunction)
	if _, ok := fn.(*lua.LFunction); !ok {
		L.Close()
		return nil, fmt.Errorf("hook script does not define %s()", hookFunction)
	}

	log.Info().Str("script", scriptPath).Msg("Phase hook script loaded")
	return &Runner{L: L}, nil
}

// Register subscribes the runner to phase events on the bus.
func (r *Runner) Register(bus *eventbus.Bus) {
	bus.Subscribe(eventbus.EventTypePhase, func(ev eventbus.Event) {
		phase, ok := ev.Data.(eventbus.PhaseEvent)
		if !ok {
			return
		}
		r.OnPhase(phase.Location, phase.Current, phase.Previous)
	})
}

// OnPhase invokes the Lua hook for one transition.
func (r *Runner) OnPhase(location, current, previous string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.L == nil {
		return
	}

	err := r.L.CallByParam(lua.P{
		Fn:      r.L.GetGlobal(hookFunction),
		NRet:    0,
		Protect: true,
	}, lua.LString(location), lua.LString(current), lua.LString(previous))
	if err != nil {
		log.Error().Err(err).
			Str("location", location).
			Str("event", current).
			Msg("Phase hook failed")
	}
}

// Close shuts the Lua state down.
func (r *Runner) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.L != nil {
		r.L.Close()
		r.L = nil
	}
}
