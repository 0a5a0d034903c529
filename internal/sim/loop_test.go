package sim

import "testing"

// recordingCore captures what the loop feeds it.
type recordingCore struct {
	applied [][]Command
	stepped []float64
	ticks   []uint64
}

func (c *recordingCore) Apply(tick uint64, commands []Command) {
	c.applied = append(c.applied, commands)
	c.ticks = append(c.ticks, tick)
}

func (c *recordingCore) Step(tick uint64, dt float64) {
	c.stepped = append(c.stepped, dt)
}

func (c *recordingCore) Snapshot() Snapshot {
	return Snapshot{Tick: uint64(len(c.stepped))}
}

func TestLoopAdvanceAppliesStagedCommands(t *testing.T) {
	core := &recordingCore{}
	loop := NewLoop(core, LoopConfig{TickRate: 20}, LoopHooks{})

	if ok, reason := loop.Enqueue(moveCmd("player", 1)); !ok {
		t.Fatalf("enqueue rejected: %s", reason)
	}
	loop.Enqueue(moveCmd("player", 2))

	result := loop.Advance(0.05)
	if result.Tick != 1 {
		t.Fatalf("tick=%d, want 1", result.Tick)
	}
	if len(result.Commands) != 2 {
		t.Fatalf("stepped with %d commands, want 2", len(result.Commands))
	}
	if len(core.applied) != 1 || len(core.applied[0]) != 2 {
		t.Fatalf("core saw %v", core.applied)
	}
	if core.stepped[0] != 0.05 {
		t.Fatalf("dt=%v, want 0.05", core.stepped[0])
	}
	if loop.Pending() != 0 {
		t.Fatalf("commands remain staged after Advance")
	}

	// Commands apply on the tick after they were staged, never retroactively.
	result = loop.Advance(0.05)
	if result.Tick != 2 || len(result.Commands) != 0 {
		t.Fatalf("second step: tick=%d commands=%d", result.Tick, len(result.Commands))
	}
}

func TestLoopPerActorThrottle(t *testing.T) {
	core := &recordingCore{}
	var drops []string
	loop := NewLoop(core, LoopConfig{TickRate: 20, PerActorLimit: 2}, LoopHooks{
		OnCommandDrop: func(reason string, cmd Command) { drops = append(drops, reason) },
	})

	for i := 0; i < 2; i++ {
		if ok, _ := loop.Enqueue(moveCmd("player", float64(i))); !ok {
			t.Fatalf("enqueue %d rejected under the limit", i)
		}
	}
	ok, reason := loop.Enqueue(moveCmd("player", 3))
	if ok || reason != CommandRejectQueueLimit {
		t.Fatalf("over-limit enqueue: ok=%v reason=%q", ok, reason)
	}
	// A different actor is unaffected.
	if ok, _ := loop.Enqueue(moveCmd("other", 0)); !ok {
		t.Fatalf("other actor throttled by player's commands")
	}
	if len(drops) != 1 || drops[0] != CommandRejectQueueLimit {
		t.Fatalf("drops=%v", drops)
	}

	// The throttle window resets when the tick drains the queue.
	loop.Advance(0.05)
	if ok, _ := loop.Enqueue(moveCmd("player", 4)); !ok {
		t.Fatalf("throttle did not reset after a tick")
	}
}

func TestLoopQueueFullDoesNotConsumeActorBudget(t *testing.T) {
	core := &recordingCore{}
	loop := NewLoop(core, LoopConfig{TickRate: 20, CommandCapacity: 1, PerActorLimit: 3}, LoopHooks{})

	if ok, _ := loop.Enqueue(moveCmd("player", 0)); !ok {
		t.Fatalf("first command rejected")
	}
	// Every saturated enqueue must report the buffer, not the actor limit:
	// a dropped command consumes no budget, so the limit is never reached.
	for i := 1; i <= 4; i++ {
		ok, reason := loop.Enqueue(moveCmd("player", float64(i)))
		if ok {
			t.Fatalf("enqueue %d accepted past capacity", i)
		}
		if reason != CommandRejectQueueFull {
			t.Fatalf("enqueue %d: reason=%q, want %q", i, reason, CommandRejectQueueFull)
		}
	}
}

func TestLoopQueueFull(t *testing.T) {
	core := &recordingCore{}
	var drops []string
	loop := NewLoop(core, LoopConfig{TickRate: 20, CommandCapacity: 1}, LoopHooks{
		OnCommandDrop: func(reason string, cmd Command) { drops = append(drops, reason) },
	})

	loop.Enqueue(moveCmd("a", 0))
	ok, reason := loop.Enqueue(moveCmd("b", 0))
	if ok || reason != CommandRejectQueueFull {
		t.Fatalf("saturated enqueue: ok=%v reason=%q", ok, reason)
	}
	if len(drops) != 1 || drops[0] != CommandRejectQueueFull {
		t.Fatalf("drops=%v", drops)
	}
}

func TestLoopSnapshotInResult(t *testing.T) {
	core := &recordingCore{}
	loop := NewLoop(core, LoopConfig{TickRate: 20}, LoopHooks{})

	result := loop.Advance(0.05)
	if result.Snapshot.Tick != 1 {
		t.Fatalf("snapshot tick=%d, want the post-step view", result.Snapshot.Tick)
	}
}
