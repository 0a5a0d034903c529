package sim

import (
	"sync"
	"time"
)

const (
	// CommandRejectQueueLimit indicates a command was dropped due to
	// per-actor queue throttling.
	CommandRejectQueueLimit = "queue_limit"
	// CommandRejectQueueFull indicates the global command buffer is
	// saturated.
	CommandRejectQueueFull = "queue_full"
)

// LoopConfig tunes the command buffer and tick loop orchestration.
type LoopConfig struct {
	TickRate        int
	CatchupMaxTicks int
	CommandCapacity int
	PerActorLimit   int
}

// LoopHooks let the embedding layer observe ticks without the loop knowing
// about gateways or stores.
type LoopHooks struct {
	// AfterStep runs on the loop goroutine after each tick with the fresh
	// snapshot. It must not block.
	AfterStep func(StepResult)
	// OnCommandDrop runs when an enqueued command is rejected.
	OnCommandDrop func(reason string, cmd Command)
}

// StepResult summarizes one executed tick.
type StepResult struct {
	Tick     uint64
	Delta    float64
	Clamped  bool
	Commands []Command
	Snapshot Snapshot
	Duration time.Duration
}

// Loop coordinates command ingestion and the fixed-timestep simulation
// runner. Producers call Enqueue from any goroutine; Run drains the buffer
// and steps the core on its own goroutine, which is the only one touching
// world state.
type Loop struct {
	core   Core
	buffer *CommandBuffer
	hooks  LoopHooks
	config LoopConfig

	queueMu       sync.Mutex
	perActorCount map[string]int

	tick uint64
}

// NewLoop wraps the provided core with a ring-buffer queue and loop.
func NewLoop(core Core, cfg LoopConfig, hooks LoopHooks) *Loop {
	if cfg.TickRate <= 0 {
		cfg.TickRate = 15
	}
	if cfg.CommandCapacity <= 0 {
		cfg.CommandCapacity = 256
	}
	return &Loop{
		core:          core,
		buffer:        NewCommandBuffer(cfg.CommandCapacity),
		hooks:         hooks,
		config:        cfg,
		perActorCount: make(map[string]int),
	}
}

// Enqueue stages a command, enforcing per-actor throttling and capacity
// limits. Safe for concurrent use.
func (l *Loop) Enqueue(cmd Command) (bool, string) {
	if l == nil {
		return false, CommandRejectQueueFull
	}
	throttled := l.config.PerActorLimit > 0 && cmd.ActorID != ""
	l.queueMu.Lock()
	if throttled {
		if l.perActorCount[cmd.ActorID] >= l.config.PerActorLimit {
			l.queueMu.Unlock()
			l.reportDrop(CommandRejectQueueLimit, cmd)
			return false, CommandRejectQueueLimit
		}
		l.perActorCount[cmd.ActorID]++
	}
	ok := l.buffer.Push(cmd)
	if !ok && throttled {
		// A dropped command must not consume the actor's budget.
		l.perActorCount[cmd.ActorID]--
	}
	l.queueMu.Unlock()
	if !ok {
		l.reportDrop(CommandRejectQueueFull, cmd)
		return false, CommandRejectQueueFull
	}
	return true, ""
}

// Pending reports the number of staged commands.
func (l *Loop) Pending() int {
	if l == nil {
		return 0
	}
	return l.buffer.Len()
}

// Advance executes a single simulation step using the staged commands.
// Exposed so tests and offline tools can drive the loop without a ticker.
func (l *Loop) Advance(dt float64) StepResult {
	l.tick++
	commands := l.drainCommands()
	start := time.Now()
	l.core.Apply(l.tick, commands)
	l.core.Step(l.tick, dt)
	result := StepResult{
		Tick:     l.tick,
		Delta:    dt,
		Commands: commands,
		Snapshot: l.core.Snapshot(),
		Duration: time.Since(start),
	}
	return result
}

// Run drives the fixed-timestep loop until the stop channel closes.
func (l *Loop) Run(stop <-chan struct{}) {
	interval := time.Second / time.Duration(l.config.TickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	budget := 1.0 / float64(l.config.TickRate)
	maxDt := budget
	if l.config.CatchupMaxTicks > 1 {
		maxDt = budget * float64(l.config.CatchupMaxTicks)
	}
	last := time.Now()

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			clamped := false
			if dt <= 0 {
				dt = budget
			} else if dt > maxDt {
				dt = maxDt
				clamped = true
			}
			last = now

			result := l.Advance(dt)
			result.Clamped = clamped
			if l.hooks.AfterStep != nil {
				l.hooks.AfterStep(result)
			}
		}
	}
}

func (l *Loop) drainCommands() []Command {
	l.queueMu.Lock()
	defer l.queueMu.Unlock()
	commands := l.buffer.Drain()
	if len(l.perActorCount) > 0 {
		l.perActorCount = make(map[string]int)
	}
	return commands
}

func (l *Loop) reportDrop(reason string, cmd Command) {
	if l.hooks.OnCommandDrop != nil {
		l.hooks.OnCommandDrop(reason, cmd)
	}
}
