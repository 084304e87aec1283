package sdk

import (
	"sync/atomic"

	"github.com/pboyd/vhook"
)

// Callbacks are run by the hooks Plan installs. Any of them may be nil.
// They run on host threads, possibly several at once.
type Callbacks struct {
	// OnMove runs after the host built cmd and may change it.
	OnMove func(cmd *Command)
	// OnFrame runs before the host handles stage.
	OnFrame func(stage Frame)
	// OnDrawModel runs before a model is drawn. Returning false skips the
	// draw.
	OnDrawModel func(info uintptr) bool
}

var (
	createMove       atomic.Pointer[vhook.Hook[CreateMoveFunc]]
	frameStageNotify atomic.Pointer[vhook.Hook[FrameStageNotifyFunc]]
	drawModelExecute atomic.Pointer[vhook.Hook[DrawModelExecuteFunc]]

	callbacks atomic.Pointer[Callbacks]
)

// Plan returns the attach plan for the three hooked entry points. resolve
// must cache the client, client mode and model render interfaces in State
// under HandleClient, HandleClientMode and HandleModelRender.
func Plan(resolve func(r *vhook.Registry) error, cb Callbacks) vhook.Plan {
	callbacks.Store(&cb)

	return vhook.Plan{
		State:   State,
		Resolve: resolve,
		Hooks: []vhook.Installer{
			vhook.Intercept(CreateMoveSlot, vhook.HandleNamed(HandleClientMode), hookCreateMove, &createMove),
			vhook.Intercept(FrameStageNotifySlot, vhook.HandleNamed(HandleClient), hookFrameStageNotify, &frameStageNotify),
			vhook.Intercept(DrawModelExecuteSlot, vhook.HandleNamed(HandleModelRender), hookDrawModelExecute, &drawModelExecute),
		},
	}
}

func hookCreateMove(this uintptr, sampleTime float32, cmd uintptr) bool {
	h := createMove.Load()
	result := h.Original()(this, sampleTime, cmd)
	if !h.Enabled() {
		return result
	}

	state := vhook.Global().State()
	state.Counter(CounterMoves).Add(1)

	ch, ok := vhook.FromAddress(cmd)
	if !ok {
		return result
	}
	c := CommandAt(ch)
	if c.CommandNumber == 0 {
		// The host calls CreateMove with an empty command while loading.
		return result
	}

	state.Counter(CounterTick).Store(int64(c.TickCount))
	state.Flag(FlagLastPredicted).Store(c.HasBeenPredicted)

	if cb := callbacks.Load(); cb.OnMove != nil {
		cb.OnMove(c)
	}
	return result
}

func hookFrameStageNotify(this uintptr, stage Frame) {
	h := frameStageNotify.Load()
	if h.Enabled() {
		vhook.Global().State().Counter(CounterFrames).Add(1)
		if cb := callbacks.Load(); cb.OnFrame != nil {
			cb.OnFrame(stage)
		}
	}
	h.Original()(this, stage)
}

func hookDrawModelExecute(this, ctx, state, info, boneToWorld uintptr) {
	h := drawModelExecute.Load()
	if h.Enabled() {
		vhook.Global().State().Counter(CounterDraws).Add(1)
		if cb := callbacks.Load(); cb.OnDrawModel != nil && !cb.OnDrawModel(info) {
			return
		}
	}
	h.Original()(this, ctx, state, info, boneToWorld)
}
