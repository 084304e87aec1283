package sdk

import (
	"fmt"
	"unsafe"

	"github.com/pboyd/vhook"
	"github.com/pboyd/vhook/layout"
)

// Frame is the stage passed to FrameStageNotify.
type Frame int32

const (
	FrameUndefined Frame = iota - 1
	FrameStart
	FrameNetUpdateStart
	FrameNetUpdatePostDataUpdateStart
	FrameNetUpdatePostDataUpdateEnd
	FrameNetUpdateEnd
	FrameRenderStart
	FrameRenderEnd
)

func (f Frame) String() string {
	switch f {
	case FrameUndefined:
		return "undefined"
	case FrameStart:
		return "start"
	case FrameNetUpdateStart:
		return "net_update_start"
	case FrameNetUpdatePostDataUpdateStart:
		return "net_update_postdataupdate_start"
	case FrameNetUpdatePostDataUpdateEnd:
		return "net_update_postdataupdate_end"
	case FrameNetUpdateEnd:
		return "net_update_end"
	case FrameRenderStart:
		return "render_start"
	case FrameRenderEnd:
		return "render_end"
	}
	return fmt.Sprintf("frame(%d)", int32(f))
}

type clientModeTable struct {
	_          [25]uintptr
	CreateMove uintptr `layout:"create_move"`
}

type clientTable struct {
	_                [37]uintptr
	FrameStageNotify uintptr `layout:"frame_stage_notify"`
}

type modelRenderTable struct {
	_                [21]uintptr
	DrawModelExecute uintptr `layout:"draw_model_execute"`
}

func _() {
	var x [1]struct{}
	_ = x[unsafe.Offsetof(clientModeTable{}.CreateMove)/vhook.PtrSize-25]
	_ = x[unsafe.Offsetof(clientTable{}.FrameStageNotify)/vhook.PtrSize-37]
	_ = x[unsafe.Offsetof(modelRenderTable{}.DrawModelExecute)/vhook.PtrSize-21]
}

var (
	ClientModeLayout = layout.Mirror[clientModeTable]("client_mode", layout.SlotIndex).
				Expect("create_move", 25).
				MustValidate()
	ClientLayout = layout.Mirror[clientTable]("client", layout.SlotIndex).
			Expect("frame_stage_notify", 37).
			MustValidate()
	ModelRenderLayout = layout.Mirror[modelRenderTable]("model_render", layout.SlotIndex).
				Expect("draw_model_execute", 21).
				MustValidate()
)

type (
	// CreateMoveFunc builds a user command each tick.
	CreateMoveFunc func(this uintptr, sampleTime float32, cmd uintptr) bool
	// FrameStageNotifyFunc is called at every stage of a client frame.
	FrameStageNotifyFunc func(this uintptr, stage Frame)
	// DrawModelExecuteFunc draws one model.
	DrawModelExecuteFunc func(this, ctx, state, info, boneToWorld uintptr)
)

var (
	CreateMoveSlot       = vhook.NewSlot[CreateMoveFunc]("create_move", ClientModeLayout.Location("create_move"), vhook.C)
	FrameStageNotifySlot = vhook.NewSlot[FrameStageNotifyFunc]("frame_stage_notify", ClientLayout.Location("frame_stage_notify"), vhook.C)
	DrawModelExecuteSlot = vhook.NewSlot[DrawModelExecuteFunc]("draw_model_execute", ModelRenderLayout.Location("draw_model_execute"), vhook.C)
)

// GoString reads a NUL terminated string from host memory.
func GoString(addr uintptr) string {
	if addr == 0 {
		return ""
	}
	return goString((*byte)(unsafe.Pointer(addr)))
}
