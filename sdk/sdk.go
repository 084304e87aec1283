// Package sdk mirrors the host interfaces vhook intercepts. Every table and
// struct is declared twice: as a Go mirror checked at compile time, and as a
// layout descriptor validated when the package is initialized. Slot indexes
// are taken from the descriptors, so a drifted layout never reaches Install.
//
// The host is a 64-bit process using the platform C calling convention.
package sdk

import (
	"github.com/pboyd/vhook"
	"github.com/pboyd/vhook/layout"
)

// Names of the shared state fields used by the hooks in this package.
const (
	HandleClient      = "client"
	HandleClientMode  = "client_mode"
	HandleModelRender = "model_render"
	HandleConsole     = "console"
	HandleMaterials   = "material_system"

	CounterTick       = "tick"
	CounterMoves      = "create_move_calls"
	CounterFrames     = "frame_stage_notify_calls"
	CounterDraws      = "draw_model_execute_calls"
	FlagLastPredicted = "last_command_predicted"
)

// State declares every shared field used by Plan.
var State = vhook.StateSpec{
	Counters: []string{CounterTick, CounterMoves, CounterFrames, CounterDraws},
	Flags:    []string{FlagLastPredicted},
	Handles:  []string{HandleClient, HandleClientMode, HandleModelRender, HandleConsole, HandleMaterials},
}

// Layouts returns every descriptor declared by this package.
func Layouts() []*layout.Descriptor {
	return []*layout.Descriptor{
		ConsoleLayout,
		MaterialSystemLayout,
		EntityLayout,
		EntityTableLayout,
		NetworkableLayout,
		RenderableLayout,
		VarLayout,
		CommandLayout,
		ClientModeLayout,
		ClientLayout,
		ModelRenderLayout,
	}
}
