package sdk

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/pboyd/vhook"
)

func TestLayouts(t *testing.T) {
	for _, d := range Layouts() {
		t.Run(d.Name, func(t *testing.T) {
			assert.NoError(t, d.Validate())
		})
	}
}

func TestSlotIndexes(t *testing.T) {
	got := map[string]int{
		FindVarSlot.Name:          FindVarSlot.Index,
		WriteSlot.Name:            WriteSlot.Index,
		CreateMaterialSlot.Name:   CreateMaterialSlot.Index,
		FindMaterialSlot.Name:     FindMaterialSlot.Index,
		OriginSlot.Name:           OriginSlot.Index,
		IsPlayerSlot.Name:         IsPlayerSlot.Index,
		ObserverModeSlot.Name:     ObserverModeSlot.Index,
		CreateMoveSlot.Name:       CreateMoveSlot.Index,
		FrameStageNotifySlot.Name: FrameStageNotifySlot.Index,
		DrawModelExecuteSlot.Name: DrawModelExecuteSlot.Index,
		ClientClassSlot.Name:      ClientClassSlot.Index,
		IsDormantSlot.Name:        IsDormantSlot.Index,
		IndexSlot.Name:            IndexSlot.Index,
		ShouldDrawSlot.Name:       ShouldDrawSlot.Index,
		ModelSlot.Name:            ModelSlot.Index,
		SetupBonesSlot.Name:       SetupBonesSlot.Index,
	}
	want := map[string]int{
		"console.find_var":         15,
		"console.write":            27,
		"material_system.create":   83,
		"material_system.find":     84,
		"entity.origin":            12,
		"entity.is_player":         157,
		"entity.observer_mode":     357,
		"create_move":              25,
		"frame_stage_notify":       37,
		"draw_model_execute":       21,
		"networkable.client_class": 2,
		"networkable.is_dormant":   9,
		"networkable.index":        10,
		"renderable.should_draw":   5,
		"renderable.model":         8,
		"renderable.setup_bones":   13,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("slot indexes (-want +got):\n%s", diff)
	}

	for _, s := range []vhook.Convention{CreateMoveSlot.Convention, FrameStageNotifySlot.Convention, DrawModelExecuteSlot.Convention} {
		assert.Equal(t, vhook.C, s)
	}
}

func TestEntityLayout(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(0, EntityLayout.Location("vtable"))
	assert.Equal(8, EntityLayout.Location("renderable"))
	assert.Equal(16, EntityLayout.Location("networkable"))
	assert.Equal(358, EntityTableLayout.Span())
	assert.Equal(14, RenderableLayout.Span())
	assert.Equal(84, VarLayout.Location("float"))

	e := Entity{vhook.FromAddressUnchecked(0x1000)}
	assert.Equal(uintptr(0x1008), e.Renderable().Address())
	assert.Equal(uintptr(0x1010), e.Networkable().Address())
}

func TestButtons(t *testing.T) {
	assert := assert.New(t)

	var c Command
	c.Press(Attack|Jump, true)
	assert.True(c.Buttons.Has(Attack))
	assert.True(c.Buttons.Has(Attack | Jump))
	assert.False(c.Buttons.Has(Duck))
	assert.True(c.Buttons.Any(AnyAttack))

	c.Press(FastDuck, true)
	assert.True(c.Buttons.Has(Crouch | Bullrush))

	c.Press(Attack, false)
	assert.False(c.Buttons.Any(AnyAttack))
	assert.True(c.Buttons.Has(Jump))

	assert.Equal(Buttons(1<<22), Bullrush)
	assert.Equal(Buttons(1<<25), Attack3)
}

func TestFrameString(t *testing.T) {
	assert.Equal(t, "render_start", FrameRenderStart.String())
	assert.Equal(t, "undefined", FrameUndefined.String())
	assert.Equal(t, Frame(5), FrameRenderStart)
	assert.Equal(t, "frame(42)", Frame(42).String())
}
