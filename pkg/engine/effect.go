package engine

// EffectKind names a cosmetic cue the UI layer may render. Effects never
// feed back into arithmetic state.
type EffectKind string

const (
	// EffectFocusEquals asks the UI to move focus to the equals control.
	EffectFocusEquals EffectKind = "focus-equals"
	// EffectHighlightOperation marks the selected operation button as active.
	EffectHighlightOperation EffectKind = "highlight-operation"
	// EffectReleaseOperation releases any highlighted operation button.
	EffectReleaseOperation EffectKind = "release-operation"
	// EffectBlink clears the display briefly and restores Text.
	EffectBlink EffectKind = "blink"
)

// Effect is emitted by the engine after a state transition.
type Effect struct {
	Kind      EffectKind `json:"kind"`
	Text      string     `json:"text,omitempty"`
	Operation Operation  `json:"operation,omitempty"`
}

// EffectFunc receives effects. It must not call back into the engine.
type EffectFunc func(Effect)
