package typedef

// InputState is the per-frame input snapshot the host hands to the active
// plugin and to the menu. Directional and select fields are press edges; Back
// and Escape are release edges because the exit rules key off key-up.
type InputState struct {
	Up     bool
	Down   bool
	Left   bool
	Right  bool
	Select bool

	// Back is true on the frame the hardware back key is released.
	Back bool
	// Escape is true on the frame the escape key is released.
	Escape bool

	ScrollY float64

	Tapped bool
	TapX   int
	TapY   int

	SwipeLeft  bool
	SwipeRight bool

	MouseX    int
	MouseY    int
	MouseDown bool
}
