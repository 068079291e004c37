package model

// ActionResult — итог одного боевого действия.
// Damage < 0 означает лечение.
type ActionResult struct {
	Success  bool
	Damage   int
	Critical bool
	Effects  []string
	Message  string
	APCost   int
	Metadata map[string]any
}

// Fail builds a failed result with a message.
func Fail(msg string) ActionResult {
	return ActionResult{Message: msg}
}
