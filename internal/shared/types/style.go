package types

// StyleChange records a single inline-style property mutation.
// Selector must re-resolve to the mutated element as long as no
// structural DOM change has occurred since capture.
type StyleChange struct {
	Selector  string `json:"selector"`
	Property  string `json:"property"`
	OldValue  string `json:"oldValue"`
	NewValue  string `json:"newValue"`
	Timestamp int64  `json:"timestamp"`
}

// Inverse returns the change that undoes this one
func (c StyleChange) Inverse() StyleChange {
	return StyleChange{
		Selector:  c.Selector,
		Property:  c.Property,
		OldValue:  c.NewValue,
		NewValue:  c.OldValue,
		Timestamp: c.Timestamp,
	}
}

// SelectedElement summarizes an element picked in a target page,
// produced by the target and consumed by the studio for display
type SelectedElement struct {
	Selector  string            `json:"selector"`
	TagName   string            `json:"tagName"`
	ClassName string            `json:"className"`
	ID        string            `json:"id"`
	Styles    map[string]string `json:"styles"`
}
