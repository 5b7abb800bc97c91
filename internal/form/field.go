// Package form contains the application-form engine: the field model, the
// AI-assisted field interpreter and the page-walking driver.
package form

import "errors"

// FieldKind is the closed set of input shapes the engine understands. Every
// new shape a site invents must come through ErrUnsupportedFieldKind instead
// of failing somewhere unpredictable.
type FieldKind string

const (
	KindText         FieldKind = "text"
	KindSingleSelect FieldKind = "single-select"
	KindMultiSelect  FieldKind = "multi-select"
	KindUpload       FieldKind = "file-upload"
	KindBool         FieldKind = "boolean"
)

// ErrUnsupportedFieldKind is returned by Interpret for a field whose kind or
// label the engine cannot work with. The caller treats it as skip-and-flag.
var ErrUnsupportedFieldKind = errors.New("unsupported field kind")

// FormField is one interactable input on the current page. It lives only for
// the duration of a single page traversal.
type FormField struct {
	Selector string    // stable within the page snapshot
	Label    string    // question text shown to the applicant
	Kind     FieldKind
	Value    string    // current value, if any
	Options  []string  // allowed options for constrained kinds
	Required bool
}

// Action says what the driver should do with a field.
type Action string

const (
	ActionFill       Action = "fill"        // enter Decision.Value as text
	ActionSelect     Action = "select"      // choose Decision.Value from Options
	ActionSelectMany Action = "select-many" // check every entry in Decision.Values
	ActionUpload     Action = "upload"      // upload the file at Decision.Value
	ActionSkip       Action = "skip"        // deliberately leave the field alone
	ActionNoAnswer   Action = "no-answer"   // could not resolve with confidence
)

// Decision is the interpreter's verdict for one field.
type Decision struct {
	Action Action
	Value  string
	Values []string
}

// Resolved reports whether the decision carries a value the driver can act
// on. Skip and NoAnswer both leave the field unresolved; they differ only in
// intent.
func (d Decision) Resolved() bool {
	switch d.Action {
	case ActionFill, ActionSelect, ActionSelectMany, ActionUpload:
		return true
	}
	return false
}
