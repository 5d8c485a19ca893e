package ink

import (
	"errors"
	"fmt"
)

// ErrEmptyDocument is returned when a story is read from an empty string.
var ErrEmptyDocument = errors.New("story has no content")

// ErrNotAwaitingChoice is returned when a choice is supplied but the story
// is not stopped at a choice point.
var ErrNotAwaitingChoice = errors.New("story is not awaiting a choice")

// KnotErrorReason classifies why a knot header could not be parsed.
type KnotErrorReason int

const (
	// KnotMissingMarker means the header line did not start with the knot marker.
	KnotMissingMarker KnotErrorReason = iota
	// KnotEmptyName means the header had a marker but no name text.
	KnotEmptyName
	// KnotNameWhitespace means the knot name contained whitespace.
	KnotNameWhitespace
	// KnotDuplicateName means a knot with the same name was already defined.
	KnotDuplicateName
)

// KnotError is a parse error for a knot header line.
type KnotError struct {
	Line   string
	Reason KnotErrorReason
}

func (e *KnotError) Error() string {
	switch e.Reason {
	case KnotEmptyName:
		return fmt.Sprintf("could not read knot name: name is empty (line: %q)", e.Line)
	case KnotNameWhitespace:
		return fmt.Sprintf("could not read knot name: name contains whitespace characters (line: %q)", e.Line)
	case KnotDuplicateName:
		return fmt.Sprintf("could not read knot name: name is already in use (line: %q)", e.Line)
	default:
		return fmt.Sprintf("could not read knot name: line does not start with %q (line: %q)", string(knotMarker), e.Line)
	}
}

// LineErrorReason classifies why a single content line could not be parsed.
type LineErrorReason int

const (
	// NoDisplayText means a line had choice markers but no text to display.
	NoDisplayText LineErrorReason = iota
	// MultipleChoiceMarkers means a line mixed sticky and non-sticky choice markers.
	MultipleChoiceMarkers
)

// LineError is a parse error for a single line of story content.
type LineError struct {
	Line   string
	Reason LineErrorReason
}

func (e *LineError) Error() string {
	switch e.Reason {
	case MultipleChoiceMarkers:
		return fmt.Sprintf("invalid line: mixed choice marker types %q and %q (line: %q)",
			string(choiceMarker), string(stickyChoiceMarker), e.Line)
	default:
		return fmt.Sprintf("invalid line: choice has no display text (line: %q)", e.Line)
	}
}

// UnknownKnotError is returned when a divert names a knot that was never
// defined. It is an internal consistency error, not a parse error: the
// story was constructed from content that diverts to a missing section.
type UnknownKnotError struct {
	Name string
}

func (e *UnknownKnotError) Error() string {
	return fmt.Sprintf("diverted to unknown knot %q", e.Name)
}

// InvalidChoiceError is returned when a choice index is out of range for
// the currently presented set.
type InvalidChoiceError struct {
	Index     int
	Available int
}

func (e *InvalidChoiceError) Error() string {
	return fmt.Sprintf("invalid choice: index %d is out of range for a set of %d choices", e.Index, e.Available)
}

// DeadEndError is returned when filtering a choice set leaves no choice to
// present. This is a content authoring error: the story has no way forward.
type DeadEndError struct {
	Knot string
}

func (e *DeadEndError) Error() string {
	if e.Knot == "" {
		return "story reached a choice set with no remaining choices"
	}
	return fmt.Sprintf("story reached a choice set with no remaining choices in knot %q", e.Knot)
}

// DivertDepthError is returned when a follow resolves more chained diverts
// than the configured limit, which indicates a divert loop in the content.
type DivertDepthError struct {
	Limit int
	Knot  string
}

func (e *DivertDepthError) Error() string {
	return fmt.Sprintf("divert chain exceeded %d jumps without producing a choice or an ending (last knot: %q)", e.Limit, e.Knot)
}
