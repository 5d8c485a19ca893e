package ink

import (
	"strings"
	"unicode"
)

// Markers recognized by the line and block parsers.
const (
	knotMarker         = '='
	choiceMarker       = '*'
	stickyChoiceMarker = '+'
	gatherMarker       = '-'
	glueMarker         = '~'
	tagMarker          = '#'
	divertMarker       = "->"
)

// Reserved knot names that end the story when diverted to. Neither
// requires a knot body to exist.
const (
	DoneKnot = "DONE"
	EndKnot  = "END"
)

// LineKind tells what following a line results in.
type LineKind int

const (
	// Regular lines move on with the story.
	Regular LineKind = iota
	// Divert lines jump to the start of a named knot.
	Divert
)

// LineData is a single parsed line of story content. It is immutable once
// parsed.
type LineData struct {
	// Text of the line, trimmed and with internal whitespace collapsed.
	Text string
	// Kind is Regular for plain lines and Divert for lines that jump to
	// another knot.
	Kind LineKind
	// DivertTo names the target knot when Kind is Divert.
	DivertTo string
	// ExtraTargets holds any additional divert targets found on the line.
	// Only the first target is followed; the rest are unreachable and are
	// reported by Story.Validate.
	ExtraTargets []string
	// Tags attached to the line, in order of appearance.
	Tags []string
	// GlueStart marks that the line fuses onto the previous emitted line
	// without a line break.
	GlueStart bool
	// GlueEnd marks that the following emitted line fuses onto this one.
	// A divert always glues to the target knot's first line.
	GlueEnd bool
}

// ParsedLineKind discriminates the variants of a ParsedLine.
type ParsedLineKind int

const (
	// ParsedText is a plain line, possibly carrying a divert.
	ParsedText ParsedLineKind = iota
	// ParsedChoice is a choice presented to the user.
	ParsedChoice
	// ParsedGather is a join point that collapses open choice branches.
	ParsedGather
)

// ParsedLine is one raw line classified as a choice, a gather or a plain
// line. Level is the nesting depth for choices and gathers, counted from
// the marker run at the start of the line.
type ParsedLine struct {
	Kind   ParsedLineKind
	Level  int
	Choice *Choice
	Line   LineData
}

// Choice is one option in a set presented to the user.
type Choice struct {
	// Displayed is shown to the user when the set is presented.
	Displayed LineData
	// Line is emitted into the story once the choice is selected. It may
	// differ from Displayed once inline alternatives are supported; today
	// both are the same parsed line.
	Line LineData
	// NumVisited counts how many times this choice has been selected.
	NumVisited int
	// IsSticky keeps the choice presentable after it has been selected.
	// Non-sticky choices are filtered out once visited.
	IsSticky bool
}

// ParseLine classifies one raw line of knot content as a choice, a gather
// or a plain line.
func ParseLine(raw string) (ParsedLine, error) {
	if parsed, found, err := parseChoice(raw); found {
		return parsed, err
	}
	if parsed, found, err := parseGather(raw); found {
		return parsed, err
	}
	line, err := ParseLineData(raw)
	if err != nil {
		return ParsedLine{}, err
	}
	return ParsedLine{Kind: ParsedText, Line: line}, nil
}

func parseChoice(raw string) (ParsedLine, bool, error) {
	level, rest, found := countMarkers(raw, choiceMarker)
	isSticky := false
	if !found {
		level, rest, found = countMarkers(raw, stickyChoiceMarker)
		isSticky = true
	}
	if !found {
		return ParsedLine{}, false, nil
	}

	if strings.HasPrefix(rest, string(choiceMarker)) || strings.HasPrefix(rest, string(stickyChoiceMarker)) {
		return ParsedLine{}, true, &LineError{Line: raw, Reason: MultipleChoiceMarkers}
	}
	if rest == "" {
		return ParsedLine{}, true, &LineError{Line: raw, Reason: NoDisplayText}
	}

	line, err := ParseLineData(rest)
	if err != nil {
		return ParsedLine{}, true, err
	}

	choice := &Choice{
		Displayed: line,
		Line:      line,
		IsSticky:  isSticky,
	}
	return ParsedLine{Kind: ParsedChoice, Level: level, Choice: choice}, true, nil
}

func parseGather(raw string) (ParsedLine, bool, error) {
	// A line that starts with a divert is never a gather, but a gather may
	// sit behind leading divert markers when it is the target of a redirect.
	stripped := strings.TrimLeftFunc(raw, unicode.IsSpace)
	for strings.HasPrefix(stripped, divertMarker) {
		stripped = stripped[len(divertMarker):]
	}

	level, rest, found := countMarkers(stripped, gatherMarker)
	if !found {
		return ParsedLine{}, false, nil
	}

	line, err := ParseLineData(rest)
	if err != nil {
		return ParsedLine{}, true, err
	}
	return ParsedLine{Kind: ParsedGather, Level: level, Line: line}, true, nil
}

// countMarkers splits a leading run of the given marker from the line.
// Markers may be separated by whitespace and still count as one run. The
// remainder starts at the first character that is neither the marker nor
// whitespace.
func countMarkers(raw string, marker rune) (int, string, bool) {
	if !strings.HasPrefix(strings.TrimLeftFunc(raw, unicode.IsSpace), string(marker)) {
		return 0, "", false
	}

	split := strings.IndexFunc(raw, func(r rune) bool {
		return r != marker && !unicode.IsSpace(r)
	})

	markers, rest := raw, ""
	if split >= 0 {
		markers, rest = raw[:split], raw[split:]
	}

	return strings.Count(markers, string(marker)), rest, true
}

// ParseLineData parses one raw line into its structured form, splitting
// off tags, a divert target and glue markers. An empty string is a valid,
// empty line.
func ParseLineData(raw string) (LineData, error) {
	text := collapseWhitespace(raw)

	text, tags := splitTags(text)
	text, target, extras, hasDivert := splitDivert(text)
	text = strings.TrimSpace(text)
	text, glueStart, glueEnd := splitGlue(text, hasDivert)

	line := LineData{
		Text:      text,
		Tags:      tags,
		GlueStart: glueStart,
		GlueEnd:   glueEnd,
	}
	if hasDivert {
		line.Kind = Divert
		line.DivertTo = target
		line.ExtraTargets = extras
	}
	return line, nil
}

// collapseWhitespace trims the line and reduces internal whitespace runs
// to single spaces.
func collapseWhitespace(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

// splitTags cuts the line at the first tag marker and splits the tail on
// further markers into an ordered list of tags.
func splitTags(text string) (string, []string) {
	i := strings.IndexRune(text, tagMarker)
	if i < 0 {
		return text, nil
	}

	head, tail := text[:i], text[i:]
	tail = strings.Trim(tail, string(tagMarker))

	var tags []string
	for _, tag := range strings.Split(tail, string(tagMarker)) {
		tags = append(tags, strings.TrimSpace(tag))
	}
	return head, tags
}

// splitDivert cuts the line at the first divert marker. The first
// marker-delimited token becomes the target; any further tokens are kept
// only so that validation can flag them as unreachable.
func splitDivert(text string) (string, string, []string, bool) {
	i := strings.Index(text, divertMarker)
	if i < 0 {
		return text, "", nil, false
	}

	head, tail := text[:i], text[i:]
	for strings.HasPrefix(tail, divertMarker) {
		tail = tail[len(divertMarker):]
	}

	parts := strings.Split(tail, divertMarker)
	target := strings.TrimSpace(parts[0])

	var extras []string
	for _, part := range parts[1:] {
		if name := strings.TrimSpace(part); name != "" {
			extras = append(extras, name)
		}
	}
	return head, target, extras, true
}

// splitGlue strips glue markers from either side of the line, keeping the
// whitespace they enclosed. A divert always glues rightwards; if it had no
// explicit glue marker a separating space is kept on non-empty text.
func splitGlue(text string, hasDivert bool) (string, bool, bool) {
	glueStart := strings.HasPrefix(text, string(glueMarker))
	glueEnd := strings.HasSuffix(text, string(glueMarker))

	if glueStart {
		text = strings.TrimLeft(text, string(glueMarker))
	}
	if glueEnd {
		text = strings.TrimRight(text, string(glueMarker))
	}

	if hasDivert && !glueEnd && text != "" {
		text += " "
	}

	return text, glueStart, glueEnd || hasDivert
}
