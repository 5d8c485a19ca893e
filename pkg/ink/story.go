package ink

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// rootKnotName is the reserved name for the implicit knot holding content
// that appears before the first knot header.
const rootKnotName = "$ROOT$"

// maxDivertChain bounds how many chained diverts one follow may resolve
// before it is reported as a loop in the content.
const maxDivertChain = 100

// Story holds the full set of knots and the current position within them.
// It is single-threaded: embedders that share a story between goroutines
// must serialize calls themselves.
type Story struct {
	knots map[string]*Knot
	stack []string
}

// Result is the outcome of Start or ResumeWithChoice.
type Result struct {
	// Finished is true when the story reached an end.
	Finished bool
	// Choices holds the presentable choices when the story stopped at a
	// choice point. Resume with the index of the selected line.
	Choices []Line
}

// ReadStory parses a full story text into its knots. The content before
// the first knot header becomes the entry knot; if the text opens directly
// with a header, the first named knot is the entry.
func ReadStory(content string) (*Story, error) {
	entry, knots, err := parseKnots(content)
	if err != nil {
		return nil, err
	}

	return &Story{
		knots: knots,
		stack: []string{entry},
	}, nil
}

// Start follows the story from the current knot, appending read lines to
// the buffer, until it ends or stops at a set of choices. Calling Start
// again after the story finished restarts it from the current knot.
//
// The buffer is appended to, not cleared.
func (s *Story) Start(buffer *LineBuffer) (Result, error) {
	return s.followStory(func(knot *Knot, internal *LineDataBuffer) (Next, error) {
		return knot.Follow(internal)
	}, buffer)
}

// ResumeWithChoice resumes a story stopped at a choice point with the
// selected index. Indexing starts at 0 and counts the presented lines,
// not the choices as declared (filtered choices are skipped).
//
// The buffer is appended to, not cleared.
func (s *Story) ResumeWithChoice(index int, buffer *LineBuffer) (Result, error) {
	return s.followStory(func(knot *Knot, internal *LineDataBuffer) (Next, error) {
		return knot.FollowWithChoice(index, internal)
	}, buffer)
}

// followStory reads lines into an internal buffer with the supplied
// follow, resolves any divert chain, and processes the buffer into the
// caller's presentable lines.
func (s *Story) followStory(follow func(*Knot, *LineDataBuffer) (Next, error), buffer *LineBuffer) (Result, error) {
	var internal LineDataBuffer

	next, err := s.followKnot(follow, &internal)

	// Lines read before the error are still delivered, so the caller can
	// render the transcript up to the point of failure.
	processBuffer(buffer, internal)
	if err != nil {
		return Result{}, err
	}

	if next.Kind == NextChoiceSet {
		return Result{Choices: prepareChoices(next.Choices)}, nil
	}
	return Result{Finished: true}, nil
}

// followKnot runs one follow on the active knot and resolves diverts by
// switching knots and re-following from their start, until the outcome is
// a choice set or an ending.
func (s *Story) followKnot(follow func(*Knot, *LineDataBuffer) (Next, error), internal *LineDataBuffer) (Next, error) {
	name := s.current()
	knot, ok := s.knots[name]
	if !ok {
		return Next{}, &UnknownKnotError{Name: name}
	}

	next, err := follow(knot, internal)
	if err != nil {
		return Next{}, err
	}

	for chain := 0; next.Kind == NextDivert; chain++ {
		if next.Divert == DoneKnot || next.Divert == EndKnot {
			return Next{Kind: NextDone}, nil
		}
		if chain >= maxDivertChain {
			return Next{}, &DivertDepthError{Limit: maxDivertChain, Knot: s.current()}
		}

		knot, ok = s.knots[next.Divert]
		if !ok {
			return Next{}, &UnknownKnotError{Name: next.Divert}
		}
		s.stack[len(s.stack)-1] = next.Divert

		next, err = knot.Follow(internal)
		if err != nil {
			return Next{}, err
		}
	}

	return next, nil
}

// current returns the name of the active knot.
func (s *Story) current() string {
	return s.stack[len(s.stack)-1]
}

// Knots lists the names of all knots in the story, sorted.
func (s *Story) Knots() []string {
	names := make([]string, 0, len(s.knots))
	for name := range s.knots {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Issue is one problem found by Validate.
type Issue struct {
	// Knot is the name of the knot the issue was found in, or the name of
	// the affected knot for reachability issues.
	Knot string
	// Target is the divert target the issue concerns, when applicable.
	Target string
	// Reason is a human-readable description of the problem.
	Reason string
}

func (i Issue) String() string {
	if i.Target != "" {
		return fmt.Sprintf("%s: %s -> %s", i.Knot, i.Reason, i.Target)
	}
	return fmt.Sprintf("%s: %s", i.Knot, i.Reason)
}

// Validate checks the story's internal consistency after parsing: every
// divert must name a defined knot or a terminal sentinel, extra targets on
// multi-target divert lines are unreachable, and every knot other than the
// entry should be diverted to from somewhere.
func (s *Story) Validate() []Issue {
	var issues []Issue
	targeted := map[string]bool{s.current(): true}

	for _, name := range s.Knots() {
		for _, line := range s.knots[name].diverts() {
			if line.Kind == Divert {
				targeted[line.DivertTo] = true
				if !s.knownTarget(line.DivertTo) {
					issues = append(issues, Issue{
						Knot:   name,
						Target: line.DivertTo,
						Reason: "divert to undefined knot",
					})
				}
			}
			for _, extra := range line.ExtraTargets {
				issues = append(issues, Issue{
					Knot:   name,
					Target: extra,
					Reason: "unreachable extra divert target (only the first target is followed)",
				})
			}
		}
	}

	for _, name := range s.Knots() {
		if !targeted[name] {
			issues = append(issues, Issue{
				Knot:   name,
				Reason: "knot is never diverted to",
			})
		}
	}

	return issues
}

func (s *Story) knownTarget(name string) bool {
	if name == DoneKnot || name == EndKnot {
		return true
	}
	_, ok := s.knots[name]
	return ok
}

// parseKnots splits the story text into its named knots and parses each
// body. It returns the entry knot's name along with the full mapping.
func parseKnots(content string) (string, map[string]*Knot, error) {
	if strings.TrimSpace(content) == "" {
		return "", nil, ErrEmptyDocument
	}

	knots := make(map[string]*Knot)
	entry := ""

	name := rootKnotName
	var body []string

	finish := func() error {
		text := strings.Join(body, "\n")
		if name == rootKnotName && strings.TrimSpace(text) == "" {
			// No content before the first header; the first named knot
			// becomes the entry.
			return nil
		}
		knot, err := ParseKnot(text)
		if err != nil {
			return err
		}
		knots[name] = knot
		if entry == "" {
			entry = name
		}
		return nil
	}

	for _, raw := range strings.Split(content, "\n") {
		header := strings.TrimSpace(raw)
		if !strings.HasPrefix(header, string(knotMarker)) {
			body = append(body, raw)
			continue
		}

		if err := finish(); err != nil {
			return "", nil, err
		}

		next, err := parseKnotName(header)
		if err != nil {
			return "", nil, err
		}
		if _, exists := knots[next]; exists {
			return "", nil, &KnotError{Line: raw, Reason: KnotDuplicateName}
		}
		name = next
		body = nil
	}

	if err := finish(); err != nil {
		return "", nil, err
	}

	if entry == "" {
		return "", nil, ErrEmptyDocument
	}
	return entry, knots, nil
}

// parseKnotName reads a knot name from a header line. The marker run must
// be followed immediately by a bare identifier with no whitespace.
func parseKnotName(header string) (string, error) {
	if !strings.HasPrefix(header, string(knotMarker)) {
		return "", &KnotError{Line: header, Reason: KnotMissingMarker}
	}

	name := strings.TrimLeft(header, string(knotMarker))
	if name == "" {
		return "", &KnotError{Line: header, Reason: KnotEmptyName}
	}
	if strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return "", &KnotError{Line: header, Reason: KnotNameWhitespace}
	}

	return name, nil
}
