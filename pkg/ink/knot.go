package ink

import "strings"

// NextKind tells how a follow through a knot ended.
type NextKind int

const (
	// NextDone means the knot's content was exhausted.
	NextDone NextKind = iota
	// NextDivert means a divert line was read; traversal continues in the
	// named knot.
	NextDivert
	// NextChoiceSet means a set of choices was reached and must be
	// resolved before traversal continues.
	NextChoiceSet
)

// Next is the outcome of following a knot until it stops.
type Next struct {
	Kind NextKind
	// Divert names the target knot when Kind is NextDivert.
	Divert string
	// Choices holds the surviving choices, in presentation order, when
	// Kind is NextChoiceSet.
	Choices []*Choice
}

// LineDataBuffer accumulates the structured lines read during a follow,
// before the output processor turns them into presentable lines.
type LineDataBuffer []LineData

// node is one position in a knot's tree: either a single line or a set of
// choice branches attached at that position.
type node struct {
	line     *LineData
	branches []*branch
}

// branch is one choice and the nested body that follows it until a marker
// at the same or a shallower level.
type branch struct {
	choice *Choice
	items  []*node
}

// frame is one level of the traversal cursor: a list of sibling nodes and
// the index of the next one to read.
type frame struct {
	items []*node
	index int
}

// Knot is a named section of the story: a tree of lines and choice sets
// plus the cursor used to walk it. The story exclusively owns its knots;
// a knot exclusively owns its tree and cursor.
type Knot struct {
	root    []*node
	frames  []frame
	pending *node
}

// ParseKnot parses the body of one knot into its traversable tree. Blank
// lines are skipped.
func ParseKnot(text string) (*Knot, error) {
	var lines []ParsedLine
	for _, raw := range strings.Split(text, "\n") {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		parsed, err := ParseLine(raw)
		if err != nil {
			return nil, err
		}
		lines = append(lines, parsed)
	}

	return &Knot{root: buildTree(lines)}, nil
}

// openContext is one open choice set during tree construction, keyed by
// the nesting level it was declared at.
type openContext struct {
	level  int
	set    *node
	branch *branch
}

// buildTree assembles the parsed lines of one knot into a tree, resolving
// nesting levels into parent/child and join relationships with an explicit
// stack of open choice contexts.
func buildTree(lines []ParsedLine) []*node {
	var root []*node
	var stack []*openContext

	appendNode := func(n *node) {
		if len(stack) > 0 {
			top := stack[len(stack)-1]
			top.branch.items = append(top.branch.items, n)
		} else {
			root = append(root, n)
		}
	}

	for _, parsed := range lines {
		switch parsed.Kind {
		case ParsedChoice:
			for len(stack) > 0 && stack[len(stack)-1].level > parsed.Level {
				stack = stack[:len(stack)-1]
			}

			b := &branch{choice: parsed.Choice}
			if len(stack) > 0 && stack[len(stack)-1].level == parsed.Level {
				// Adjacent choice at the same level extends the open set.
				top := stack[len(stack)-1]
				top.set.branches = append(top.set.branches, b)
				top.branch = b
			} else {
				set := &node{branches: []*branch{b}}
				appendNode(set)
				stack = append(stack, &openContext{level: parsed.Level, set: set, branch: b})
			}

		case ParsedGather:
			// A gather at level L closes every open context at level >= L
			// and becomes the shared continuation point below them.
			for len(stack) > 0 && stack[len(stack)-1].level >= parsed.Level {
				stack = stack[:len(stack)-1]
			}
			line := parsed.Line
			appendNode(&node{line: &line})

		default:
			line := parsed.Line
			appendNode(&node{line: &line})
		}
	}

	return root
}

// Follow walks the knot from its first node, appending each read line to
// the buffer, until a divert is read, a choice set is reached or the tree
// is exhausted. Entering a knot always restarts it from the top.
func (k *Knot) Follow(buffer *LineDataBuffer) (Next, error) {
	k.frames = []frame{{items: k.root}}
	k.pending = nil

	return k.followFrom(buffer)
}

// FollowWithChoice resumes a knot stopped at a choice set. The index
// selects among the surviving choices in presentation order. The chosen
// line is appended to the buffer and traversal continues through the
// choice's nested body.
func (k *Knot) FollowWithChoice(index int, buffer *LineDataBuffer) (Next, error) {
	if k.pending == nil {
		return Next{}, ErrNotAwaitingChoice
	}

	alive := survivingChoices(k.pending)
	if index < 0 || index >= len(alive) {
		return Next{}, &InvalidChoiceError{Index: index, Available: len(alive)}
	}

	chosen := k.pending.branches[indexOfSurvivor(k.pending, index)]
	chosen.choice.NumVisited++
	buffer.push(chosen.choice.Line)

	// Step past the choice set so traversal continues behind it once the
	// branch body is exhausted, then descend into the branch.
	top := &k.frames[len(k.frames)-1]
	top.index++
	k.frames = append(k.frames, frame{items: chosen.items})
	k.pending = nil

	if chosen.choice.Line.Kind == Divert {
		return Next{Kind: NextDivert, Divert: chosen.choice.Line.DivertTo}, nil
	}
	return k.followFrom(buffer)
}

// followFrom continues linear traversal from the current cursor position.
func (k *Knot) followFrom(buffer *LineDataBuffer) (Next, error) {
	for len(k.frames) > 0 {
		top := &k.frames[len(k.frames)-1]
		if top.index >= len(top.items) {
			k.frames = k.frames[:len(k.frames)-1]
			continue
		}

		n := top.items[top.index]
		if n.line != nil {
			top.index++
			buffer.push(*n.line)
			if n.line.Kind == Divert {
				return Next{Kind: NextDivert, Divert: n.line.DivertTo}, nil
			}
			continue
		}

		alive := survivingChoices(n)
		if len(alive) == 0 {
			return Next{}, &DeadEndError{}
		}
		k.pending = n
		return Next{Kind: NextChoiceSet, Choices: alive}, nil
	}

	return Next{Kind: NextDone}, nil
}

// survivingChoices filters a choice set for presentation: sticky choices
// always survive, non-sticky ones only until they have been visited.
func survivingChoices(set *node) []*Choice {
	var alive []*Choice
	for _, b := range set.branches {
		if b.choice.IsSticky || b.choice.NumVisited == 0 {
			alive = append(alive, b.choice)
		}
	}
	return alive
}

// indexOfSurvivor maps an index into the surviving choices back to the
// branch position in the declared set.
func indexOfSurvivor(set *node, index int) int {
	seen := 0
	for i, b := range set.branches {
		if b.choice.IsSticky || b.choice.NumVisited == 0 {
			if seen == index {
				return i
			}
			seen++
		}
	}
	return -1
}

// diverts lists every divert target in the knot's tree, for validation.
func (k *Knot) diverts() []LineData {
	var out []LineData
	var walk func(items []*node)
	walk = func(items []*node) {
		for _, n := range items {
			if n.line != nil {
				if n.line.Kind == Divert || len(n.line.ExtraTargets) > 0 {
					out = append(out, *n.line)
				}
				continue
			}
			for _, b := range n.branches {
				if b.choice.Line.Kind == Divert || len(b.choice.Line.ExtraTargets) > 0 {
					out = append(out, b.choice.Line)
				}
				walk(b.items)
			}
		}
	}
	walk(k.root)
	return out
}

func (b *LineDataBuffer) push(line LineData) {
	*b = append(*b, line)
}
