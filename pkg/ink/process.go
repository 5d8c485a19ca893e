package ink

// Line is the externally visible unit of output: one logical line of text
// after glue merging, with the tags collected from its source lines.
type Line struct {
	Text string   `json:"text"`
	Tags []string `json:"tags,omitempty"`
}

// LineBuffer accumulates presentable lines across follows. Callers supply
// it to Start and ResumeWithChoice; it is appended to, never cleared, so
// it holds the full transcript of the session unless the caller resets it.
type LineBuffer []Line

// processBuffer converts the structured lines read during one follow into
// presentable lines, merging glued neighbours and terminating every
// produced line with a newline. Lines that end up empty (pure diverts and
// blank gathers) are dropped.
func processBuffer(into *LineBuffer, from LineDataBuffer) {
	var out []Line
	glue := false

	for _, data := range from {
		if len(out) > 0 && (glue || data.GlueStart) {
			last := &out[len(out)-1]
			last.Text += data.Text
			last.Tags = append(last.Tags, data.Tags...)
		} else {
			out = append(out, Line{
				Text: data.Text,
				Tags: append([]string(nil), data.Tags...),
			})
		}
		glue = data.GlueEnd
	}

	for _, line := range out {
		if line.Text == "" && len(line.Tags) == 0 {
			continue
		}
		line.Text += "\n"
		*into = append(*into, line)
	}
}

// prepareChoices formats a surviving choice set as presentable lines, in
// presentation order.
func prepareChoices(choices []*Choice) []Line {
	lines := make([]Line, 0, len(choices))
	for _, choice := range choices {
		lines = append(lines, Line{
			Text: choice.Displayed.Text,
			Tags: append([]string(nil), choice.Displayed.Tags...),
		})
	}
	return lines
}
