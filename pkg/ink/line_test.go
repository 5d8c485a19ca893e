package ink

import (
	"errors"
	"reflect"
	"testing"
)

func mustParseLine(t *testing.T, raw string) ParsedLine {
	t.Helper()
	parsed, err := ParseLine(raw)
	if err != nil {
		t.Fatalf("ParseLine(%q) returned error: %v", raw, err)
	}
	return parsed
}

func TestParseLineData_PlainText(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{"simple", "Hello, world!", "Hello, world!"},
		{"trims surrounding whitespace", "   Hello, world!   ", "Hello, world!"},
		{"collapses internal whitespace", "Hello,      World!   ", "Hello, World!"},
		{"empty line is valid", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line, err := ParseLineData(tt.raw)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if line.Text != tt.expected {
				t.Errorf("expected text %q, got %q", tt.expected, line.Text)
			}
			if line.Kind != Regular {
				t.Errorf("expected Regular kind, got %v", line.Kind)
			}
			if len(line.Tags) != 0 {
				t.Errorf("expected no tags, got %v", line.Tags)
			}
			if line.GlueStart || line.GlueEnd {
				t.Errorf("expected no glue, got start=%v end=%v", line.GlueStart, line.GlueEnd)
			}
		})
	}
}

func TestParseLineData_Diverts(t *testing.T) {
	t.Run("bare divert", func(t *testing.T) {
		line, err := ParseLineData("-> knot_name")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if line.Kind != Divert || line.DivertTo != "knot_name" {
			t.Errorf("expected divert to knot_name, got kind=%v target=%q", line.Kind, line.DivertTo)
		}
		if line.Text != "" {
			t.Errorf("pure divert should keep empty text, got %q", line.Text)
		}
	})

	t.Run("embedded divert", func(t *testing.T) {
		line, err := ParseLineData("Hello->knot_name")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if line.Kind != Divert || line.DivertTo != "knot_name" {
			t.Errorf("expected divert to knot_name, got kind=%v target=%q", line.Kind, line.DivertTo)
		}
	})

	t.Run("divert acts as right glue", func(t *testing.T) {
		line, err := ParseLineData("Hello, world! ->knot_name")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !line.GlueEnd {
			t.Error("divert should force glue_end")
		}
		if line.Text != "Hello, world! " {
			t.Errorf("expected trailing separator space, got %q", line.Text)
		}
	})

	t.Run("only the first of several targets is honored", func(t *testing.T) {
		line, err := ParseLineData("-> first -> second -> third")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if line.DivertTo != "first" {
			t.Errorf("expected target first, got %q", line.DivertTo)
		}
		if !reflect.DeepEqual(line.ExtraTargets, []string{"second", "third"}) {
			t.Errorf("expected extra targets [second third], got %v", line.ExtraTargets)
		}
	})
}

func TestParseLineData_Glue(t *testing.T) {
	t.Run("left glue retains enclosed whitespace", func(t *testing.T) {
		line, err := ParseLineData("~~  text")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if line.Text != " text" {
			t.Errorf("expected %q, got %q", " text", line.Text)
		}
		if !line.GlueStart || line.GlueEnd {
			t.Errorf("expected glue_start only, got start=%v end=%v", line.GlueStart, line.GlueEnd)
		}
	})

	t.Run("right glue retains enclosed whitespace", func(t *testing.T) {
		line, err := ParseLineData("text  ~~")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if line.Text != "text " {
			t.Errorf("expected %q, got %q", "text ", line.Text)
		}
		if line.GlueStart || !line.GlueEnd {
			t.Errorf("expected glue_end only, got start=%v end=%v", line.GlueStart, line.GlueEnd)
		}
	})
}

func TestParseLineData_Tags(t *testing.T) {
	line, err := ParseLineData("Hello, world! #colour blue #italic")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if line.Text != "Hello, world!" {
		t.Errorf("expected tag-free text, got %q", line.Text)
	}
	if !reflect.DeepEqual(line.Tags, []string{"colour blue", "italic"}) {
		t.Errorf("expected ordered tags, got %v", line.Tags)
	}
}

func TestParseLine_ChoiceLevels(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		level    int
		isSticky bool
	}{
		{"single marker", "* Hello, world!", 1, false},
		{"double marker", "** Hello, world!", 2, false},
		{"sticky marker", "+ Hello, world!", 1, true},
		{"whitespace separated markers", "* *   * * Hello, world!", 4, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed := mustParseLine(t, tt.raw)
			if parsed.Kind != ParsedChoice {
				t.Fatalf("expected a choice, got kind %v", parsed.Kind)
			}
			if parsed.Level != tt.level {
				t.Errorf("expected level %d, got %d", tt.level, parsed.Level)
			}
			if parsed.Choice.IsSticky != tt.isSticky {
				t.Errorf("expected sticky=%v, got %v", tt.isSticky, parsed.Choice.IsSticky)
			}
			if parsed.Choice.NumVisited != 0 {
				t.Errorf("new choices start unvisited, got %d", parsed.Choice.NumVisited)
			}
			if parsed.Choice.Line.Text != "Hello, world!" {
				t.Errorf("expected choice text, got %q", parsed.Choice.Line.Text)
			}
			if !reflect.DeepEqual(parsed.Choice.Displayed, parsed.Choice.Line) {
				t.Error("displayed and line text should be equal at parse time")
			}
		})
	}
}

func TestParseLine_MixedChoiceMarkersFail(t *testing.T) {
	for _, raw := range []string{"+* Some choice", "*+ Some choice", "+++ * Some choice", "**+Some choice"} {
		t.Run(raw, func(t *testing.T) {
			_, err := ParseLine(raw)
			var lineErr *LineError
			if !errors.As(err, &lineErr) || lineErr.Reason != MultipleChoiceMarkers {
				t.Errorf("expected a multiple choice marker error, got %v", err)
			}
		})
	}
}

func TestParseLine_ChoiceRequiresText(t *testing.T) {
	_, err := ParseLine("*")
	var lineErr *LineError
	if !errors.As(err, &lineErr) || lineErr.Reason != NoDisplayText {
		t.Errorf("expected a no display text error, got %v", err)
	}
}

func TestParseLine_Gathers(t *testing.T) {
	t.Run("bare gather has empty text", func(t *testing.T) {
		parsed := mustParseLine(t, "-")
		if parsed.Kind != ParsedGather || parsed.Level != 1 {
			t.Fatalf("expected level 1 gather, got kind=%v level=%d", parsed.Kind, parsed.Level)
		}
		if parsed.Line.Text != "" {
			t.Errorf("expected empty gather text, got %q", parsed.Line.Text)
		}
	})

	t.Run("whitespace separated markers count", func(t *testing.T) {
		parsed := mustParseLine(t, "- -  - - Hello, world!")
		if parsed.Kind != ParsedGather || parsed.Level != 4 {
			t.Fatalf("expected level 4 gather, got kind=%v level=%d", parsed.Kind, parsed.Level)
		}
		if parsed.Line.Text != "Hello, world!" {
			t.Errorf("expected gather text, got %q", parsed.Line.Text)
		}
	})

	t.Run("divert prefixed lines are not gathers", func(t *testing.T) {
		parsed := mustParseLine(t, "    -> knot_name")
		if parsed.Kind != ParsedText {
			t.Fatalf("expected a plain line, got kind %v", parsed.Kind)
		}
		if parsed.Line.Kind != Divert || parsed.Line.DivertTo != "knot_name" {
			t.Errorf("expected divert to knot_name, got %+v", parsed.Line)
		}
	})
}
