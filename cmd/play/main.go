package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pjohansson/windy-city-politics/pkg/ink"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <story.ink>\n", os.Args[0])
		os.Exit(1)
	}

	content, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read story: %v\n", err)
		os.Exit(1)
	}

	story, err := ink.ReadStory(string(content))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse story: %v\n", err)
		os.Exit(1)
	}

	if issues := story.Validate(); len(issues) > 0 {
		fmt.Fprintf(os.Stderr, "Story has problems:\n")
		for _, issue := range issues {
			fmt.Fprintf(os.Stderr, "  %s\n", issue)
		}
		os.Exit(1)
	}

	p := tea.NewProgram(NewPlayerUI(os.Args[1], string(content)),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}
