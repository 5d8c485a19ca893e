package main

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pjohansson/windy-city-politics/pkg/ink"
)

var validFilenameRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <story.ink> [...]\n", os.Args[0])
		os.Exit(1)
	}

	failed := false
	for _, filename := range os.Args[1:] {
		if err := validateFile(filename); err != nil {
			fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}

	fmt.Println("All story files are valid!")
}

func validateFile(filename string) error {
	fmt.Printf("Validating %s...\n", filename)

	baseName := filepath.Base(filename)
	if !strings.HasSuffix(baseName, ".ink") {
		return fmt.Errorf("story file must have .ink extension: %s", baseName)
	}

	nameWithoutExt := strings.TrimSuffix(baseName, ".ink")
	if !validFilenameRegex.MatchString(nameWithoutExt) {
		return fmt.Errorf("story filename '%s' must be lowercase snake_case (e.g., city_hall.ink)", baseName)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	story, err := ink.ReadStory(string(data))
	if err != nil {
		return fmt.Errorf("file %s failed to parse: %w", filename, err)
	}

	knots := story.Knots()
	fmt.Printf("  %d knots: %s\n", len(knots), strings.Join(knots, ", "))

	if issues := story.Validate(); len(issues) > 0 {
		var lines []string
		for _, issue := range issues {
			lines = append(lines, "  - "+issue.String())
		}
		return fmt.Errorf("consistency problems in %s:\n%s", filename, strings.Join(lines, "\n"))
	}

	return nil
}
