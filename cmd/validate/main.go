package main

import (
	"fmt"
	"os"

	"github.com/jwebster45206/storypath/pkg/story"
)

// Lints the built-in story graph: every node reachable, no dead ends, no
// broken choice targets. Run it after editing the seed graph.
func main() {
	graph := story.SeedGraph()
	fmt.Printf("Validating story graph (%d nodes)...\n", len(graph))

	problems := story.Lint(graph)
	if len(problems) > 0 {
		for _, p := range problems {
			fmt.Fprintf(os.Stderr, "  - %s\n", p)
		}
		fmt.Fprintf(os.Stderr, "Validation failed with %d problem(s)\n", len(problems))
		os.Exit(1)
	}

	fmt.Println("Story graph is valid!")
}
