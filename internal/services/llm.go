package services

import "context"

// Generator produces narrative text from a prompt.
type Generator interface {
	// InitModel checks that the named model is available, pulling it
	// if necessary.
	InitModel(ctx context.Context, modelName string) error

	// Generate returns the raw model output for the given prompt.
	Generate(ctx context.Context, prompt string) (string, error)
}
