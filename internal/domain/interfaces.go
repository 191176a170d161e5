package domain

import "context"

// Renderer turns a deck file into ordered slide images
type Renderer interface {
	// Render must preserve page order and be deterministic for a given file.
	Render(ctx context.Context, path string) ([]SlideImage, error)
}

// ModelClient describes one image with a vision model
type ModelClient interface {
	// Describe issues exactly one outbound request and fails with *ProviderError.
	Describe(ctx context.Context, image []byte, mimeType, instructions string) (string, error)

	// Model returns the model identifier recorded in results.
	Model() string
}
