package conversion

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lexiqai/pdf-narrator/internal/audio"
	"github.com/lexiqai/pdf-narrator/internal/document"
	"github.com/lexiqai/pdf-narrator/internal/observability"
)

// TextSource extracts text from documents.
type TextSource interface {
	Extract(ctx context.Context, path string) (string, error)
	Inspect(ctx context.Context, path string) (document.Info, error)
}

// Service ties document extraction to the conversion task.
type Service struct {
	source TextSource
	task   *Task
	logger zerolog.Logger
}

// NewService creates a service.
func NewService(source TextSource, task *Task, logger zerolog.Logger) *Service {
	return &Service{source: source, task: task, logger: logger}
}

// Task returns the underlying task.
func (s *Service) Task() *Task {
	return s.task
}

// Inspect reports page count and metadata without extracting text.
func (s *Service) Inspect(ctx context.Context, inputPath string) (document.Info, error) {
	return s.source.Inspect(ctx, inputPath)
}

// Convert extracts inputPath and submits the text. An empty outputPath is
// derived from inputPath. Extraction and validation errors are returned
// synchronously; everything later arrives on the event channel.
func (s *Service) Convert(ctx context.Context, inputPath, voice, outputPath string) (<-chan Event, error) {
	text, err := s.source.Extract(ctx, inputPath)
	if err != nil {
		return nil, err
	}
	observability.RecordExtractedCharacters(len(text))

	if strings.TrimSpace(text) == "" {
		return nil, &EmptyTextError{Source: filepath.Base(inputPath)}
	}
	if outputPath == "" {
		outputPath = DefaultOutputPath(inputPath)
	}

	s.logger.Debug().
		Str("input_path", inputPath).
		Int("characters", len(text)).
		Msg("Document text extracted")

	return s.task.Submit(ctx, Request{Text: text, Voice: voice, OutputPath: outputPath})
}

// DefaultOutputPath replaces the extension of inputPath with .mp3.
func DefaultOutputPath(inputPath string) string {
	return strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + audio.ExtMP3
}
