package reporting

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ethereum-optimism/infra/jenkins-reporter/junit"
)

// ReportWriter persists a finished report document.
type ReportWriter interface {
	WriteReport(ctx context.Context, doc *junit.TestSuites) error
}

var _ ReportWriter = (*FileWriter)(nil)

// FileWriter writes reports to a fixed path, creating the parent directory first.
type FileWriter struct {
	path   string
	tracer trace.Tracer
}

// NewFileWriter creates a writer for path.
func NewFileWriter(path string) *FileWriter {
	return &FileWriter{
		path:   path,
		tracer: otel.Tracer("jenkins-reporter/reporting"),
	}
}

// Path returns the destination of the report.
func (w *FileWriter) Path() string {
	return w.path
}

// WriteReport renders doc and replaces the file at the configured path.
func (w *FileWriter) WriteReport(ctx context.Context, doc *junit.TestSuites) (err error) {
	_, span := w.tracer.Start(ctx, "write-report", trace.WithAttributes(
		attribute.String("path", w.path),
		attribute.Int("suites", len(doc.Suites)),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	content, err := doc.Render()
	if err != nil {
		return err
	}

	if err := os.WriteFile(w.path, content, 0644); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}
	return nil
}
