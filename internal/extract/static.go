package extract

import (
	"context"
	"os"

	"github.com/rotisserie/eris"

	"github.com/sells-group/syllabus-cli/internal/model"
)

// StaticExtractor reads a pre-parsed extraction document from disk instead
// of calling a model. The document text is ignored.
type StaticExtractor struct {
	Path string
}

// NewStaticExtractor returns an extractor backed by the JSON file at path.
func NewStaticExtractor(path string) *StaticExtractor {
	return &StaticExtractor{Path: path}
}

// Extract implements Extractor.
func (s *StaticExtractor) Extract(ctx context.Context, _ Document) ([]model.StagingItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, eris.Wrapf(err, "extract: read %s", s.Path)
	}
	return Decode(data)
}
