package batch

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"sprite-normalizer/internal/imageio"
	"sprite-normalizer/internal/log"
	"sprite-normalizer/internal/postprocess"
)

// Document maps a sprite name (file name without extension) to its transform.
type Document map[string]postprocess.Metadata

// BuildDocument collects the metadata of successful results. Failed files
// and sprites without a record are left out.
func BuildDocument(results []Result) Document {
	doc := make(Document, len(results))
	for _, r := range results {
		if !r.Success || r.Metadata == nil {
			continue
		}
		key := imageio.Stem(r.File)
		if _, dup := doc[key]; dup {
			log.Printf("  %s: warning: another file already produced %q, overwriting", r.File, key)
		}
		doc[key] = *r.Metadata
	}
	return doc
}

// WriteDocument writes doc as indented JSON to path.
func WriteDocument(path string, doc Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal metadata")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "write metadata %s", path)
	}
	return nil
}

// ReadDocument loads a metadata document written by WriteDocument.
func ReadDocument(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read metadata %s", path)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(err, "parse metadata %s", path)
	}
	return doc, nil
}
