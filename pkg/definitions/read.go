package definitions

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/flowview/pkg/errors"
)

// ReadJSON decodes a definitions document from r.
//
// Only malformed JSON is an error. Dangling references are left in place;
// use [Index.Validate] to list them. ReadJSON does not close r.
func ReadJSON(r io.Reader) (*Index, error) {
	var ix Index
	if err := json.NewDecoder(r).Decode(&ix); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDefinitions, err, "decode definitions")
	}
	if ix.Components == nil {
		ix.Components = map[string]ComponentDefinition{}
	}
	return &ix, nil
}

// ImportJSON reads the definitions file at path.
func ImportJSON(path string) (*Index, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}

// WriteJSON encodes ix as indented JSON.
func WriteJSON(ix *Index, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ix); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
