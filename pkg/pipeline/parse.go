package pipeline

import (
	"io"

	"github.com/matzehuels/flowview/pkg/definitions"
)

// Stdin is the path that reads definitions from standard input.
const Stdin = "-"

// LoadDefinitions reads a definitions document from path, or from stdin
// when path is [Stdin]. Dangling references are logged, not rejected.
func (r *Runner) LoadDefinitions(path string, stdin io.Reader) (*definitions.Index, error) {
	var (
		ix  *definitions.Index
		err error
	)
	if path == Stdin {
		ix, err = definitions.ReadJSON(stdin)
	} else {
		ix, err = definitions.ImportJSON(path)
	}
	if err != nil {
		return nil, err
	}
	for _, problem := range ix.Validate() {
		r.Logger.Debug("definitions", "problem", problem)
	}
	r.Logger.Debug("loaded definitions",
		"root", ix.ComponentArtifactID,
		"components", len(ix.Components),
		"members", len(ix.Members),
		"connections", len(ix.Connections))
	return ix, nil
}
