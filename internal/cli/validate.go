package cli

import (
	"io"

	"github.com/aretw0/arbor/internal/compiler"
	"github.com/aretw0/arbor/internal/validator"
)

// RunValidate parses the documents at paths and checks each of them. It stops
// at the first invalid one.
func RunValidate(w io.Writer, paths ...string) error {
	parser := compiler.NewParser()
	for _, path := range paths {
		doc, err := parser.ParseFile(path)
		if err != nil {
			return err
		}
		if err := validator.ValidateDocument(doc); err != nil {
			return err
		}
		printSystemMessage(w, "%s is valid (%d nodes)", path, doc.Tree.Size())
	}
	return nil
}
