package validator

import (
	"fmt"
	"strings"

	"github.com/aretw0/arbor/internal/compiler"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/schema"
)

// ValidateDocument checks a tree document beyond what parsing guarantees: every
// sibling list is free of duplicate author keys and every recognized prop
// matches its declared type. All problems are reported at once.
func ValidateDocument(doc *compiler.Document) error {
	if doc == nil || doc.Tree == nil {
		return fmt.Errorf("document has no tree")
	}

	var errors []string
	doc.Tree.Walk(func(p domain.Path, n *domain.Node) bool {
		seen := make(map[string]int, len(n.Children))
		for i, c := range n.Children {
			if c.Key == "" {
				continue
			}
			if first, dup := seen[c.Key]; dup {
				errors = append(errors, fmt.Sprintf("Duplicate key %q under '%s': children %d and %d", c.Key, p.String(), first, i))
				continue
			}
			seen[c.Key] = i
		}
		return true
	})

	if err := doc.Schema.Validate(doc.Tree); err != nil {
		for _, e := range schema.ValidationErrors(err) {
			errors = append(errors, e.Error())
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("found %d errors:\n- %s", len(errors), strings.Join(errors, "\n- "))
	}
	return nil
}
