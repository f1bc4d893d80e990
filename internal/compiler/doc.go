// Package compiler decodes tree documents (YAML or JSON) into virtual trees.
package compiler
