// Package schema describes which props each node kind recognizes.
//
// The template layer hands the engine a Registry alongside the initial tree. The
// prop change filter consults it and silently drops every prop a kind does not
// declare, so author-only metadata never leaks into host update calls.
//
// Basic usage:
//
//	reg := schema.Registry{
//	    "text": {"content": schema.String()},
//	    "map":  {"markers": schema.Slice(schema.Any()), "zoom": schema.Float()},
//	}
//
//	reg.Recognized("text", "content") // true
//	reg.Recognized("text", "debugId") // false
//
// Registries can be loaded from YAML documents:
//
//	kinds:
//	  text: {content: string}
//	  map:  {markers: "[any]", zoom: float}
//	  view: {"*": any}
//
// The "*" entry opens a kind to every prop name. Type declarations are not used
// by the diff; Validate reports mismatches for tooling.
package schema
