// Package mcp exposes the render pipeline to MCP clients: diffing and
// partitioning of trees passed as documents, and, when a page service is
// configured, page creation and updates.
package mcp
