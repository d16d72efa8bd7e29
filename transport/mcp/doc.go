// Package mcp exposes the game over the Model Context Protocol. The tools
// are read-mostly and proxy the REST API rather than touching the service
// directly, so an MCP host sees the same view as any other API consumer.
package mcp
