// Package service wires protocol transport to the story MCP tools.
//
// It runs MCP over stdio or streamable HTTP and delegates every tool and
// resource to the domain package.
package service
