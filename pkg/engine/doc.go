// Package engine implements the storefront's orchestration logic. The
// Engine implements transport.Storefront, bridging the HTTP and MCP
// surfaces to the assistant, the contact dispatcher, the catalog and the
// store. Optional capabilities (storage) use nil-safe composition for
// graceful degradation.
package engine
