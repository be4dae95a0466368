// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rtei-org/rtei/internal/contract"
)

// NewMCPServer initializes and configures the RTEI MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, src contract.DataSource) *server.MCPServer {
	s := server.NewMCPServer(
		"RTEI Chart Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		src:     src,
	}
	charts := baseCfg.ChartKeys()

	// --- 1. Tool: derive_chart ---
	s.AddTool(mcp.NewTool("derive_chart",
		mcp.WithDescription("Derive the chart configuration for an indicator selection and return the plotted series and values."),
		mcp.WithString("chart", mcp.Description("Chart key. Defaults to 'compare'."), mcp.Enum(charts...)),
		mcp.WithString("code", mcp.Description("Indicator code: 'index', a category like '2', a subindicator like '2.1' or a theme like 't1'."), mcp.Required()),
		mcp.WithString("country", mcp.Description("ISO2 country code, required for the 'country' chart.")),
	), h.handleDeriveChart)

	// --- 2. Tool: map_styles ---
	s.AddTool(mcp.NewTool("map_styles",
		mcp.WithDescription("Style every country of the map for an indicator: fill color, popup and legend."),
		mcp.WithString("code", mcp.Description("Indicator code. Defaults to 'index'.")),
	), h.handleMapStyles)

	// --- 3. Tool: format_value ---
	s.AddTool(mcp.NewTool("format_value",
		mcp.WithDescription("Format a raw chart value the way the chart tooltip shows it."),
		mcp.WithString("chart", mcp.Description("Chart key. Defaults to 'compare'."), mcp.Enum(charts...)),
		mcp.WithString("code", mcp.Description("Indicator selection the chart shows."), mcp.Required()),
		mcp.WithString("series", mcp.Description("Series identifier the value belongs to."), mcp.Required()),
		mcp.WithNumber("raw", mcp.Description("Raw value as plotted."), mcp.Required()),
		mcp.WithString("country", mcp.Description("ISO2 country code, required for the 'country' chart.")),
	), h.handleFormatValue)

	// --- 4. Tool: get_scores ---
	s.AddTool(mcp.NewTool("get_scores",
		mcp.WithDescription("List per-country scores sorted by an indicator code or by name."),
		mcp.WithString("sort", mcp.Description("Indicator code or 'name'. Defaults to 'index'.")),
		mcp.WithBoolean("desc", mcp.Description("Sort in descending order.")),
		mcp.WithString("country", mcp.Description("ISO2 country code to return a single country.")),
	), h.handleGetScores)

	return s
}

// StartMCPServer starts the RTEI MCP server.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, src contract.DataSource) error {
	s := NewMCPServer(baseCfg, src)
	return server.ServeStdio(s)
}
