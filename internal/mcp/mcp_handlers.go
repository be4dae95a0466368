package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rtei-org/rtei/core"
	"github.com/rtei-org/rtei/core/mapstyle"
	"github.com/rtei-org/rtei/internal/contract"
	"github.com/rtei-org/rtei/internal/render"
	"github.com/rtei-org/rtei/schema"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	src     contract.DataSource
}

// mapStyles is the map_styles response.
type mapStyles struct {
	Code     string                 `json:"code"`
	Legend   []mapstyle.LegendEntry `json:"legend"`
	Features []schema.MapFeature    `json:"features"`
}

// formattedValue is the format_value response.
type formattedValue struct {
	Series  string              `json:"series"`
	Raw     float64             `json:"raw"`
	Display schema.DisplayValue `json:"display"`
	Text    string              `json:"text"`
}

// chartConfig applies the chart, code and country arguments to a copy of the base config.
func (h *toolHandler) chartConfig(request mcp.CallToolRequest) (*contract.Config, error) {
	cfg := h.baseCfg.Clone()
	if c := strings.ToLower(request.GetString("chart", "")); c != "" {
		cfg.ChartKey = c
	}
	if cfg.ChartKey == "" {
		cfg.ChartKey = schema.CompareChart
	}
	if !slices.Contains(cfg.ChartKeys(), cfg.ChartKey) {
		return nil, fmt.Errorf("unknown chart %q", cfg.ChartKey)
	}
	cfg.Code = strings.TrimSpace(request.GetString("code", ""))
	if cfg.Code == "" {
		return nil, fmt.Errorf("code is required")
	}
	cfg.Country = strings.ToUpper(request.GetString("country", ""))
	if cfg.ChartKey == schema.CountryChart && cfg.Country == "" {
		return nil, fmt.Errorf("country is required for the %s chart", schema.CountryChart)
	}
	return cfg, nil
}

func (h *toolHandler) handleDeriveChart(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.chartConfig(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid chart parameters: %v", err)), nil
	}
	cfg.Output = schema.JSONOut

	result, chart, err := core.GetChartResult(cfg, h.src)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("derive failed: %v", err)), nil
	}
	defer chart.Destroy()

	response := struct {
		schema.ChartResult
		Tooltips []render.TooltipRow `json:"tooltips,omitempty"`
	}{ChartResult: result}
	if c3, ok := chart.(*render.C3Chart); ok {
		response.Tooltips = c3.Document().Tooltips
	}

	jsonData, _ := json.MarshalIndent(response, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleMapStyles(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	cfg.Code = request.GetString("code", schema.OverallCode)

	features, legend, err := core.GetMapFeatures(cfg, h.src)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("map styling failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(mapStyles{Code: cfg.Code, Legend: legend, Features: features}, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleFormatValue(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.chartConfig(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid format parameters: %v", err)), nil
	}
	series := request.GetString("series", "")
	if series == "" {
		return mcp.NewToolResultError("invalid format parameters: series is required"), nil
	}
	raw := request.GetFloat("raw", 0)

	data, err := core.LoadDataset(h.src)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("format failed: %v", err)), nil
	}
	session := core.NewChartSession(cfg, data, render.C3Renderer{})
	defer session.Close()
	if _, _, err := session.Derive(cfg.ChartKey, cfg.Code, cfg.Country); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("format failed: %v", err)), nil
	}
	display, err := session.FormatValue(cfg.ChartKey, series, raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("format failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(formattedValue{Series: series, Raw: raw, Display: display, Text: display.String()}, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleGetScores(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if s := request.GetString("sort", ""); s != "" {
		cfg.SortKey = s
	}
	if cfg.SortKey == "" {
		cfg.SortKey = schema.OverallCode
	}
	cfg.Desc = request.GetBool("desc", false)
	cfg.Country = strings.ToUpper(request.GetString("country", ""))

	records, _, err := core.GetScores(cfg, h.src)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("scores failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(records, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}
