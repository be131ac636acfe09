package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func prop(typ, description string) map[string]interface{} {
	return map[string]interface{}{"type": typ, "description": description}
}

// gridProperties are shared by variations_plan and variations_generate.
func gridProperties() map[string]interface{} {
	return map[string]interface{}{
		"input_path":       prop("string", "Absolute path to the source image"),
		"hue_count":        prop("integer", "Number of hue steps around the color wheel. Default 10"),
		"saturation_count": prop("integer", "Number of saturation levels, the last one being full saturation. Default 3"),
		"prefix":           prop("string", "Suffix of the run folder name <base>_<prefix>. Default \"variation\""),
		"label_filenames":  prop("boolean", "Append hue and saturation labels to file names, e.g. img_004_72deg_67pct.png"),
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	generate := gridProperties()
	for k, v := range map[string]interface{}{
		"output_dir":               prop("string", "Parent directory of the run folder. Defaults to the source image's directory"),
		"r_scale":                  prop("number", "Red channel strength, 0.0 to 2.0. 1.0 leaves the channel unchanged"),
		"g_scale":                  prop("number", "Green channel strength, 0.0 to 2.0"),
		"b_scale":                  prop("number", "Blue channel strength, 0.0 to 2.0"),
		"adjust_mode":              prop("string", "How channel strengths apply: \"multiplicative\" (c*s, default) or \"additive\" (c+(s-1)*255)"),
		"adjust_below":             prop("number", "Only adjust channels of variations whose saturation factor is below this value. 0 adjusts every variation"),
		"skip_gray":                prop("boolean", "Leave pixels with R == G == B unchanged"),
		"skip_near_gray_threshold": prop("integer", "Leave pixels whose channel spread is below this value unchanged. 0 disables"),
		"transparent_only":         prop("boolean", "Only change pixels with alpha below 255"),
		"opaque_only":              prop("boolean", "Only change fully opaque pixels"),
		"overwrite":                prop("boolean", "Reuse an existing run folder instead of creating <folder>_1, <folder>_2, ..."),
		"dry_run":                  prop("boolean", "Report the planned files without writing anything"),
		"save_adjusted":            prop("boolean", "Also write the source with only the channel adjustment applied"),
		"thumbnails":               prop("boolean", "Write thumbnails into the thumbnails/ subfolder. Default true"),
		"thumbnail_size":           prop("integer", "Thumbnail bounding box edge in pixels. Default 100"),
		"thumbnail_background":     prop("string", "Hex color transparent thumbnails are composited over. Default #ffffff"),
		"sidecar":                  prop("boolean", "Write processing_details.json. Default true"),
	} {
		generate[k] = v
	}

	return []Tool{
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions, format, channel count and whether it has an alpha channel.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": prop("string", "Absolute path to the image file"),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "variations_plan",
			Description: "List the variations a generation run would produce, in order, with their file names and hue/saturation parameters. Nothing is written.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": gridProperties(),
				"required":   []string{"input_path"},
			},
		},
		{
			Name:        "variations_generate",
			Description: "Start generating hue/saturation variations of an image in the background. Progress is reported with notifications/progress, log lines with notifications/message, and the outcome with notifications/variations/finished. Only one run may be active at a time.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": generate,
				"required":   []string{"input_path"},
			},
		},
		{
			Name:        "variations_cancel",
			Description: "Request cancellation of the active generation run. Variations already written are kept.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "variations_status",
			Description: "Report whether a generation run is active, its run id, progress between 0 and 1, and status.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
