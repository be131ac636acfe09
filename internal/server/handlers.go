package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ironsheep/color-variations/internal/config"
	"github.com/ironsheep/color-variations/internal/imaging"
	"github.com/ironsheep/color-variations/internal/output"
	"github.com/ironsheep/color-variations/internal/variation"
)

// Notification methods sent while a generation run is active.
const (
	MethodProgress = "notifications/progress"
	MethodMessage  = "notifications/message"
	MethodFinished = "notifications/variations/finished"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "variations_generate").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "image_load":
		return s.handleImageLoad(args)
	case "variations_plan":
		return s.handleVariationsPlan(args)
	case "variations_generate":
		return s.handleVariationsGenerate(args)
	case "variations_cancel":
		return s.handleVariationsCancel()
	case "variations_status":
		return s.runner.Status(), nil
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeSettings overlays tool arguments on the default settings. Unknown
// keys are rejected so misspelled options do not silently fall back.
func decodeSettings(args json.RawMessage) (config.Settings, error) {
	s := config.Defaults()
	if len(bytes.TrimSpace(args)) == 0 {
		return s, nil
	}
	dec := json.NewDecoder(bytes.NewReader(args))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return s, fmt.Errorf("invalid arguments: %w", err)
	}
	if err := s.ExpandPaths(); err != nil {
		return s, err
	}
	return s, nil
}

// === Image Information ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.Describe(s.cache, a.Path)
}

// === Variation Planning ===

// PlannedVariation is one entry of a variations_plan result.
type PlannedVariation struct {
	Index            int     `json:"index"`
	File             string  `json:"file"`
	Hue              string  `json:"hue"`
	Saturation       string  `json:"saturation"`
	HueDegrees       float64 `json:"hue_degrees"`
	SaturationFactor float64 `json:"saturation_factor"`
}

// PlanResult is the variations_plan result.
type PlanResult struct {
	Total      int                `json:"total"`
	HueCount   int                `json:"hue_count"`
	SatCount   int                `json:"saturation_count"`
	Warnings   []string           `json:"warnings,omitempty"`
	Variations []PlannedVariation `json:"variations"`
}

func (s *Server) handleVariationsPlan(args json.RawMessage) (interface{}, error) {
	settings, err := decodeSettings(args)
	if err != nil {
		return nil, err
	}
	if settings.InputPath == "" {
		return nil, fmt.Errorf("input_path is required")
	}
	cfg, warnings, err := settings.Build()
	if err != nil {
		return nil, err
	}
	cfg, more, err := cfg.Normalize()
	warnings = append(warnings, more...)
	if err != nil {
		return nil, err
	}

	base := output.BaseName(settings.InputPath)
	w := output.NewWriter("", base, output.Options{LabelFilenames: cfg.LabelFilenames})

	res := &PlanResult{
		Total:    cfg.Total(),
		HueCount: cfg.HueCount,
		SatCount: cfg.SatCount,
		Warnings: warnings,
	}
	for _, p := range variation.Plan(cfg.HueCount, cfg.SatCount) {
		res.Variations = append(res.Variations, PlannedVariation{
			Index:            p.Index,
			File:             w.FileName(p.Index, p.HueLabel, p.SatLabel),
			Hue:              p.HueLabel,
			Saturation:       p.SatLabel,
			HueDegrees:       p.HueDegrees,
			SaturationFactor: p.SaturationFactor,
		})
	}
	return res, nil
}

// === Variation Generation ===

// GenerateResult is the variations_generate result. The run continues in the
// background after it is returned.
type GenerateResult struct {
	RunID    string   `json:"run_id"`
	Started  bool     `json:"started"`
	Total    int      `json:"total"`
	Warnings []string `json:"warnings,omitempty"`
}

func (s *Server) handleVariationsGenerate(args json.RawMessage) (interface{}, error) {
	settings, err := decodeSettings(args)
	if err != nil {
		return nil, err
	}
	if settings.InputPath == "" {
		return nil, fmt.Errorf("input_path is required")
	}
	cfg, warnings, err := settings.Build()
	if err != nil {
		return nil, err
	}
	normalized, more, err := cfg.Normalize()
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, more...)

	src, err := s.cache.Load(settings.InputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}

	events, err := s.runner.Start(s.ctx, variation.Job{
		Source:     src,
		SourcePath: settings.InputPath,
		Config:     cfg,
	})
	if errors.Is(err, variation.ErrRunActive) {
		s.log.Warn("Generation request ignored, a run is already active")
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	st := s.runner.Status()
	s.log.Info("Generation started",
		zap.String("run_id", st.RunID),
		zap.String("input", settings.InputPath))

	s.pending.Add(1)
	go s.forward(st.RunID, events)

	return &GenerateResult{RunID: st.RunID, Started: true, Total: normalized.Total(), Warnings: warnings}, nil
}

func (s *Server) handleVariationsCancel() (interface{}, error) {
	cancelled := s.runner.Cancel()
	return map[string]interface{}{"cancelled": cancelled}, nil
}

// forward relays run events to the client as notifications until the run's
// terminal event.
func (s *Server) forward(runID string, events <-chan variation.Event) {
	defer s.pending.Done()

	for ev := range events {
		switch ev.Kind {
		case variation.EventLog:
			s.logEvent(ev)
			s.notify(MethodMessage, map[string]interface{}{
				"level":  mcpLevel(ev.Level),
				"logger": "colorvar",
				"data":   ev.Message,
			})

		case variation.EventProgress:
			s.notify(MethodProgress, map[string]interface{}{
				"progressToken": runID,
				"progress":      ev.Progress,
				"total":         1.0,
			})

		case variation.EventVariation:
			s.log.Debug(ev.Message, zap.String("run_id", runID))
			s.notify(MethodMessage, map[string]interface{}{
				"level":  mcpLevel(zapcore.DebugLevel),
				"logger": "colorvar",
				"data": map[string]interface{}{
					"message":   ev.Message,
					"index":     ev.Variation.Param.Index,
					"path":      ev.Variation.Path,
					"thumbnail": ev.Variation.ThumbnailPath,
				},
			})

		case variation.EventDone:
			s.logEvent(ev)
			s.notify(MethodFinished, map[string]interface{}{
				"run_id":  runID,
				"status":  ev.Summary.Status,
				"summary": ev.Summary,
			})

		case variation.EventFailed:
			s.log.Error("Generation failed", zap.String("run_id", runID), zap.Error(ev.Err))
			s.notify(MethodFinished, map[string]interface{}{
				"run_id": runID,
				"status": variation.StatusFailed,
				"error":  ev.Err,
			})
		}
	}
}

func (s *Server) logEvent(ev variation.Event) {
	if ce := s.log.Check(ev.Level, ev.Message); ce != nil {
		ce.Write()
	}
}

// mcpLevel maps a zap level to an MCP logging level name.
func mcpLevel(l zapcore.Level) string {
	switch {
	case l <= zapcore.DebugLevel:
		return "debug"
	case l == zapcore.InfoLevel:
		return "info"
	case l == zapcore.WarnLevel:
		return "warning"
	default:
		return "error"
	}
}

