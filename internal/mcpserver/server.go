// Package mcpserver exposes the scene editor as MCP tools.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/PixPMusic/nkonfig/internal/editor"
	"github.com/PixPMusic/nkonfig/internal/protocol"
	"github.com/PixPMusic/nkonfig/internal/scene"
)

// Server holds the MCP server and the editor its tools act on.
type Server struct {
	ed  *editor.Editor
	log *zap.Logger
	mcp *server.MCPServer
}

// New creates the server and registers every tool.
func New(ed *editor.Editor, log *zap.Logger, version string) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		ed:  ed,
		log: log,
		mcp: server.NewMCPServer(
			"nanoKONTROL MCP",
			version,
			server.WithToolCapabilities(false),
		),
	}

	s.mcp.AddTool(mcp.NewTool("nkonfig_detect",
		mcp.WithDescription("Searches for a connected nanoKONTROL and reports its model, channel and firmware."),
	), s.handleDetect)

	s.mcp.AddTool(mcp.NewTool("nkonfig_dump-scene",
		mcp.WithDescription("Reads the current scene from the device and returns it as JSON."),
	), s.handleDump)

	s.mcp.AddTool(mcp.NewTool("nkonfig_get-scene",
		mcp.WithDescription("Returns the scene held by the editor, including edits not yet uploaded."),
	), s.handleGetScene)

	s.mcp.AddTool(mcp.NewTool("nkonfig_get-parameter",
		mcp.WithDescription("Reads one control parameter of the editor's scene."),
		mcp.WithString("address", mcp.Required(), mcp.Description("group/control/param, e.g. 1/knob/cmd or transport/play/behaviour. Groups are numbered from 1.")),
	), s.handleGetParameter)

	s.mcp.AddTool(mcp.NewTool("nkonfig_set-parameter",
		mcp.WithDescription("Changes one control parameter and uploads the scene to the device."),
		mcp.WithString("address", mcp.Required(), mcp.Description("group/control/param, e.g. 1/knob/cmd.")),
		mcp.WithNumber("value", mcp.Required(), mcp.Description("New value (0-127; assign and behaviour have smaller ranges, see nkonfig_describe-layout).")),
	), s.handleSetParameter)

	s.mcp.AddTool(mcp.NewTool("nkonfig_write-scene",
		mcp.WithDescription("Stores the device's current scene in a scene slot."),
		mcp.WithNumber("scene", mcp.Required(), mcp.Description("Scene slot (1-4).")),
	), s.handleWriteScene)

	s.mcp.AddTool(mcp.NewTool("nkonfig_describe-layout",
		mcp.WithDescription("Returns the parameter map of a model as YAML: controls, parameters, register offsets and value limits."),
		mcp.WithString("variant", mcp.Description("nanokontrol or nanokontrol2. Defaults to the connected model.")),
	), s.handleDescribe)

	return s
}

// ServeStdio serves MCP on stdin and stdout until the client goes away.
func (s *Server) ServeStdio() error {
	s.log.Info("starting MCP server")
	return server.ServeStdio(s.mcp)
}

func (s *Server) handleDetect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.log.Debug("mcp request", zap.String("tool", "detect"))

	ev, err := s.ed.Detect(ctx)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(fmt.Sprintf("Found %s on channel %d, firmware %s.",
		ev.Variant, ev.Channel+1, ev.Version)), nil
}

func (s *Server) handleDump(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.log.Debug("mcp request", zap.String("tool", "dump-scene"))

	if err := s.ed.Dump(ctx); err != nil {
		return nil, err
	}
	return s.handleGetScene(ctx, request)
}

func (s *Server) handleGetScene(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	view, err := s.ed.Snapshot()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	asJSON, err := json.MarshalIndent(&view, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal scene to JSON: %w", err)
	}
	return mcp.NewToolResultText(string(asJSON)), nil
}

func (s *Server) handleGetParameter(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	address, err := request.RequireString("address")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	addr, err := editor.ParseAddress(s.ed.Session().Variant(), address)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	v, err := s.ed.Get(addr)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s = %d", addr, v)), nil
}

func (s *Server) handleSetParameter(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	address, err := request.RequireString("address")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	value, err := request.RequireInt("value")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if value < 0 || value > 127 {
		return mcp.NewToolResultError(fmt.Sprintf("value must be 0-127, got %d", value)), nil
	}

	s.log.Debug("mcp request", zap.String("tool", "set-parameter"),
		zap.String("address", address), zap.Int("value", value))

	addr, err := editor.ParseAddress(s.ed.Session().Variant(), address)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.ed.Set(addr, uint8(value)); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.ed.Upload(ctx); err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s set to %d and uploaded.", addr, value)), nil
}

func (s *Server) handleWriteScene(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slot, err := request.RequireInt("scene")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if slot < 1 || slot > protocol.MaxSceneIndex+1 {
		return mcp.NewToolResultError(fmt.Sprintf("scene must be 1-%d, got %d", protocol.MaxSceneIndex+1, slot)), nil
	}
	if err := s.ed.Write(ctx, slot-1); err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(fmt.Sprintf("Scene %d written.", slot)), nil
}

func (s *Server) handleDescribe(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	v := s.ed.Session().Variant()
	if name := request.GetString("variant", ""); name != "" {
		var ok bool
		if v, ok = scene.ParseVariant(name); !ok {
			return mcp.NewToolResultError(fmt.Sprintf("unknown variant %q", name)), nil
		}
	}
	if !v.Known() {
		return mcp.NewToolResultError("no model connected; pass variant"), nil
	}
	out, err := yaml.Marshal(v.Describe())
	if err != nil {
		return nil, fmt.Errorf("failed to render layout: %w", err)
	}
	return mcp.NewToolResultText(string(out)), nil
}
