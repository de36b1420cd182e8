package handlers

import (
	"context"
	"io"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

const ServerName = "indra-cogex"

// NewServer registers the catalogue tools and cache_status on a new MCP server.
func NewServer(version string, h *Handlers) *server.MCPServer {
	s := server.NewMCPServer(
		ServerName,
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	for _, tool := range Catalog() {
		s.AddTool(toolSchema(tool), h.Query(tool))
	}

	s.AddTool(mcp.NewTool("cache_status",
		mcp.WithDescription("Show result cache statistics: hit rate, evictions, TTL expirations, hot keys and memory estimate"),
		mcp.WithBoolean("reset",
			mcp.Description("Reset the counters after reporting (default: false)"),
		),
		mcp.WithNumber("top",
			mcp.Description("Number of most accessed keys to list (default: 10)"),
		),
		responseFormatOption(),
	), h.CacheStatus)

	return s
}

func toolSchema(tool Tool) mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(tool.Description + modeHelp(tool)),
		mcp.WithString("mode",
			mcp.Required(),
			mcp.Description("Query to run"),
			mcp.Enum(tool.ModeNames()...),
		),
		mcp.WithString("entity",
			mcp.Required(),
			mcp.Description(tool.EntityHint),
		),
	}
	if tool.NeedsTarget() {
		opts = append(opts, mcp.WithString("target",
			mcp.Required(),
			mcp.Description("Second entity CURIE"),
		))
	} else {
		opts = append(opts,
			mcp.WithNumber("offset",
				mcp.Description("Results to skip (default: 0)"),
			),
			mcp.WithNumber("limit",
				mcp.Description("Results per page (default: 20, max: 100)"),
			),
		)
	}
	opts = append(opts, responseFormatOption())
	return mcp.NewTool(tool.Name, opts...)
}

func responseFormatOption() mcp.ToolOption {
	return mcp.WithString("response_format",
		mcp.Description("Output format (default: markdown)"),
		mcp.Enum("markdown", "json"),
	)
}

func modeHelp(tool Tool) string {
	help := " Modes:"
	for _, m := range tool.Modes {
		help += " " + m.Name + " (" + m.Description + ");"
	}
	return help
}

// Serve runs the server over stdio until ctx ends or stdin closes.
func Serve(ctx context.Context, s *server.MCPServer, in io.Reader, out io.Writer, logger *zap.Logger) error {
	stdio := server.NewStdioServer(s)
	stdio.SetErrorLogger(zap.NewStdLog(logger))
	return stdio.Listen(ctx, in, out)
}
