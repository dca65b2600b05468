// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Sovra vault tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/sovra/internal/index"
	"github.com/starford/sovra/internal/vaultservice"
)

// Server wraps the MCP server with Sovra tools.
type Server struct {
	mcp *server.MCPServer
	svc *vaultservice.Service
}

// New creates a new MCP server with all Sovra tools registered. Everything
// goes through the vault service, so the policy gate applies to MCP callers
// the same as to HTTP callers.
func New(svc *vaultservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Sovra",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("vault_info",
		mcp.WithDescription("Show the vault identity, policies, and usage statistics."),
	), s.vaultInfo)

	s.mcp.AddTool(mcp.NewTool("store_data",
		mcp.WithDescription("Encrypt and store text content in the vault. Returns the new record."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Content to store")),
		mcp.WithString("dataType", mcp.Required(), mcp.Description("Data type (e.g. document, training-data)")),
		mcp.WithString("name", mcp.Description("Optional display name")),
	), s.storeData)

	s.mcp.AddTool(mcp.NewTool("retrieve_data",
		mcp.WithDescription("Decrypt and return the content of one record."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Record id")),
	), s.retrieveData)

	s.mcp.AddTool(mcp.NewTool("list_data",
		mcp.WithDescription("List vault records, optionally filtered by data type."),
		mcp.WithString("dataType", mcp.Description("Optional data type filter")),
	), s.listData)

	s.mcp.AddTool(mcp.NewTool("queue_sync",
		mcp.WithDescription("Enqueue a durable job replicating one record to a network (ipfs, arweave, filecoin). "+
			"The vault's consent policies are enforced."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Record id")),
		mcp.WithString("network", mcp.Required(), mcp.Description("Target network")),
	), s.queueSync)

	s.mcp.AddTool(mcp.NewTool("process_outbox",
		mcp.WithDescription("Run one pass over all queued outbox jobs and report their states."),
	), s.processOutbox)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) vaultInfo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	vault, err := s.svc.Vault(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(vault, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) storeData(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	dataType, err := req.RequireString("dataType")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	in := vaultservice.StoreInput{Data: []byte(content), DataType: dataType}
	if name, err := req.RequireString("name"); err == nil {
		in.Metadata.Name = name
	}
	rec, err := s.svc.Store(ctx, in)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(rec, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) retrieveData(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	_, data, err := s.svc.Retrieve(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("retrieve %s: %v", id, err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) listData(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filter := index.DataFilter{}
	if dt, err := req.RequireString("dataType"); err == nil {
		filter.DataType = dt
	}
	items, err := s.svc.List(ctx, filter)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(items) == 0 {
		return mcp.NewToolResultText("vault is empty"), nil
	}

	var lines []string
	for _, rec := range items {
		lines = append(lines, fmt.Sprintf("%s  %s  %s  (%s)", rec.ID, rec.DataType, rec.Metadata.Name, rec.Visibility))
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) queueSync(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	networkName, err := req.RequireString("network")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	job, err := s.svc.QueueSync(ctx, id, networkName)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("queued job %s (%s -> %s)", job.ID, id, networkName)), nil
}

func (s *Server) processOutbox(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jobs, err := s.svc.ProcessOutbox(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(jobs) == 0 {
		return mcp.NewToolResultText("outbox is empty"), nil
	}

	var lines []string
	for _, job := range jobs {
		line := fmt.Sprintf("%s  %s  %s", job.ID, job.Type, job.Status)
		if job.Error != "" {
			line += "  " + job.Error
		}
		lines = append(lines, line)
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}
