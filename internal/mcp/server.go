// Package mcp exposes the extraction service as MCP tools.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/a3tai/goodnotes-pdf/internal/config"
	"github.com/a3tai/goodnotes-pdf/internal/descriptions"
	apperrors "github.com/a3tai/goodnotes-pdf/internal/errors"
	"github.com/a3tai/goodnotes-pdf/internal/extract"
	"github.com/a3tai/goodnotes-pdf/internal/pipeline"
	"github.com/a3tai/goodnotes-pdf/internal/security"
)

// Tool names
const (
	ToolExtractPDFs     = "goodnotes_extract_pdfs"
	ToolListAttachments = "goodnotes_list_attachments"
	ToolServerInfo      = "goodnotes_server_info"
)

// ArchiveExt is the extension of GoodNotes exports listed by the server info tool
const ArchiveExt = ".goodnotes"

// maxListedArchives limits the directory listing in the server info response
const maxListedArchives = 10

// toolInfo describes a registered tool in the server info response
type toolInfo struct {
	Name       string
	Summary    string
	Parameters string
}

var tools = []toolInfo{
	{
		Name:       ToolExtractPDFs,
		Summary:    "Extract the PDF attachments of an export and build merged.pdf",
		Parameters: "path (required), output_dir (optional), merge (optional, default true)",
	},
	{
		Name:       ToolListAttachments,
		Summary:    "List attachments, their PDF classification and the extraction order",
		Parameters: "path (required)",
	},
	{
		Name:       ToolServerInfo,
		Summary:    "Server information, root directory and available tools",
		Parameters: "none",
	},
}

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	fs        afero.Fs
	service   *extract.Service
	validator *security.PathValidator
	mcpServer *server.MCPServer
	logger    *logrus.Logger
}

// NewServer creates a new MCP server instance. Every path a client sends is
// confined to cfg.Directory.
func NewServer(cfg *config.Config, fs afero.Fs, logger *logrus.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if fs == nil {
		return nil, fmt.Errorf("filesystem cannot be nil")
	}

	validator, err := security.NewPathValidator(cfg.Directory)
	if err != nil {
		return nil, fmt.Errorf("invalid root directory: %w", err)
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s := &Server{
		config:    cfg,
		fs:        fs,
		service:   extract.NewService(fs, cfg, logger),
		validator: validator,
		mcpServer: mcpServer,
		logger:    logger,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	extractTool := mcp.NewTool(
		ToolExtractPDFs,
		mcp.WithDescription(descriptions.ExtractPDFsDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the .goodnotes export, absolute or relative to the root directory"),
		),
		mcp.WithString("output_dir",
			mcp.Description("Directory for the extracted PDFs (default: a folder named after the export, next to it)"),
		),
		mcp.WithBoolean("merge",
			mcp.Description("Build merged.pdf when the export holds two or more PDFs"),
			mcp.DefaultBool(true),
		),
	)
	s.mcpServer.AddTool(extractTool, s.handleExtractPDFs)

	listTool := mcp.NewTool(
		ToolListAttachments,
		mcp.WithDescription(descriptions.ListAttachmentsDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the .goodnotes export, absolute or relative to the root directory"),
		),
	)
	s.mcpServer.AddTool(listTool, s.handleListAttachments)

	infoTool := mcp.NewTool(
		ToolServerInfo,
		mcp.WithDescription(descriptions.ServerInfoDescription),
	)
	s.mcpServer.AddTool(infoTool, s.handleServerInfo)
}

// Handler functions
func (s *Server) handleExtractPDFs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	archivePath, err := s.validator.SanitizePath(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	outputDir := extract.DefaultOutputDir(archivePath)
	if dir := request.GetString("output_dir", ""); dir != "" {
		outputDir, err = s.validator.SanitizePath(dir)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := s.validator.ValidateDirectory(outputDir); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	report, err := s.service.Extract(ctx, extract.Request{
		Archive:   archivePath,
		OutputDir: outputDir,
		Merge:     request.GetBool("merge", s.config.Merge),
	}, nil)
	if err != nil {
		return toolError(err, true), nil
	}

	return mcp.NewToolResultText(s.formatExtractReport(report)), nil
}

func (s *Server) handleListAttachments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	archivePath, err := s.validator.SanitizePath(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.Inspect(ctx, archivePath)
	if err != nil {
		return toolError(err, false), nil
	}

	return mcp.NewToolResultText(s.formatInspection(archivePath, result)), nil
}

func (s *Server) handleServerInfo(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	archives, err := s.listArchives()
	if err != nil {
		s.logger.WithError(err).Warn("Cannot list root directory")
	}
	return mcp.NewToolResultText(s.formatServerInfo(archives)), nil
}

// toolError reports a failed extraction or inspection. Classified errors get
// the suggestion for their type and, for a fatal error of a writing call,
// the note that no file was written.
func toolError(err error, writes bool) *mcp.CallToolResult {
	et := apperrors.TypeOf(err)
	if et == apperrors.ErrorTypeUnknown {
		return mcp.NewToolResultError(err.Error())
	}

	var b strings.Builder
	b.WriteString(err.Error())
	if hint := et.Hint(); hint != "" {
		fmt.Fprintf(&b, "\nHint: %s", hint)
	}
	if writes && et.IsFatal() {
		b.WriteString("\nNo files were written.")
	}
	return mcp.NewToolResultError(b.String())
}

// listArchives returns the exports directly inside the root directory
func (s *Server) listArchives() ([]string, error) {
	infos, err := afero.ReadDir(s.fs, s.validator.Root())
	if err != nil {
		return nil, err
	}

	var names []string
	for _, info := range infos {
		if info.IsDir() || !strings.EqualFold(filepath.Ext(info.Name()), ArchiveExt) {
			continue
		}
		names = append(names, info.Name())
	}
	sort.Strings(names)
	return names, nil
}

func (s *Server) formatExtractReport(report *extract.Report) string {
	result := report.Result

	var b strings.Builder
	fmt.Fprintf(&b, "Extracted %d PDF(s) from %s\n", len(result.Outputs), report.Archive)
	fmt.Fprintf(&b, "Output directory: %s\n", report.Written.Directory)
	fmt.Fprintf(&b, "Order: %s\n", result.OrderSource)

	b.WriteString("\nFiles:\n")
	for _, o := range result.Outputs {
		fmt.Fprintf(&b, "  • %s (%d pages, %d bytes) from %s\n", o.Name, o.Pages, o.Size, o.Source)
	}
	if result.Merged != nil {
		fmt.Fprintf(&b, "  • %s (%d pages, %d bytes)\n", result.Merged.Name, result.Merged.Pages, result.Merged.Size)
	}

	if result.MergeError != nil {
		fmt.Fprintf(&b, "\nMerge failed: %v\nThe individual PDFs above were still written.\n", result.MergeError)
	}
	if len(result.Skipped) > 0 {
		fmt.Fprintf(&b, "\nSkipped %d non-PDF attachment(s)\n", len(result.Skipped))
	}
	if len(result.Unmatched) > 0 {
		fmt.Fprintf(&b, "Index entries without a PDF: %s\n", strings.Join(result.Unmatched, ", "))
	}
	if len(result.Unindexed) > 0 {
		fmt.Fprintf(&b, "PDFs missing from the index, placed last: %s\n", strings.Join(result.Unindexed, ", "))
	}
	if report.Written.Manifest != "" {
		fmt.Fprintf(&b, "Manifest: %s\n", report.Written.Manifest)
	}

	return b.String()
}

func (s *Server) formatInspection(archivePath string, result *pipeline.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Attachments in %s (%d entries)\n", archivePath, len(result.Entries))
	for _, e := range result.Entries {
		kind := "skipped"
		if e.IsPDF {
			kind = "PDF"
		}
		fmt.Fprintf(&b, "  • %s (%d bytes) %s\n", e.Path, e.Size, kind)
	}

	fmt.Fprintf(&b, "\nExtraction order (%s, %d index path(s)):\n", result.OrderSource, result.IndexPaths)
	for i, o := range result.Outputs {
		fmt.Fprintf(&b, "  %d. %s -> %s (%d pages)\n", i+1, o.Source, o.Name, o.Pages)
	}
	if len(result.Outputs) > 1 {
		fmt.Fprintf(&b, "\nmerged.pdf would combine all %d documents in this order.\n", len(result.Outputs))
	}
	if len(result.Unmatched) > 0 {
		fmt.Fprintf(&b, "Index entries without a PDF: %s\n", strings.Join(result.Unmatched, ", "))
	}
	if len(result.Unindexed) > 0 {
		fmt.Fprintf(&b, "PDFs missing from the index, placed last: %s\n", strings.Join(result.Unindexed, ", "))
	}

	return b.String()
}

func (s *Server) formatServerInfo(archives []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s v%s - Server Information\n", s.config.ServerName, s.config.Version)
	fmt.Fprintf(&b, "Root Directory: %s\n", s.validator.Root())
	fmt.Fprintf(&b, "Max Archive Size: %d MB\n", s.config.MaxArchiveSize/(1024*1024))
	fmt.Fprintf(&b, "Merge By Default: %t\n\n", s.config.Merge)

	if len(archives) > 0 {
		fmt.Fprintf(&b, "Exports (%d found):\n", len(archives))
		for i, name := range archives {
			if i >= maxListedArchives {
				fmt.Fprintf(&b, "   ... and %d more\n", len(archives)-maxListedArchives)
				break
			}
			fmt.Fprintf(&b, "   %d. %s\n", i+1, name)
		}
	} else {
		b.WriteString("Exports: no .goodnotes files in the root directory\n")
	}

	b.WriteString("\nAvailable Tools:\n")
	for _, t := range tools {
		fmt.Fprintf(&b, "\n• %s\n", t.Name)
		fmt.Fprintf(&b, "  Description: %s\n", t.Summary)
		fmt.Fprintf(&b, "  Parameters: %s\n", t.Parameters)
	}

	return b.String()
}

// Run serves MCP over stdio until in is closed or ctx is cancelled
func (s *Server) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	s.logger.WithField("root", s.validator.Root()).Debug("Starting GoodNotes MCP server in stdio mode")

	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(log.New(s.logger.WriterLevel(logrus.ErrorLevel), "", 0))

	if err := stdio.Listen(ctx, in, out); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
