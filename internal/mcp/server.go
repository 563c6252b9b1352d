package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ombrelin/carnet/internal/journal"
	"github.com/ombrelin/carnet/internal/lifecycle"
)

// Server wraps the MCP server with a loaded journal.
type Server struct {
	journal *journal.Journal
	server  *mcp.Server
}

// NewServer creates a new carnet MCP server.
func NewServer(j *journal.Journal, version string) *Server {
	s := &Server{journal: j}

	impl := &mcp.Implementation{
		Name:    "carnet",
		Version: version,
	}

	s.server = mcp.NewServer(impl, nil)
	s.registerTools()

	return s
}

// Run starts the MCP server on stdio.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "carnet_status",
		Description: "Get the current journal state: whether a note is in progress, whether it differs from the template, the most recent archived entry, and the draft/backup counts. START HERE before starting, finishing, or reverting a note.",
	}, s.handleStatus)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "carnet_start",
		Description: "Start a new note from the template in the noting area. A note already in progress is set aside as a draft snapshot first, so nothing is lost. Safe to call at any time.",
	}, s.handleStart)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "carnet_finish",
		Description: "Archive the current note under notes/<year>/<month>/<date> and add its link to the year index. Only assets the note references are archived; the pre-edit index is backed up so the finish can be reverted. A note identical to the template is skipped without side effects.",
	}, s.handleFinish)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "carnet_revert",
		Description: "Undo the most recent finish: the archived note returns to the noting area, the year index is restored from its backup, and the archive entry is DELETED. Only entries within the freshness window (24h by default) can be reverted. " +
			"BEFORE CALLING: You MUST (1) explain to the user that the archive entry will be deleted, " +
			"(2) ask for explicit permission, (3) only then call with user_confirmed=true.",
	}, s.handleRevert)
}

// StatusArgs defines the input for carnet_status.
type StatusArgs struct{}

// StatusResult is the output of carnet_status.
type StatusResult struct {
	State       string `json:"state"`
	Changed     bool   `json:"changed"`
	LatestEntry string `json:"latest_entry,omitempty"`
	Drafts      int    `json:"drafts"`
	Backups     int    `json:"backups"`
	Message     string `json:"message,omitempty"`
}

func (s *Server) handleStatus(ctx context.Context, req *mcp.CallToolRequest, args StatusArgs) (*mcp.CallToolResult, any, error) {
	st, err := lifecycle.Report(s.journal)
	if err != nil {
		return nil, nil, fmt.Errorf("status failed: %w", err)
	}

	out := StatusResult{
		State:   st.State.String(),
		Changed: st.Changed,
		Drafts:  st.Drafts,
		Backups: st.Backups,
	}
	if st.LatestEntry != nil {
		out.LatestEntry = st.LatestEntry.Date
	} else {
		out.Message = "No archived notes yet."
	}
	return nil, out, nil
}

// StartArgs defines the input for carnet_start.
type StartArgs struct{}

// StartResult is the output of carnet_start.
type StartResult struct {
	Draft   string   `json:"draft,omitempty"`
	Copied  []string `json:"copied"`
	Message string   `json:"message"`
}

func (s *Server) handleStart(ctx context.Context, req *mcp.CallToolRequest, args StartArgs) (*mcp.CallToolResult, any, error) {
	res, err := lifecycle.Start(s.journal)
	if err != nil {
		return nil, nil, fmt.Errorf("start failed: %w", err)
	}

	out := StartResult{
		Draft:   res.DraftName,
		Copied:  res.Copied,
		Message: "Note started — the template is in noting_area/.",
	}
	if res.DraftName != "" {
		out.Message = fmt.Sprintf("Previous note set aside as draft %s; the template is in noting_area/.", res.DraftName)
	}
	return nil, out, nil
}

// FinishArgs defines the input for carnet_finish.
type FinishArgs struct{}

// FinishResult is the output of carnet_finish.
type FinishResult struct {
	Skipped       bool     `json:"skipped"`
	EntryDate     string   `json:"entry_date,omitempty"`
	EntryPath     string   `json:"entry_path,omitempty"`
	Month         string   `json:"month,omitempty"`
	Link          string   `json:"link,omitempty"`
	Summary       string   `json:"summary,omitempty"`
	Backup        string   `json:"backup,omitempty"`
	Archived      []string `json:"archived,omitempty"`
	SkippedAssets []string `json:"skipped_assets,omitempty"`
	Message       string   `json:"message"`
}

func (s *Server) handleFinish(ctx context.Context, req *mcp.CallToolRequest, args FinishArgs) (*mcp.CallToolResult, any, error) {
	res, err := lifecycle.Finish(s.journal)
	if err != nil {
		return nil, nil, fmt.Errorf("finish failed: %w", err)
	}

	if res.Skipped {
		return nil, FinishResult{
			Skipped: true,
			Message: fmt.Sprintf("Nothing to finish: %s.", res.Reason),
		}, nil
	}
	return nil, FinishResult{
		EntryDate:     res.DateKey,
		EntryPath:     res.EntryPath,
		Month:         res.MonthName,
		Link:          res.Link,
		Summary:       res.Summary,
		Backup:        res.BackupName,
		Archived:      res.Copied,
		SkippedAssets: res.SkippedAssets,
		Message:       fmt.Sprintf("Note archived under %s and linked under %s in the year index.", res.EntryPath, res.MonthName),
	}, nil
}

// RevertArgs defines the input for carnet_revert.
type RevertArgs struct {
	UserConfirmed bool `json:"user_confirmed" jsonschema:"REQUIRED. Set true ONLY after explicitly asking the user and receiving approval. You MUST explain that the archive entry will be deleted before asking."`
}

// RevertResult is the output of carnet_revert.
type RevertResult struct {
	Skipped       bool   `json:"skipped"`
	EntryDate     string `json:"entry_date,omitempty"`
	Draft         string `json:"draft,omitempty"`
	IndexRestored bool   `json:"index_restored"`
	Message       string `json:"message"`
}

func (s *Server) handleRevert(ctx context.Context, req *mcp.CallToolRequest, args RevertArgs) (*mcp.CallToolResult, any, error) {
	if !args.UserConfirmed {
		return nil, nil, fmt.Errorf("user_confirmed must be true — you must ask the user for permission before reverting, since the archive entry will be deleted")
	}

	res, err := lifecycle.Revert(s.journal)
	if err != nil {
		return nil, nil, fmt.Errorf("revert failed: %w", err)
	}

	out := RevertResult{
		Skipped:       res.Skipped,
		EntryDate:     res.EntryDate,
		Draft:         res.DraftName,
		IndexRestored: res.IndexRestored,
	}
	switch {
	case res.Skipped:
		out.Message = fmt.Sprintf("Nothing to revert: %s.", res.Reason)
	case res.IndexRestored:
		out.Message = fmt.Sprintf("Entry %s reverted into the noting area; year index restored from %s.", res.EntryDate, res.BackupName)
	default:
		out.Message = fmt.Sprintf("Entry %s reverted into the noting area. No index backup was found, so the year index was left untouched and may be out of sync.", res.EntryDate)
	}
	return nil, out, nil
}
