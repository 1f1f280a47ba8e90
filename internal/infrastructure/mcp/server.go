// Package mcp exposes the scheduling engine to MCP clients over stdio.
package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/felixgeelhaar/crewsched/internal/application"
	"github.com/felixgeelhaar/crewsched/internal/domain/conflict"
	"github.com/felixgeelhaar/crewsched/internal/domain/schedule"
	"github.com/felixgeelhaar/crewsched/internal/infrastructure/wiring"
)

var (
	Version     = "dev"
	BuildCommit = "unknown"
	BuildDate   = "unknown"
)

// Server wires the application services behind MCP tools.
type Server struct {
	mcpServer   *mcp.Server
	scheduleSvc *application.ScheduleService
	conflictSvc *application.ConflictService
	resolveSvc  *application.ResolutionService
	capacitySvc *application.CapacityService
	root        string
}

// mcpErr returns a user-friendly error for MCP clients without leaking
// internal detail.
func mcpErr(friendly string) error {
	return fmt.Errorf("%s", friendly)
}

func NewServer(root string) (*Server, error) {
	services, err := wiring.BuildAppServices(root)
	if err != nil {
		return nil, fmt.Errorf("build services: %w", err)
	}

	info := mcp.ServerInfo{
		Name:    "crewsched",
		Version: Version,
	}

	s := &Server{
		mcpServer: mcp.NewServer(info,
			mcp.WithTitle("Crewsched MCP Server"),
			mcp.WithDescription("Crewsched exposes crew schedule validation, conflict scans, and resolution suggestions to MCP clients."),
			mcp.WithWebsiteURL("https://github.com/felixgeelhaar/crewsched"),
			mcp.WithBuildInfo(BuildCommit, BuildDate),
			mcp.WithInstructions("Use tools to validate assignments before making them, scan for conflicts, and apply ranked resolutions."),
		),
		scheduleSvc: services.Schedule,
		conflictSvc: services.Conflicts,
		resolveSvc:  services.Resolution,
		capacitySvc: services.Capacity,
		root:        root,
	}

	s.registerTools()
	return s, nil
}

type ValidateAssignmentArgs struct {
	PhaseID    string  `json:"phase_id" jsonschema:"description=Phase to assign to"`
	EmployeeID string  `json:"employee_id" jsonschema:"description=Employee to assign"`
	Date       string  `json:"date" jsonschema:"description=Assignment date (YYYY-MM-DD)"`
	Hours      float64 `json:"hours" jsonschema:"description=Hours to allocate"`
}

type SuggestArgs struct {
	ConflictID string `json:"conflict_id" jsonschema:"description=Conflict ID from crewsched_scan"`
}

type ApplyArgs struct {
	ConflictID string `json:"conflict_id" jsonschema:"description=Conflict ID from crewsched_scan"`
	Suggestion int    `json:"suggestion" jsonschema:"description=1-based suggestion rank from crewsched_suggest"`
}

type CriticalPathArgs struct {
	ProjectID string `json:"project_id" jsonschema:"description=Project to analyze"`
}

type ForecastArgs struct {
	Division string `json:"division" jsonschema:"description=Division (e.g. plumbing_multifamily)"`
	From     string `json:"from" jsonschema:"description=Window start (YYYY-MM-DD)"`
	To       string `json:"to" jsonschema:"description=Window end (YYYY-MM-DD)"`
}

func (s *Server) registerTools() {
	s.mcpServer.Tool("crewsched_validate_assignment").
		Description("Check a proposed assignment for conflicts before committing it").
		Handler(s.handleValidateAssignment)

	s.mcpServer.Tool("crewsched_scan").
		Description("Sweep all active projects for scheduling conflicts").
		Handler(s.handleScan)

	s.mcpServer.Tool("crewsched_suggest").
		Description("Rank resolution suggestions for a detected conflict").
		Handler(s.handleSuggest)

	s.mcpServer.Tool("crewsched_apply").
		Description("Apply an auto-applicable resolution suggestion in one transaction").
		Handler(s.handleApply)

	s.mcpServer.Tool("crewsched_critical_path").
		Description("Compute the critical path through a project's phase dependency graph").
		Handler(s.handleCriticalPath)

	s.mcpServer.Tool("crewsched_forecast").
		Description("Forecast monthly division capacity over a date window").
		Handler(s.handleForecast)
}

func (s *Server) handleValidateAssignment(ctx context.Context, args ValidateAssignmentArgs) (any, error) {
	date, err := time.Parse("2006-01-02", args.Date)
	if err != nil {
		return nil, mcpErr("Invalid date. Use YYYY-MM-DD.")
	}
	result, err := s.scheduleSvc.ValidateAssignment(ctx, args.PhaseID, args.EmployeeID, date, args.Hours)
	if err != nil {
		return nil, mcpErr(fmt.Sprintf("Validation failed: %v", err))
	}
	return result, nil
}

func (s *Server) handleScan(ctx context.Context, args struct{}) (any, error) {
	conflicts, err := s.conflictSvc.ScanAll(ctx)
	if err != nil {
		return nil, mcpErr("Conflict scan failed. Check that the database is reachable.")
	}
	return map[string]any{
		"count":     len(conflicts),
		"conflicts": conflicts,
	}, nil
}

func (s *Server) findConflict(ctx context.Context, id string) (conflict.Conflict, error) {
	conflicts, err := s.conflictSvc.ScanAll(ctx)
	if err != nil {
		return conflict.Conflict{}, mcpErr("Conflict scan failed. Check that the database is reachable.")
	}
	for _, c := range conflicts {
		if c.ID == id {
			return c, nil
		}
	}
	return conflict.Conflict{}, mcpErr("Unknown conflict ID. Run crewsched_scan for current IDs.")
}

func (s *Server) handleSuggest(ctx context.Context, args SuggestArgs) (any, error) {
	c, err := s.findConflict(ctx, args.ConflictID)
	if err != nil {
		return nil, err
	}
	suggestions, err := s.resolveSvc.Suggestions(ctx, c)
	if err != nil {
		return nil, mcpErr(fmt.Sprintf("Suggestion generation failed: %v", err))
	}
	return map[string]any{
		"conflict":    c,
		"suggestions": suggestions,
	}, nil
}

func (s *Server) handleApply(ctx context.Context, args ApplyArgs) (any, error) {
	c, err := s.findConflict(ctx, args.ConflictID)
	if err != nil {
		return nil, err
	}
	suggestions, err := s.resolveSvc.Suggestions(ctx, c)
	if err != nil {
		return nil, mcpErr(fmt.Sprintf("Suggestion generation failed: %v", err))
	}
	if args.Suggestion < 1 || args.Suggestion > len(suggestions) {
		return nil, mcpErr(fmt.Sprintf("Suggestion rank out of range (1-%d).", len(suggestions)))
	}
	result := s.resolveSvc.Apply(ctx, suggestions[args.Suggestion-1])
	if !result.Success {
		return nil, mcpErr(fmt.Sprintf("Apply failed: %s", result.Error))
	}
	s.conflictSvc.InvalidateScan()
	return map[string]any{"applied": true}, nil
}

func (s *Server) handleCriticalPath(ctx context.Context, args CriticalPathArgs) (any, error) {
	nodes, err := s.scheduleSvc.CriticalPath(ctx, args.ProjectID)
	if err != nil {
		return nil, mcpErr(fmt.Sprintf("Critical path failed: %v", err))
	}
	return nodes, nil
}

func (s *Server) handleForecast(ctx context.Context, args ForecastArgs) (any, error) {
	from, err := time.Parse("2006-01-02", args.From)
	if err != nil {
		return nil, mcpErr("Invalid from date. Use YYYY-MM-DD.")
	}
	to, err := time.Parse("2006-01-02", args.To)
	if err != nil {
		return nil, mcpErr("Invalid to date. Use YYYY-MM-DD.")
	}
	windows, err := s.capacitySvc.Forecast(ctx, schedule.Division(args.Division), from, to)
	if err != nil {
		return nil, mcpErr(fmt.Sprintf("Forecast failed: %v", err))
	}
	return windows, nil
}

// ServeStdio runs the server over stdin/stdout until the context ends.
func (s *Server) ServeStdio(ctx context.Context) error {
	return mcp.ServeStdio(ctx, s.mcpServer)
}
