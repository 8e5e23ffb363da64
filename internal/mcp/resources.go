package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kutbudev/ofocus-cli/internal/bridgeerr"
	"github.com/kutbudev/ofocus-cli/internal/models"
)

const (
	projectsURI   = "ofocus://projects"
	tagsURI       = "ofocus://tags"
	taskPrefix    = "ofocus://tasks/"
	projectPrefix = "ofocus://projects/"
)

// registerResources adds the read-only resources.
func (s *Server) registerResources() {
	s.srv.AddResource(&mcp.Resource{
		URI:         projectsURI,
		Name:        "projects",
		Description: "Active and on-hold projects",
		MIMEType:    "application/json",
	}, s.handleProjectsResource)

	s.srv.AddResource(&mcp.Resource{
		URI:         tagsURI,
		Name:        "tags",
		Description: "All tags with their hierarchy",
		MIMEType:    "application/json",
	}, s.handleTagsResource)

	s.srv.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: taskPrefix + "{id}",
		Name:        "task",
		Description: "One task with note, dates and recurrence status",
		MIMEType:    "application/json",
	}, s.handleTaskResource)

	s.srv.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: projectPrefix + "{id}",
		Name:        "project",
		Description: "One project by id or name",
		MIMEType:    "application/json",
	}, s.handleProjectResource)
}

func jsonContents(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

func (s *Server) handleProjectsResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	res, err := s.client.ListProjects(ctx, models.ProjectFilter{
		Statuses: []string{models.ProjectStatusActive, models.ProjectStatusOnHold},
	}, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return jsonContents(req.Params.URI, res.Items)
}

func (s *Server) handleTagsResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	res, err := s.client.ListTags(ctx, models.TagFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return jsonContents(req.Params.URI, res.Items)
}

func (s *Server) handleTaskResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	id := strings.TrimPrefix(req.Params.URI, taskPrefix)
	if id == "" || id == req.Params.URI {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	task, err := s.client.GetTask(ctx, id)
	if bridgeerr.HasCode(err, bridgeerr.NotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return jsonContents(req.Params.URI, task)
}

func (s *Server) handleProjectResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	id := strings.TrimPrefix(req.Params.URI, projectPrefix)
	if id == "" || id == req.Params.URI {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	p, err := s.client.ResolveProject(ctx, id)
	if bridgeerr.HasCode(err, bridgeerr.NotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return jsonContents(req.Params.URI, p)
}
