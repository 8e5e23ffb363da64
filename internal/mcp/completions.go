package mcp

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kutbudev/ofocus-cli/internal/models"
)

const maxCompletions = 20

// completionHandler provides autocomplete suggestions for prompt and resource arguments
func (s *Server) completionHandler(ctx context.Context, req *mcp.CompleteRequest) (*mcp.CompleteResult, error) {
	argName := req.Params.Argument.Name
	argValue := strings.ToLower(req.Params.Argument.Value)

	var values []string
	switch argName {
	case "project", "id":
		if req.Params.Ref != nil && req.Params.Ref.Type == "ref/resource" && strings.HasPrefix(req.Params.Ref.URI, taskPrefix) {
			break
		}
		values = s.completeProjectNames(ctx, argValue)
	case "tag", "tags", "parent":
		values = s.completeTagNames(ctx, argValue)
	case "folder":
		values = s.completeFolderNames(ctx, argValue)
	case "status":
		values = completeStaticValues(argValue, models.ProjectStatuses)
	case "task_action":
		values = completeStaticValues(argValue, []string{models.ProjectTasksKeep, models.ProjectTasksDrop, models.ProjectTasksInbox})
	case "action":
		values = completeStaticValues(argValue, []string{models.TagActionCreate, models.TagActionRename, models.TagActionDelete, models.TagActionSetParent})
	case "days":
		values = completeStaticValues(argValue, []string{"7", "14", "30", "90"})
	}
	if values == nil {
		values = []string{}
	}

	return &mcp.CompleteResult{
		Completion: mcp.CompletionResultDetails{
			Values:  values,
			Total:   len(values),
			HasMore: false,
		},
	}, nil
}

func (s *Server) completeProjectNames(ctx context.Context, prefix string) []string {
	res, err := s.client.ListProjects(ctx, models.ProjectFilter{
		Statuses: []string{models.ProjectStatusActive, models.ProjectStatusOnHold},
	}, false)
	if err != nil {
		s.logger.Debug("project completion failed", "error", err)
		return nil
	}
	names := make([]string, 0, len(res.Items))
	for _, p := range res.Items {
		names = append(names, p.Name)
	}
	return matchPrefix(prefix, names)
}

func (s *Server) completeTagNames(ctx context.Context, prefix string) []string {
	res, err := s.client.ListTags(ctx, models.TagFilter{})
	if err != nil {
		s.logger.Debug("tag completion failed", "error", err)
		return nil
	}
	names := make([]string, 0, len(res.Items))
	for _, t := range res.Items {
		names = append(names, t.Name)
	}
	return matchPrefix(prefix, names)
}

func (s *Server) completeFolderNames(ctx context.Context, prefix string) []string {
	res, err := s.client.ListFolders(ctx)
	if err != nil {
		s.logger.Debug("folder completion failed", "error", err)
		return nil
	}
	names := make([]string, 0, len(res.Items))
	for _, f := range res.Items {
		names = append(names, f.Name)
	}
	return matchPrefix(prefix, names)
}

// matchPrefix keeps names starting with prefix, case-insensitively.
func matchPrefix(prefix string, names []string) []string {
	var matches []string
	for _, name := range names {
		if prefix == "" || strings.HasPrefix(strings.ToLower(name), prefix) {
			matches = append(matches, name)
		}
		if len(matches) >= maxCompletions {
			break
		}
	}
	return matches
}

// completeStaticValues filters a fixed list by prefix
func completeStaticValues(prefix string, options []string) []string {
	return matchPrefix(prefix, options)
}
