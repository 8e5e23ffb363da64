package api

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/kutbudev/ofocus-cli/internal/bridgeerr"
	"github.com/kutbudev/ofocus-cli/internal/models"
)

// AutoResolveThreshold is the match confidence above which a project name is
// resolved without asking.
const AutoResolveThreshold = 0.85

var nonWordRe = regexp.MustCompile(`[^a-z0-9\s]`)

// tokenize splits text into lowercase words of two or more characters.
func tokenize(text string) map[string]struct{} {
	words := strings.Fields(nonWordRe.ReplaceAllString(strings.ToLower(text), " "))
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		if len(w) > 1 {
			set[w] = struct{}{}
		}
	}
	return set
}

// JaccardSimilarity is the word-set overlap of a and b, from 0 to 1.
func JaccardSimilarity(a, b string) float64 {
	setA, setB := tokenize(a), tokenize(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	inter := 0
	for w := range setA {
		if _, ok := setB[w]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// normalizeForMatch drops case and separators: "Home-Office" and "home office"
// both become "homeoffice".
func normalizeForMatch(s string) string {
	return strings.NewReplacer(" ", "", "-", "", "_", "", ".", "").Replace(strings.ToLower(s))
}

// ProjectMatch is a fuzzy match candidate.
type ProjectMatch struct {
	Project    models.Project `json:"project"`
	Confidence float64        `json:"confidence"`
	MatchType  string         `json:"matchType"`
}

// MatchProjects ranks projects against input, best first. Inputs shorter than
// four characters only match exactly.
func MatchProjects(projects []models.Project, input string) []ProjectMatch {
	input = strings.TrimSpace(input)
	norm := normalizeForMatch(input)
	if norm == "" {
		return nil
	}
	var matches []ProjectMatch
	for _, p := range projects {
		pn := normalizeForMatch(p.Name)
		if pn == "" {
			continue
		}
		if pn == norm {
			matches = append(matches, ProjectMatch{Project: p, Confidence: 0.95, MatchType: "normalized"})
			continue
		}
		if len(norm) < 4 {
			continue
		}
		switch {
		case strings.HasPrefix(pn, norm) || strings.HasPrefix(norm, pn):
			matches = append(matches, ProjectMatch{Project: p, Confidence: 0.60 + coverage(norm, pn)*0.25, MatchType: "prefix"})
		case strings.Contains(pn, norm) || strings.Contains(norm, pn):
			matches = append(matches, ProjectMatch{Project: p, Confidence: 0.55 + coverage(norm, pn)*0.20, MatchType: "contains"})
		default:
			if j := JaccardSimilarity(input, p.Name); j >= 0.5 {
				matches = append(matches, ProjectMatch{Project: p, Confidence: 0.5 + j*0.4, MatchType: "words"})
			}
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})
	return matches
}

func coverage(a, b string) float64 {
	short, long := len(a), len(b)
	if short > long {
		short, long = long, short
	}
	return float64(short) / float64(long)
}

// ResolveProject finds a project by id, exact name, or a confident fuzzy
// match. Ambiguous or unknown names fail with the candidates attached.
func (c *Client) ResolveProject(ctx context.Context, nameOrID string) (*models.Project, error) {
	ref := strings.TrimSpace(nameOrID)
	if ref == "" {
		return nil, bridgeerr.New(bridgeerr.MissingRequiredField, "project is required").
			WithDetails(map[string]any{"field": "project"})
	}
	list, err := c.ListProjects(ctx, models.ProjectFilter{}, false)
	if err != nil {
		return nil, err
	}
	for i, p := range list.Items {
		if p.ID == ref {
			return &list.Items[i], nil
		}
	}
	var exact []models.Project
	for _, p := range list.Items {
		if strings.EqualFold(p.Name, ref) {
			exact = append(exact, p)
		}
	}
	if len(exact) == 1 {
		return &exact[0], nil
	}
	if len(exact) > 1 {
		return nil, ambiguous(ref, exact)
	}

	matches := MatchProjects(list.Items, ref)
	if len(matches) > 0 && matches[0].Confidence >= AutoResolveThreshold &&
		(len(matches) == 1 || matches[1].Confidence < AutoResolveThreshold) {
		c.logger.Debug("resolved project by fuzzy match", "input", ref, "project", matches[0].Project.Name, "type", matches[0].MatchType)
		return &matches[0].Project, nil
	}
	nfErr := bridgeerr.Newf(bridgeerr.NotFound, "project not found: %s", ref)
	if len(matches) > 0 {
		names := make([]string, 0, 3)
		for _, m := range matches {
			if len(names) == 3 {
				break
			}
			names = append(names, m.Project.Name)
		}
		return nil, nfErr.WithSuggestion("did you mean " + strings.Join(names, ", ") + "?").
			WithDetails(map[string]any{"candidates": names})
	}
	return nil, nfErr.WithSuggestion("run list_projects to see project names")
}

func ambiguous(ref string, ps []models.Project) error {
	ids := make([]string, len(ps))
	for i, p := range ps {
		ids[i] = p.ID
	}
	return bridgeerr.Newf(bridgeerr.InvalidValue, "project name %q is ambiguous", ref).
		WithSuggestion("pass the project id instead").
		WithDetails(map[string]any{"ids": ids})
}
