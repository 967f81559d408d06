package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"recruit-backend/internal/cvanalysis"
)

type tools struct {
	holder *cvanalysis.Holder
}

func registerTools(s *server.MCPServer, holder *cvanalysis.Holder) {
	t := tools{holder: holder}

	analyze := mcp.NewTool("analyze_cv_text",
		mcp.WithDescription("Analyze CV text: domain, quality score, skills, years of experience"),
	)
	analyze.InputSchema = mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"text": map[string]interface{}{"type": "string", "description": "Plain text of the CV"},
		},
		Required: []string{"text"},
	}
	s.AddTool(analyze, t.analyzeCVText)

	match := mcp.NewTool("job_match_score",
		mcp.WithDescription("Score a CV against a job on a 0-100 scale (skills, experience, keywords)"),
	)
	match.InputSchema = mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"cv_text":             map[string]interface{}{"type": "string", "description": "Plain text of the CV"},
			"job_title":           map[string]interface{}{"type": "string", "description": "Job title"},
			"job_description":     map[string]interface{}{"type": "string", "description": "Job description"},
			"job_requirements":    map[string]interface{}{"type": "string", "description": "Job requirements"},
			"required_skills":     map[string]interface{}{"type": "string", "description": "Comma separated required skills"},
			"experience_required": map[string]interface{}{"type": "string", "description": "Experience range such as 2-5 or 3+"},
		},
		Required: []string{"cv_text"},
	}
	s.AddTool(match, t.jobMatchScore)

	parse := mcp.NewTool("parse_experience_range",
		mcp.WithDescription("Parse an experience requirement such as 2-5, 3+ or 4 into a [min, max] range"),
	)
	parse.InputSchema = mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"range": map[string]interface{}{"type": "string", "description": "Experience requirement"},
		},
		Required: []string{"range"},
	}
	s.AddTool(parse, t.parseExperienceRange)
}

func (t tools) analyzeCVText(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}
	text, _ := args["text"].(string)
	if strings.TrimSpace(text) == "" {
		return mcp.NewToolResultError("text is required"), nil
	}
	return jsonResult(t.analysis(text))
}

func (t tools) jobMatchScore(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}
	cvText, _ := args["cv_text"].(string)
	if strings.TrimSpace(cvText) == "" {
		return mcp.NewToolResultError("cv_text is required"), nil
	}
	job := cvanalysis.JobCriteria{
		Title:              stringArg(args, "job_title"),
		Description:        stringArg(args, "job_description"),
		Requirements:       stringArg(args, "job_requirements"),
		RequiredSkills:     stringArg(args, "required_skills"),
		ExperienceRequired: stringArg(args, "experience_required"),
	}
	a := t.analysis(cvText)
	return jsonResult(map[string]any{
		"job_match_score":     cvanalysis.JobMatchScore(cvText, a, job),
		"experience_years":    a.ExperienceYears,
		"within_experience":   cvanalysis.WithinExperienceRange(job.ExperienceRequired, a.ExperienceYears),
		"required_skills":     cvanalysis.RequiredSkills(job.RequiredSkills),
		"experience_required": job.ExperienceRequired,
	})
}

func (t tools) parseExperienceRange(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}
	raw := stringArg(args, "range")
	lo, hi := cvanalysis.ParseExperienceRange(raw)
	return jsonResult(map[string]any{"range": raw, "min": lo, "max": hi})
}

// analysis runs the trained analyzer when one is loaded and otherwise
// reports the extracted features with a keyword-based domain.
func (t tools) analysis(text string) cvanalysis.Analysis {
	if t.holder != nil {
		if a, err := t.holder.Current().Analyze(text); err == nil {
			return a
		}
	}
	cleaned := cvanalysis.CleanText(text)
	skills := cvanalysis.ExtractSkills(text)
	return cvanalysis.Analysis{
		Domain:          cvanalysis.CategorizeDomain(text, skills),
		Skills:          skills,
		SkillsCount:     len(skills),
		ExperienceYears: cvanalysis.ExtractExperienceYears(text),
		WordCount:       cvanalysis.WordCount(cleaned),
	}
}

func stringArg(args map[string]interface{}, key string) string {
	v, _ := args[key].(string)
	return strings.TrimSpace(v)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(raw)), nil
}
