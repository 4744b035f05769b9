package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"codeforge/internal/logging"
	"codeforge/internal/schema"
	"codeforge/internal/store"
)

// generatedFile is one file in an oracle-produced skeleton or page set.
type generatedFile struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Content  string `json:"content"`
	FileType string `json:"fileType"`
}

const skeletonPrompt = `Generate the initial file set for a new %s project named %q.
%s
Respond with ONLY a JSON array, each element {"name": string, "path": string, "content": string, "fileType": string}.
fileType is one of: html, css, js, py, xml, java, kt, smali. Paths are relative, forward slashes, no leading "/".`

const pagePrompt = `Generate the files for a %s web page named %q in a %s style.%s
Respond with ONLY a JSON array, each element {"name": string, "path": string, "content": string, "fileType": string}.
fileType is one of: html, css, js. Paths are relative, forward slashes, no leading "/".`

const snippetPrompt = `Write a %s code snippet: %s.%s
Respond with ONLY the code, no prose, no markdown fences.`

// createProject asks the oracle for a project skeleton, then persists
// the project and its files. Skeleton failure aborts before anything is
// written; a persist failure mid-batch stops there without rolling back
// earlier records.
func (e *Executor) createProject(ctx context.Context, action *schema.Action) ActionOutcome {
	name := schema.StringValue(action.Name)

	detail := ""
	if action.Description != "" {
		detail = "Purpose: " + action.Description
	} else if action.Template != "" {
		detail = "Template: " + action.Template
	}

	files, err := e.generateFiles(ctx, fmt.Sprintf(skeletonPrompt, action.ProjectType, name, detail))
	if err != nil {
		logging.ExecutorWarn("Skeleton generation for %q failed: %v", name, err)
		return failure(fmt.Sprintf("failed to generate project skeleton: %v", err))
	}

	project, err := e.store.CreateProject(store.ProjectFields{
		Name:        name,
		Type:        action.ProjectType,
		Description: action.Description,
		Template:    action.Template,
	})
	if err != nil {
		return failure(fmt.Sprintf("failed to create project: %v", err))
	}

	created, outcome := e.persistFiles(project.ID, files)
	if outcome != nil {
		return *outcome
	}

	logging.Executor("Created project %s (%s) with %d files", project.ID, name, len(created))
	return success(fmt.Sprintf("created project %s with %d files", name, len(created)), map[string]any{
		"projectId": project.ID,
		"name":      project.Name,
		"files":     created,
	})
}

// createWebPage generates a page file set and persists it under a
// pages/<pageName>/ prefix with <pageName>-prefixed file names. Pages
// are mirrored the same way other file writes are.
func (e *Executor) createWebPage(ctx context.Context, action *schema.Action) ActionOutcome {
	style := action.Style
	if style == "" {
		style = "modern"
	}
	features := ""
	if len(action.Features) > 0 {
		features = " Include: " + strings.Join(action.Features, ", ") + "."
	}

	files, err := e.generateFiles(ctx, fmt.Sprintf(pagePrompt, action.PageType, action.PageName, style, features))
	if err != nil {
		logging.ExecutorWarn("Page generation for %q failed: %v", action.PageName, err)
		return failure(fmt.Sprintf("failed to generate page: %v", err))
	}

	for i := range files {
		files[i].Name = action.PageName + "_" + files[i].Name
		files[i].Path = path.Join("pages", action.PageName, files[i].Path)
	}

	created, outcome := e.persistFiles(action.ProjectID, files)
	if outcome != nil {
		return *outcome
	}

	logging.Executor("Created page %s (%d files) in project %s", action.PageName, len(created), action.ProjectID)
	return success(fmt.Sprintf("created page %s with %d files", action.PageName, len(created)), map[string]any{
		"projectId": action.ProjectID,
		"pageName":  action.PageName,
		"files":     created,
	})
}

func (e *Executor) generateSnippet(ctx context.Context, action *schema.Action) ActionOutcome {
	extra := ""
	if action.Context != "" {
		extra = " Context: " + action.Context
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.oracle.Generate(callCtx, fmt.Sprintf(snippetPrompt, action.Language, action.Description, extra), false)
	if err != nil {
		logging.ExecutorWarn("Snippet generation failed: %v", err)
		return failure(fmt.Sprintf("failed to generate snippet: %v", err))
	}

	return success("generated code snippet", map[string]any{
		"code":     stripFences(resp),
		"language": action.Language,
	})
}

// persistFiles writes generated files to the store and mirrors each one.
// Returns the created summaries, or a failure outcome if a store write
// fails; earlier records stay.
func (e *Executor) persistFiles(projectID string, files []generatedFile) ([]map[string]any, *ActionOutcome) {
	created := make([]map[string]any, 0, len(files))
	for _, gf := range files {
		file, err := e.store.CreateFile(store.FileFields{
			ProjectID: projectID,
			Name:      gf.Name,
			Path:      gf.Path,
			Content:   gf.Content,
			Type:      gf.FileType,
		})
		if err != nil {
			out := failure(fmt.Sprintf("failed to create file %s: %v", gf.Name, err))
			return nil, &out
		}

		if err := e.mirror.CreateFile(projectID, file.Path, file.Content); err != nil {
			logging.MirrorWarn("Mirror write for %s/%s failed: %v", projectID, file.Path, err)
		}

		created = append(created, map[string]any{
			"fileId": file.ID,
			"name":   file.Name,
			"path":   file.Path,
		})
	}
	return created, nil
}

// generateFiles calls the oracle and decodes its reply as a file list.
// The reply is untrusted text; fences and surrounding prose are ignored.
func (e *Executor) generateFiles(ctx context.Context, prompt string) ([]generatedFile, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.oracle.Generate(callCtx, prompt, true)
	if err != nil {
		return nil, err
	}

	files, err := decodeFileList(resp)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("generation produced no files")
	}
	return files, nil
}

func decodeFileList(resp string) ([]generatedFile, error) {
	cleaned := stripFences(resp)
	start := strings.IndexAny(cleaned, "[{")
	if start == -1 {
		return nil, fmt.Errorf("no JSON value found in response")
	}
	cleaned = cleaned[start:]

	var files []generatedFile
	if strings.HasPrefix(cleaned, "{") {
		var single generatedFile
		if err := json.NewDecoder(strings.NewReader(cleaned)).Decode(&single); err != nil {
			return nil, fmt.Errorf("failed to decode generated file: %w", err)
		}
		files = []generatedFile{single}
	} else {
		if err := json.NewDecoder(strings.NewReader(cleaned)).Decode(&files); err != nil {
			return nil, fmt.Errorf("failed to decode generated file list: %w", err)
		}
	}

	kept := files[:0]
	for _, f := range files {
		if f.Name == "" {
			continue
		}
		if f.Path == "" {
			f.Path = f.Name
		}
		kept = append(kept, f)
	}
	return kept, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if nl := strings.IndexByte(s, '\n'); nl != -1 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
