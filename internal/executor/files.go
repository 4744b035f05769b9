package executor

import (
	"fmt"

	"codeforge/internal/logging"
	"codeforge/internal/schema"
	"codeforge/internal/store"
)

func (e *Executor) addFile(action *schema.Action) ActionOutcome {
	file, err := e.store.CreateFile(store.FileFields{
		ProjectID: action.ProjectID,
		Name:      schema.StringValue(action.Name),
		Path:      schema.StringValue(action.Path),
		Content:   schema.StringValue(action.Content),
		Type:      action.FileType,
	})
	if err != nil {
		logging.ExecutorWarn("Failed to persist file %s: %v", schema.StringValue(action.Name), err)
		return failure(fmt.Sprintf("failed to create file: %v", err))
	}

	// Record is authoritative; a mirror miss is only a warning.
	if err := e.mirror.CreateFile(file.ProjectID, file.Path, file.Content); err != nil {
		logging.MirrorWarn("Mirror write for %s/%s failed: %v", file.ProjectID, file.Path, err)
	}

	return success(fmt.Sprintf("created file %s", file.Name), map[string]any{
		"fileId": file.ID,
		"name":   file.Name,
		"path":   file.Path,
	})
}

func (e *Executor) updateFile(action *schema.Action) ActionOutcome {
	file, ok, err := e.store.UpdateFile(action.FileID, store.FileUpdate{
		Content: action.Content,
		Path:    action.Path,
		Name:    action.Name,
	})
	if err != nil {
		return failure(fmt.Sprintf("failed to update file: %v", err))
	}
	if !ok {
		return failure("file not found")
	}

	if action.Content != nil {
		if err := e.mirror.UpdateFile(file.ProjectID, file.Path, file.Content); err != nil {
			logging.MirrorWarn("Mirror update for %s/%s failed: %v", file.ProjectID, file.Path, err)
		}
	}

	return success(fmt.Sprintf("updated file %s", file.Name), map[string]any{
		"fileId": file.ID,
		"name":   file.Name,
		"path":   file.Path,
	})
}

func (e *Executor) deleteFile(action *schema.Action) ActionOutcome {
	file, ok, err := e.store.GetFile(action.FileID)
	if err != nil {
		return failure(fmt.Sprintf("failed to look up file: %v", err))
	}
	if !ok {
		return failure("file not found")
	}

	if _, err := e.store.DeleteFile(action.FileID); err != nil {
		return failure(fmt.Sprintf("failed to delete file: %v", err))
	}

	if err := e.mirror.DeleteFile(file.ProjectID, file.Path); err != nil {
		logging.MirrorWarn("Mirror delete for %s/%s failed: %v", file.ProjectID, file.Path, err)
	}

	return success(fmt.Sprintf("deleted file %s", file.Name), map[string]any{
		"fileId": file.ID,
	})
}
