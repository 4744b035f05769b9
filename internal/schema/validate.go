package schema

import (
	"encoding/json"
	"errors"
	"fmt"

	"codeforge/internal/logging"
)

// ValidationError names the field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Message
}

// AsValidationError unwraps err into a *ValidationError if it is one.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// Decode coerces an arbitrary decoded JSON object into a validated Action.
// Returns a *ValidationError when the candidate does not match any variant
// shape: unknown discriminant, wrongly typed field, missing required field,
// or out-of-domain enum value.
func Decode(raw map[string]any) (*Action, error) {
	typeField, ok := raw["type"]
	if !ok {
		return nil, &ValidationError{Field: "type", Message: "required"}
	}
	typeStr, ok := typeField.(string)
	if !ok {
		return nil, &ValidationError{Field: "type", Message: "must be a string"}
	}
	if !IsKnownType(ActionType(typeStr)) {
		return nil, &ValidationError{Field: "type", Message: fmt.Sprintf("unknown action type %q", typeStr)}
	}

	// Round-trip through JSON to get typed fields. A type mismatch on any
	// field surfaces as an UnmarshalTypeError naming the offending field.
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, &ValidationError{Field: "type", Message: "candidate is not serializable"}
	}

	var action Action
	if err := json.Unmarshal(data, &action); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			field := typeErr.Field
			if field == "" {
				field = "type"
			}
			return nil, &ValidationError{Field: field, Message: fmt.Sprintf("expected %s", typeErr.Type)}
		}
		return nil, &ValidationError{Field: "type", Message: err.Error()}
	}

	if err := action.Validate(); err != nil {
		return nil, err
	}
	logging.SchemaDebug("Validated action %s", action.Type)
	return &action, nil
}

// Validate checks the variant-specific field constraints.
// Returns nil if valid, or a *ValidationError naming the violated field.
func (a *Action) Validate() error {
	switch a.Type {
	case ActionCreateProject:
		if StringValue(a.Name) == "" {
			return &ValidationError{Field: "name", Message: "required"}
		}
		if !inDomain(a.ProjectType, ProjectTypes) {
			return &ValidationError{Field: "projectType", Message: enumMessage(ProjectTypes)}
		}
		if a.Template != "" && !inDomain(a.Template, Templates) {
			return &ValidationError{Field: "template", Message: enumMessage(Templates)}
		}

	case ActionAddFile:
		if a.ProjectID == "" {
			return &ValidationError{Field: "projectId", Message: "required"}
		}
		if StringValue(a.Name) == "" {
			return &ValidationError{Field: "name", Message: "required"}
		}
		if a.Content == nil {
			return &ValidationError{Field: "content", Message: "required"}
		}
		if a.Path == nil {
			return &ValidationError{Field: "path", Message: "required"}
		}
		if !inDomain(a.FileType, FileTypes) {
			return &ValidationError{Field: "fileType", Message: enumMessage(FileTypes)}
		}

	case ActionUpdateFile:
		if a.FileID == "" {
			return &ValidationError{Field: "fileId", Message: "required"}
		}

	case ActionDeleteFile:
		if a.FileID == "" {
			return &ValidationError{Field: "fileId", Message: "required"}
		}

	case ActionCreateWebPage:
		if a.ProjectID == "" {
			return &ValidationError{Field: "projectId", Message: "required"}
		}
		if a.PageName == "" {
			return &ValidationError{Field: "pageName", Message: "required"}
		}
		if !inDomain(a.PageType, PageTypes) {
			return &ValidationError{Field: "pageType", Message: enumMessage(PageTypes)}
		}
		if a.Style != "" && !inDomain(a.Style, PageStyles) {
			return &ValidationError{Field: "style", Message: enumMessage(PageStyles)}
		}

	case ActionModifyAPK:
		if a.ProjectID == "" {
			return &ValidationError{Field: "projectId", Message: "required"}
		}
		if !inDomain(a.APKAction, APKActions) {
			return &ValidationError{Field: "action", Message: enumMessage(APKActions)}
		}
		if a.Parameters == nil {
			return &ValidationError{Field: "parameters", Message: "required"}
		}

	case ActionRunPython:
		if a.Code == "" {
			return &ValidationError{Field: "code", Message: "required"}
		}

	case ActionGenerateSnippet:
		if a.Language == "" {
			return &ValidationError{Field: "language", Message: "required"}
		}
		if a.Description == "" {
			return &ValidationError{Field: "description", Message: "required"}
		}

	default:
		return &ValidationError{Field: "type", Message: fmt.Sprintf("unknown action type %q", a.Type)}
	}
	return nil
}

func inDomain(value string, domain []string) bool {
	for _, d := range domain {
		if value == d {
			return true
		}
	}
	return false
}

func enumMessage(domain []string) string {
	return fmt.Sprintf("must be one of %v", domain)
}
