// Package schema defines the closed set of typed actions the pipeline can
// execute, and the defensive validation that coerces untrusted oracle
// output into that set. The contract is "parse, don't assume": anything
// that does not match exactly one variant shape is rejected.
package schema

// ActionType is the discriminant of the action union.
type ActionType string

const (
	ActionCreateProject   ActionType = "create_project"
	ActionAddFile         ActionType = "add_file"
	ActionUpdateFile      ActionType = "update_file"
	ActionDeleteFile      ActionType = "delete_file"
	ActionCreateWebPage   ActionType = "create_web_page"
	ActionModifyAPK       ActionType = "modify_apk"
	ActionRunPython       ActionType = "run_python"
	ActionGenerateSnippet ActionType = "generate_code_snippet"
)

// KnownTypes lists every valid discriminant.
var KnownTypes = []ActionType{
	ActionCreateProject,
	ActionAddFile,
	ActionUpdateFile,
	ActionDeleteFile,
	ActionCreateWebPage,
	ActionModifyAPK,
	ActionRunPython,
	ActionGenerateSnippet,
}

// Action is the tagged union of all executable commands. The Type
// discriminant fully determines which fields are legal and required;
// Validate enforces that per variant. Optional fields that need
// present/absent distinction (update_file partial updates) are pointers.
type Action struct {
	Type ActionType `json:"type"`

	// create_project
	Name        *string `json:"name,omitempty"`
	ProjectType string  `json:"projectType,omitempty"`
	Description string  `json:"description,omitempty"`
	Template    string  `json:"template,omitempty"`

	// add_file / update_file / delete_file / create_web_page / modify_apk
	ProjectID string  `json:"projectId,omitempty"`
	FileID    string  `json:"fileId,omitempty"`
	Content   *string `json:"content,omitempty"`
	Path      *string `json:"path,omitempty"`
	FileType  string  `json:"fileType,omitempty"`

	// create_web_page
	PageName string   `json:"pageName,omitempty"`
	PageType string   `json:"pageType,omitempty"`
	Style    string   `json:"style,omitempty"`
	Features []string `json:"features,omitempty"`

	// modify_apk
	APKAction  string         `json:"action,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`

	// run_python
	Code string `json:"code,omitempty"`

	// generate_code_snippet
	Language string `json:"language,omitempty"`
	Context  string `json:"context,omitempty"`
}

// Enum domains per field. Membership is checked during validation.
var (
	ProjectTypes = []string{"web", "apk", "python"}
	Templates    = []string{"blank", "basic_website", "react_app", "android_app"}
	FileTypes    = []string{"html", "css", "js", "py", "xml", "java", "kt", "smali"}
	PageTypes    = []string{"landing", "contact", "about", "blog", "product", "service"}
	PageStyles   = []string{"modern", "classic", "minimal", "colorful"}
	APKActions   = []string{"change_icon", "modify_strings", "add_feature", "change_theme"}
)

// IsKnownType reports whether t is one of the closed set of discriminants.
func IsKnownType(t ActionType) bool {
	for _, k := range KnownTypes {
		if t == k {
			return true
		}
	}
	return false
}

// IsDestructive reports whether this action must be held for explicit
// user confirmation before execution. APK mutation is irreversible and
// opaque enough that it always defers, regardless of sub-action.
func (a *Action) IsDestructive() bool {
	return a.Type == ActionModifyAPK
}

// StringValue dereferences an optional field, returning "" when absent.
func StringValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// Ptr returns a pointer to s. Convenience for building actions in code.
func Ptr(s string) *string {
	return &s
}
