// Package mgmt provides the management API for the workbench service.
package mgmt

// --- Request DTOs ---

// LoadRequest is the payload for POST /api/v1/workspace/load.
type LoadRequest struct {
	Locator string `json:"locator"`
}

// UpdateContentRequest is the payload for PUT /api/v1/files/:name/content.
type UpdateContentRequest struct {
	Text string `json:"text"`
}

// --- Response DTOs ---

// WorkspaceResponse describes the loaded workspace.
type WorkspaceResponse struct {
	Loaded           bool     `json:"loaded"`
	Files            []string `json:"files,omitempty"`
	EnvironmentFiles []string `json:"environment_files,omitempty"`
}

// FileResponse describes a single workspace file.
type FileResponse struct {
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Text  string `json:"text"`
	Dirty bool   `json:"dirty"`
}

// FileListResponse is the payload for GET /api/v1/workspace/files.
type FileListResponse struct {
	Files []string `json:"files"`
}

// EmitFileDTO is one produced output file.
type EmitFileDTO struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// EmitResponse is the payload for POST /api/v1/workspace/emit.
type EmitResponse struct {
	Files []EmitFileDTO `json:"files"`
}

// ProblemDetail follows RFC 7807 for error responses.
type ProblemDetail struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}
