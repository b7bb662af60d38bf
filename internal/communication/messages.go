package communication

import "time"

const (
	MessageTypeCreateDirectory = "mkdir"
	MessageTypeDeleteDirectory = "rmdir"
	MessageTypeCopyDirectory   = "copydir"
	MessageTypeMoveDirectory   = "movedir"
	MessageTypeListDirectory   = "listdir"
	MessageTypeWriteFile       = "write"
	MessageTypeReadFile        = "read"
	MessageTypeDeleteFile      = "remove"
	MessageTypeCopyFile        = "copyfile"
	MessageTypeMoveFile        = "movefile"
	MessageTypeGetInfo         = "stat"
	MessageTypeGetWorkingDir   = "getcwd"
	MessageTypeSetWorkingDir   = "setcwd"
	MessageTypeSweep           = "sweep"
)

type CreateDirectoryRequest struct {
	Owner string `json:"owner"`
	Path  string `json:"path"`
}

type DeleteDirectoryRequest struct {
	Owner     string `json:"owner"`
	Path      string `json:"path"`
	Recursive bool   `json:"recursive"`
}

type CopyDirectoryRequest struct {
	Owner      string `json:"owner"`
	SourcePath string `json:"sourcePath"`
	DestPath   string `json:"destPath"`
}

type MoveDirectoryRequest struct {
	Owner      string `json:"owner"`
	SourcePath string `json:"sourcePath"`
	DestPath   string `json:"destPath"`
}

type ListDirectoryRequest struct {
	Owner  string `json:"owner"`
	Path   string `json:"path"`
	Limit  int    `json:"limit"`
	Cursor string `json:"cursor"`
}

type WriteFileRequest struct {
	Owner    string `json:"owner"`
	Path     string `json:"path"`
	Content  []byte `json:"content"`
	MimeType string `json:"mimeType"`
}

type ReadFileRequest struct {
	Owner string `json:"owner"`
	Path  string `json:"path"`
}

type DeleteFileRequest struct {
	Owner string `json:"owner"`
	Path  string `json:"path"`
}

type CopyFileRequest struct {
	Owner      string `json:"owner"`
	SourcePath string `json:"sourcePath"`
	DestPath   string `json:"destPath"`
}

type MoveFileRequest struct {
	Owner      string `json:"owner"`
	SourcePath string `json:"sourcePath"`
	DestPath   string `json:"destPath"`
}

type GetInfoRequest struct {
	Owner string `json:"owner"`
	Path  string `json:"path"`
}

type GetWorkingDirRequest struct {
	Owner string `json:"owner"`
}

type SetWorkingDirRequest struct {
	Owner string `json:"owner"`
	Path  string `json:"path"`
}

type SweepRequest struct {
	Limit int `json:"limit"`
}

// NodeInfo is the wire form of a filesystem entry.
type NodeInfo struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Path      string    `json:"path"`
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	MimeType  string    `json:"mimeType,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ListDirectoryResponse struct {
	Items      []NodeInfo `json:"items"`
	NextCursor string     `json:"nextCursor,omitempty"`
}

type ReadFileResponse struct {
	Content  []byte `json:"content"`
	MimeType string `json:"mimeType,omitempty"`
}

type WorkingDirResponse struct {
	Path string `json:"path"`
}

type SweepResponse struct {
	Removed int `json:"removed"`
}
