package remote

import (
	"context"
	"net/url"

	"nodesync/binding"
	"nodesync/httpapi"
)

const (
	directoriesPath   = "/ril/get_directories"
	filenamesPath     = "/ril/get_filenames"
	ensurePreviewPath = "/ril/ensure_input_preview"
)

// DirectorySource lists the browsable directories under the backend's input
// and output roots.
type DirectorySource struct {
	api *httpapi.Client
}

func NewDirectorySource(api *httpapi.Client) *DirectorySource {
	return &DirectorySource{api: api}
}

func (s *DirectorySource) Fetch(ctx context.Context, _ binding.Params) binding.Result {
	var directories []string
	if err := s.api.GetJSON(ctx, directoriesPath, nil, &directories); err != nil {
		return failure("directories", err)
	}
	if len(directories) == 0 {
		return binding.Empty("(no directories)")
	}
	return binding.Success(directories, nil)
}

// FilenameSource lists image filenames in one directory. The subfolder and
// type the backend resolved are carried as meta so the preview location can
// be derived.
type FilenameSource struct {
	api *httpapi.Client
}

func NewFilenameSource(api *httpapi.Client) *FilenameSource {
	return &FilenameSource{api: api}
}

type filenameResponse struct {
	Filenames []string `json:"filenames"`
	Subfolder string   `json:"subfolder"`
	Type      string   `json:"type"`
}

func (s *FilenameSource) Fetch(ctx context.Context, params binding.Params) binding.Result {
	directory := params.Get("directory")
	if directory == "" {
		return binding.Info("Select a directory")
	}

	query := url.Values{}
	query.Set("directory", directory)

	var resp filenameResponse
	if err := s.api.GetJSON(ctx, filenamesPath, query, &resp); err != nil {
		return failure("filenames", err)
	}
	if len(resp.Filenames) == 0 {
		return binding.Empty("(no images)")
	}
	return binding.Success(resp.Filenames, map[string]string{
		"subfolder": resp.Subfolder,
		"type":      resp.Type,
	})
}

type previewRequest struct {
	Filename  string `json:"filename"`
	Subfolder string `json:"subfolder"`
	Type      string `json:"type"`
}

type previewResponse struct {
	Filename string `json:"filename"`
	Created  bool   `json:"created"`
}

// EnsurePreview asks the backend to confirm (or create) a previewable copy
// of the file in the input root. It returns whether a copy was created.
func (s *FilenameSource) EnsurePreview(ctx context.Context, filename, subfolder, imageType string) (bool, error) {
	var resp previewResponse
	err := s.api.PostJSON(ctx, ensurePreviewPath, previewRequest{
		Filename:  filename,
		Subfolder: subfolder,
		Type:      imageType,
	}, &resp)
	if err != nil {
		return false, err
	}
	return resp.Created, nil
}
