package store

import (
	"context"
	"os"
	"path/filepath"

	"github.com/dmorgan81/sdxlgen/internal/errs"
	"github.com/dmorgan81/sdxlgen/internal/log"
	"github.com/samber/do"
)

type UploadParams struct {
	Name        string
	Data        []byte
	ContentType string
	Metadata    map[string]string
}

type Uploader interface {
	// Upload stores params.Data and returns where it ended up.
	Upload(context.Context, UploadParams) (string, error)
}

type FileUploader struct {
	Dir string
}

func NewFileUploader(i *do.Injector) (Uploader, error) {
	dir, err := do.InvokeNamed[string](i, "output_dir")
	if err != nil {
		return nil, err
	}
	return &FileUploader{Dir: dir}, nil
}

func (u *FileUploader) Upload(ctx context.Context, params UploadParams) (string, error) {
	path := params.Name
	if u.Dir != "" {
		// Names must stay inside Dir.
		if !filepath.IsLocal(path) {
			return "", errs.Configuration("output name %q is not a local path", params.Name)
		}
		path = filepath.Join(u.Dir, path)
	}
	log.FromContextOrDiscard(ctx).WithGroup("file").Info("writing", "path", path, "bytes", len(params.Data))
	if err := WriteFile(path, params.Data); err != nil {
		return "", err
	}
	return path, nil
}

// WriteFile replaces path with data via a temp file in the same directory and
// a rename. On failure nothing is left behind and the error matches errs.ErrIO.
func WriteFile(path string, data []byte) (err error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return errs.IO("create "+path, err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return errs.IO("write "+path, err)
	}
	if err = tmp.Sync(); err != nil {
		return errs.IO("sync "+path, err)
	}
	if err = tmp.Chmod(0644); err != nil {
		return errs.IO("chmod "+path, err)
	}
	if err = tmp.Close(); err != nil {
		return errs.IO("close "+path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return errs.IO("rename "+path, err)
	}
	return nil
}
