package store

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmorgan81/text2image/internal/log"
)

type UploadParams struct {
	Name        string
	Data        []byte
	ContentType string
	Metadata    map[string]string
}

type Uploader interface {
	Upload(context.Context, UploadParams) error
}

// Object is a stored entry as seen by listings.
type Object struct {
	Name     string
	Metadata map[string]string
	Modified time.Time
}

type Lister interface {
	List(context.Context) ([]Object, error)
}

// Store is an archive target that can also enumerate what it holds.
type Store interface {
	Uploader
	Lister
}

const metaSuffix = ".meta.json"

// FileUploader stores objects under Dir, with metadata in a JSON sidecar.
type FileUploader struct {
	Dir string
}

func (u *FileUploader) Upload(ctx context.Context, params UploadParams) error {
	log := log.FromContextOrDiscard(ctx).WithGroup("file").With("dir", u.Dir)
	log.Info("writing", "file", params.Name)

	if err := os.MkdirAll(u.Dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(u.Dir, filepath.Base(params.Name))
	if err := os.WriteFile(path, params.Data, 0o644); err != nil {
		return err
	}
	meta, err := json.Marshal(params.Metadata)
	if err != nil {
		return err
	}
	return os.WriteFile(path+metaSuffix, meta, 0o644)
}

func (u *FileUploader) List(ctx context.Context) ([]Object, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("file").With("dir", u.Dir)
	log.Info("listing")

	entries, err := os.ReadDir(u.Dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var objs []Object
	for _, e := range entries {
		if e.IsDir() || strings.HasSuffix(e.Name(), metaSuffix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, err
		}
		obj := Object{Name: e.Name(), Modified: info.ModTime()}
		if raw, err := os.ReadFile(filepath.Join(u.Dir, e.Name()+metaSuffix)); err == nil {
			if err := json.Unmarshal(raw, &obj.Metadata); err != nil {
				return nil, err
			}
		}
		objs = append(objs, obj)
	}
	return objs, nil
}
