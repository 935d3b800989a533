package handler

import (
	"io/fs"
	"net/http"
)

// filesOnly refuses directories, so a static mount never renders a listing.
type filesOnly struct {
	root http.FileSystem
}

func (f filesOnly) Open(name string) (http.File, error) {
	file, err := f.root.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.IsDir() {
		file.Close()
		return nil, fs.ErrNotExist
	}
	return file, nil
}

// StaticFiles serves the regular files under dir at prefix. Directory paths
// are 404.
func StaticFiles(prefix, dir string) http.Handler {
	return http.StripPrefix(prefix, http.FileServer(filesOnly{root: http.Dir(dir)}))
}
