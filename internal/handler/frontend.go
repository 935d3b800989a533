package handler

import (
	"net/http"
	"os"
	"path/filepath"
)

const frontendMissing = "Frontend build not found. Run 'npm run build' in the frontend directory."

// Frontend serves the single-page app's entry file for every path the API
// does not claim, so client-side routes survive a reload.
type Frontend struct {
	dir string
}

func NewFrontend(dir string) *Frontend {
	return &Frontend{dir: dir}
}

func (f *Frontend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	index := filepath.Join(f.dir, "index.html")
	if _, err := os.Stat(index); err != nil {
		writeError(w, http.StatusNotFound, frontendMissing)
		return
	}
	http.ServeFile(w, r, index)
}

// Assets serves the built bundle under /assets/.
func (f *Frontend) Assets() http.Handler {
	return StaticFiles("/assets/", filepath.Join(f.dir, "assets"))
}
