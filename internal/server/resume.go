package server

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
)

// ErrResumeNotFound is returned when the résumé file is absent.
var ErrResumeNotFound = errors.New("resume not found")

// Resume locates the downloadable résumé and the name offered to browsers.
type Resume struct {
	Path     string
	Filename string
}

func (r Resume) locate() (string, error) {
	if r.Path == "" {
		return "", ErrResumeNotFound
	}
	info, err := os.Stat(r.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrResumeNotFound
	}
	if err != nil {
		return "", fmt.Errorf("stat resume: %w", err)
	}
	if info.IsDir() {
		return "", ErrResumeNotFound
	}
	return r.Path, nil
}

func (h *handler) downloadResume(c *gin.Context) {
	path, err := h.resume.locate()
	if err != nil {
		if !errors.Is(err, ErrResumeNotFound) {
			h.log.Error("Failed to open resume", "path", h.resume.Path, "error", err)
		}
		c.JSON(http.StatusNotFound, response{Success: false, Message: msgResumeMissing})
		return
	}

	if mtype, err := mimetype.DetectFile(path); err == nil {
		c.Header("Content-Type", mtype.String())
	} else {
		h.log.Warn("Could not detect resume type", "path", path, "error", err)
	}
	name := h.resume.Filename
	if name == "" {
		name = filepath.Base(path)
	}
	c.FileAttachment(path, name)
}
