// Package transformers runs Hugging Face models in-process through hugot's
// ONNX Runtime backend.
package transformers

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/options"
)

// Session owns the ONNX Runtime session all pipelines are created on. It is
// created once at startup and destroyed at shutdown.
type Session struct {
	session  *hugot.Session
	modelDir string
}

func NewSession(modelDir, onnxLibraryPath string) (*Session, error) {
	if err := os.MkdirAll(modelDir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create model directory: %w", err)
	}

	var opts []options.WithOption
	if onnxLibraryPath != "" {
		opts = append(opts, options.WithOnnxLibraryPath(onnxLibraryPath))
	}

	session, err := hugot.NewORTSession(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize hugot session: %w", err)
	}

	slog.Info("[Transformers] ONNX Runtime session ready",
		slog.String("model_dir", modelDir))
	return &Session{session: session, modelDir: modelDir}, nil
}

// EnsureModel returns the local path of a Hugging Face repo, downloading it
// on first use. onnxFile selects one file when the repo ships several.
func (s *Session) EnsureModel(name, onnxFile string) (string, error) {
	modelPath := filepath.Join(s.modelDir, strings.ReplaceAll(name, "/", "_"))

	if _, err := os.Stat(modelPath); err == nil {
		slog.Info("[Transformers] Using existing model", slog.String("path", modelPath))
		return modelPath, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to stat model %s: %w", modelPath, err)
	}

	slog.Info("[Transformers] Model not found, downloading...", slog.String("model", name))
	downloadOptions := hugot.NewDownloadOptions()
	if onnxFile != "" {
		downloadOptions.OnnxFilePath = onnxFile
	}

	downloaded, err := hugot.DownloadModel(name, s.modelDir, downloadOptions)
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", name, err)
	}
	slog.Info("[Transformers] Model downloaded successfully", slog.String("path", downloaded))
	return downloaded, nil
}

func (s *Session) Destroy() {
	if err := s.session.Destroy(); err != nil {
		slog.Warn("[Transformers] Failed to destroy session", slog.String("error", err.Error()))
	}
}
