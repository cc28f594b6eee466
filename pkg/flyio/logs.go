// Package flyio wraps the fly CLI for the log-capture skill: it snapshots an
// app's recent logs and stores them gzip-compressed.
package flyio

import (
	"compress/gzip"
	"context"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/skillforge/skillet/pkg/logger"
)

// ErrFlyNotInstalled indicates the fly CLI binary is not on PATH
var ErrFlyNotInstalled = errors.New("fly CLI is not installed")

// CaptureLogs runs `fly logs --no-tail` for the given app and writes the
// output gzip-compressed to destPath (a .gz suffix is appended when missing).
// Returns the path of the written file.
func CaptureLogs(ctx context.Context, app, destPath string) (string, error) {
	flyBin, err := exec.LookPath("fly")
	if err != nil {
		return "", ErrFlyNotInstalled
	}

	cmd := exec.CommandContext(ctx, flyBin, "logs", "--app", app, "--no-tail")
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", errors.Wrapf(err, "fly logs failed: %s", string(exitErr.Stderr))
		}
		return "", errors.Wrap(err, "running fly logs")
	}

	if filepath.Ext(destPath) != ".gz" {
		destPath += ".gz"
	}

	if err := writeGzip(destPath, output); err != nil {
		return "", err
	}

	logger.G(ctx).WithField("app", app).WithField("dest", destPath).Info("Captured fly logs")
	return destPath, nil
}

func writeGzip(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "creating log directory")
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "creating log file")
	}
	defer file.Close()

	gw := gzip.NewWriter(file)
	if _, err := gw.Write(data); err != nil {
		gw.Close()
		return errors.Wrap(err, "compressing logs")
	}
	if err := gw.Close(); err != nil {
		return errors.Wrap(err, "finalizing compressed logs")
	}
	return nil
}
