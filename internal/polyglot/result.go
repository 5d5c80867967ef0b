package polyglot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"

	"github.com/vnmchuo/polyglot-tts/internal/job"
)

// Retrieve streams the artifact of a finished job to {outputDir}/{jobID}.wav.
// A zero-byte artifact is removed and reported as *job.EmptyArtifactError;
// every other failure is a *job.DownloadError.
func (c *Client) Retrieve(ctx context.Context, jobID string) (*job.Artifact, error) {
	if !ValidJobID(jobID) {
		return nil, &job.DownloadError{JobID: jobID, Err: fmt.Errorf("job id %q is not usable as a file name", jobID)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+resultPath+url.PathEscape(jobID), nil)
	if err != nil {
		return nil, &job.DownloadError{JobID: jobID, Err: err}
	}
	httpReq.Header.Set("Accept", audioMIME)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &job.DownloadError{JobID: jobID, Err: err}
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return nil, &job.DownloadError{JobID: jobID, Err: statusError(resp)}
	}

	path := c.ArtifactPath(jobID)
	if err := writeArtifact(ctx, path, resp.Body); err != nil {
		return nil, &job.DownloadError{JobID: jobID, Err: err}
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, &job.DownloadError{JobID: jobID, Err: fmt.Errorf("stat artifact: %w", err)}
	}
	if info.Size() == 0 {
		_ = os.Remove(path)
		return nil, &job.EmptyArtifactError{JobID: jobID, Path: path}
	}

	return &job.Artifact{JobID: jobID, Path: path, Size: info.Size()}, nil
}

// writeArtifact copies r into path in fixed-size chunks through a pending
// file, so a failed download never leaves a truncated artifact behind.
func writeArtifact(ctx context.Context, path string, r io.Reader) error {
	logger := zerolog.Ctx(ctx)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	pendingFile, err := renameio.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("create pending artifact file: %w", err)
	}
	defer func() {
		if err := pendingFile.Cleanup(); err != nil {
			logger.Debug().Err(err).Str("path", path).Msg("cleanup pending artifact file")
		}
	}()

	buf := make([]byte, chunkSize)
	for {
		n, readErr := r.Read(buf)
		if n > 0 {
			if _, err := pendingFile.Write(buf[:n]); err != nil {
				return fmt.Errorf("write artifact: %w", err)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return fmt.Errorf("read artifact stream: %w", readErr)
		}
	}

	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace artifact: %w", err)
	}
	return nil
}

func joinArtifact(dir, jobID string) string {
	return filepath.Join(dir, jobID+audioExt)
}

// ValidJobID reports whether id can be used as an artifact file name.
func ValidJobID(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}
	return filepath.Base(id) == id && filepath.Clean(id) == id
}
