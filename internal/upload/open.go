package upload

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"

	"github.com/user/hrassist/internal/types"
)

// Open prepares a local file for upload. The MIME type is sniffed from the
// content rather than trusted from the extension. The returned closer must
// be closed once the attempt finishes.
func Open(path string) (*types.File, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		f.Close()
		return nil, nil, fmt.Errorf("%s is a directory", path)
	}

	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("detect type of %s: %w", path, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("rewind %s: %w", path, err)
	}

	mediaType := mtype.String()
	if parsed, _, err := mime.ParseMediaType(mediaType); err == nil {
		mediaType = parsed
	}

	return &types.File{
		Name:     filepath.Base(path),
		MIMEType: mediaType,
		Size:     info.Size(),
		Content:  f,
	}, f, nil
}
