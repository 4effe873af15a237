package convert

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/minio/highwayhash"
)

// fingerprintKey is fixed so fingerprints are comparable across runs.
var fingerprintKey = []byte("cellfind source fingerprint\x00\x00\x00\x00\x00")

// Fingerprint identifies the content of a source workbook.
type Fingerprint struct {
	Sum     string // hex HighwayHash-256
	Size    int64
	ModTime time.Time
}

// FingerprintFile hashes the file at path.
func FingerprintFile(path string) (Fingerprint, error) {
	f, err := os.Open(path)
	if err != nil {
		return Fingerprint{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Fingerprint{}, err
	}
	h, err := highwayhash.New(fingerprintKey)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("failed to create hash: %w", err)
	}
	if _, err := io.Copy(h, f); err != nil {
		return Fingerprint{}, fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return Fingerprint{
		Sum:     hex.EncodeToString(h.Sum(nil)),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}
