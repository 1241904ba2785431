package ncio

import (
	"encoding/hex"
	"io"
	"os"

	"golang.org/x/crypto/blake2b"

	aferrors "atmoforce/internal/errors"
)

// Checksum returns the hex BLAKE2b-256 digest of the file at path.  The
// driver records it for each input so outputs can be traced back to the
// exact forcing data that produced them.
func Checksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", aferrors.WrapData("checksum", path, "", err)
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, f); err != nil {
		return "", aferrors.WrapData("checksum", path, "", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
