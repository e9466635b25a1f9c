package inference

import (
	"encoding/hex"
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/zeebo/blake3"

	"github.com/0uali-Yassine/Machine-Learning-deployment-system/ml"
)

// Loaded is a deserialized model plus where it came from.
type Loaded struct {
	Model    ml.Regressor
	Artifact ml.ModelArtifact
	// Digest is the BLAKE3 hash of the artifact bytes, hex encoded.
	Digest string
}

// Load opens the artifact read-only, decodes it with the codec its
// extension implies and releases the handle before returning. All
// failures come back as *Error values of kind NotFound or LoadError.
func Load(path string) (*Loaded, error) {
	artifact := ml.NewModelArtifact(path)
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, notFoundError(path, err)
		}
		return nil, loadError(err)
	}
	defer file.Close()

	hasher := blake3.New()
	model, err := ml.Decode(io.TeeReader(file, hasher), artifact.Format)
	if err != nil {
		return nil, loadError(err)
	}
	// decoders may stop short of EOF; hash the remainder too
	if _, err := io.Copy(hasher, file); err != nil {
		return nil, loadError(err)
	}

	return &Loaded{
		Model:    model,
		Artifact: artifact,
		Digest:   hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}
