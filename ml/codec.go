package ml

import (
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
)

// Format names a physical encoding of an artifact. Payloads carry no
// header, so the format travels with the path (see FormatForPath).
type Format string

const (
	// FormatNative is a gob stream of Artifact.
	FormatNative Format = "native-pickle"
	// FormatPortable is a zstd frame holding deterministic CBOR of Artifact.
	FormatPortable Format = "portable-joblib"
)

// ModelArtifact locates one serialized model on disk.
type ModelArtifact struct {
	Path   string
	Format Format
}

func NewModelArtifact(path string) ModelArtifact {
	return ModelArtifact{Path: path, Format: FormatForPath(path)}
}

// FormatForPath infers the encoding from the file extension. Anything that
// is not a .joblib file is treated as native.
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".joblib") {
		return FormatPortable
	}
	return FormatNative
}

// Extension returns the conventional file extension for the format.
func (f Format) Extension() string {
	if f == FormatPortable {
		return ".joblib"
	}
	return ".pkl"
}

func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "native", "native-pickle", "pickle", "pkl":
		return FormatNative, nil
	case "portable", "portable-joblib", "joblib":
		return FormatPortable, nil
	default:
		return "", fmt.Errorf("unknown artifact format %q", name)
	}
}

var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("ml: CBOR encoder initialization failed: " + err.Error())
	}
}

// Encode writes the fitted state of r to w.
func Encode(w io.Writer, format Format, r Regressor) error {
	artifact, err := ToArtifact(r)
	if err != nil {
		return err
	}
	switch format {
	case FormatNative:
		return gob.NewEncoder(w).Encode(artifact)
	case FormatPortable:
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return err
		}
		if err := encMode.NewEncoder(zw).Encode(artifact); err != nil {
			zw.Close()
			return err
		}
		return zw.Close()
	default:
		return fmt.Errorf("unsupported artifact format %q", format)
	}
}

// Decode reads a regressor encoded with Encode.
func Decode(r io.Reader, format Format) (Regressor, error) {
	var artifact Artifact
	switch format {
	case FormatNative:
		if err := gob.NewDecoder(r).Decode(&artifact); err != nil {
			return nil, err
		}
	case FormatPortable:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		if err := cbor.NewDecoder(zr).Decode(&artifact); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported artifact format %q", format)
	}
	return FromArtifact(artifact)
}

// Save writes r to path using the encoding its extension implies.
func Save(path string, r Regressor) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if err := Encode(file, FormatForPath(path), r); err != nil {
		file.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return file.Close()
}
