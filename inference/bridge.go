package inference

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/width"

	"github.com/0uali-Yassine/Machine-Learning-deployment-system/db"
	"github.com/0uali-Yassine/Machine-Learning-deployment-system/ml"
)

// Usage is echoed in the failure envelope when the area is missing.
const Usage = "./predict <area> [model_path]"

const (
	ExitSuccess = 0
	ExitFailure = 1
)

// Request is one parsed invocation.
type Request struct {
	Area      float64
	ModelPath string
}

// ParseArgs reads `<area> [model_path]`; args excludes the program name.
// Arguments past the second are ignored.
func ParseArgs(args []string) (Request, error) {
	if len(args) == 0 {
		return Request{}, &Error{
			Kind:    ArgumentError,
			Message: "Missing required argument: area",
			Usage:   Usage,
		}
	}
	area, err := parseArea(args[0])
	if err != nil {
		return Request{}, &Error{
			Kind:    ArgumentError,
			Message: fmt.Sprintf("Invalid area value: %s. Must be a number.", args[0]),
			Err:     err,
		}
	}
	req := Request{Area: area}
	if len(args) > 1 {
		req.ModelPath = args[1]
	}
	return req, nil
}

// parseArea accepts surrounding whitespace and full-width digits. NaN and
// infinities are rejected since they cannot be carried in JSON, and so are
// hexadecimal literals.
func parseArea(raw string) (float64, error) {
	normalized := strings.TrimSpace(width.Narrow.String(raw))
	digits := strings.TrimLeft(normalized, "+-")
	if strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X") {
		return 0, fmt.Errorf("area %q is not a decimal number", raw)
	}
	area, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(area) || math.IsInf(area, 0) {
		return 0, fmt.Errorf("area %q is not finite", raw)
	}
	return area, nil
}

// Recorder persists the outcome of a prediction. *db.Store satisfies it.
type Recorder interface {
	SavePrediction(record db.PredictionRecord) error
}

// Bridge runs one invocation: parse, resolve, load, predict, emit. Exactly
// one envelope is written to Stdout whatever happens. The resolved model
// path is always announced on Diagnostics, independent of the log level.
type Bridge struct {
	Resolver    *Resolver
	Stdout      io.Writer
	Diagnostics io.Writer
	Logger      *zap.Logger
	Recorder    Recorder

	load func(path string) (*Loaded, error)
	now  func() time.Time
}

func NewBridge(resolver *Resolver, stdout io.Writer, logger *zap.Logger) *Bridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bridge{
		Resolver:    resolver,
		Stdout:      stdout,
		Diagnostics: os.Stderr,
		Logger:      logger,
		load:        Load,
		now:         time.Now,
	}
}

// Run returns the process exit code.
func (b *Bridge) Run(args []string) int {
	req, err := ParseArgs(args)
	if err != nil {
		return b.emitFailure(err)
	}

	resolution, err := b.Resolver.Resolve(req.ModelPath)
	if err != nil {
		b.record(req, nil, nil, err)
		return b.emitFailure(err)
	}
	for _, outcome := range resolution.Outcomes {
		b.Logger.Debug("resolution candidate",
			zap.String("strategy", outcome.Strategy),
			zap.String("path", outcome.Path),
			zap.Bool("exists", outcome.Exists),
			zap.NamedError("probe_error", outcome.Err))
	}
	if b.Diagnostics != nil {
		fmt.Fprintf(b.Diagnostics, "Loading model from path: %s\n", resolution.Path)
	}
	b.Logger.Info("Loading model from path",
		zap.String("path", resolution.Path),
		zap.String("strategy", resolution.Strategy))

	loaded, err := b.load(resolution.Path)
	if err != nil {
		b.record(req, &Loaded{Artifact: ml.NewModelArtifact(resolution.Path)}, nil, err)
		return b.emitFailure(err)
	}
	b.Logger.Debug("model loaded",
		zap.String("kind", string(loaded.Model.Kind())),
		zap.String("format", string(loaded.Artifact.Format)),
		zap.String("digest", loaded.Digest))

	prediction, err := Predict(loaded.Model, req.Area)
	if err != nil {
		b.record(req, loaded, nil, err)
		return b.emitFailure(err)
	}

	b.record(req, loaded, &prediction, nil)
	if err := WriteEnvelope(b.Stdout, NewSuccess(req.Area, prediction, loaded.Model)); err != nil {
		b.Logger.Error("writing result", zap.Error(err))
		return ExitFailure
	}
	return ExitSuccess
}

func (b *Bridge) emitFailure(err error) int {
	b.Logger.Debug("invocation failed",
		zap.String("kind", string(KindOf(err))),
		zap.Error(err))
	if werr := WriteEnvelope(b.Stdout, NewFailure(err)); werr != nil {
		b.Logger.Error("writing result", zap.Error(werr))
	}
	return ExitFailure
}

// record is best effort; a failing log never changes the envelope.
func (b *Bridge) record(req Request, loaded *Loaded, prediction *float64, err error) {
	if b.Recorder == nil {
		return
	}
	record := db.PredictionRecord{
		Area:       req.Area,
		Prediction: prediction,
		Success:    err == nil,
		CreatedAt:  b.now().UTC(),
	}
	if err != nil {
		record.Error = NewFailure(err).Error
	}
	if loaded != nil {
		record.ModelPath = loaded.Artifact.Path
		record.ModelFormat = string(loaded.Artifact.Format)
		record.ModelDigest = loaded.Digest
	}
	if rerr := b.Recorder.SavePrediction(record); rerr != nil {
		b.Logger.Warn("recording prediction", zap.Error(rerr))
	}
}
