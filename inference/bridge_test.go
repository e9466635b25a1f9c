package inference

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/0uali-Yassine/Machine-Learning-deployment-system/db"
	"github.com/0uali-Yassine/Machine-Learning-deployment-system/ml"
)

type fakeRecorder struct {
	records []db.PredictionRecord
	err     error
}

func (f *fakeRecorder) SavePrediction(record db.PredictionRecord) error {
	f.records = append(f.records, record)
	return f.err
}

func runBridge(t *testing.T, bridge *Bridge, args ...string) (int, map[string]interface{}, string) {
	t.Helper()
	var stdout bytes.Buffer
	bridge.Stdout = &stdout
	code := bridge.Run(args)

	raw := stdout.String()
	if strings.Count(raw, "\n") != 1 || !strings.HasSuffix(raw, "\n") {
		t.Fatalf("expected exactly one JSON line, got %q", raw)
	}
	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	return code, payload, raw
}

func newTestBridge(t *testing.T) *Bridge {
	t.Helper()
	cfg := testModelConfig(t.TempDir())
	t.Setenv(cfg.BundleEnv, t.TempDir())
	return NewBridge(NewResolver(cfg), nil, nil)
}

// trainExactModel fits price = 100*area + 50 and saves it as name.
func trainExactModel(t *testing.T, dir, name string) string {
	t.Helper()
	model, err := ml.NewModel(ml.KindLinearRegression, []string{FeatureName})
	if err != nil {
		t.Fatalf("new model: %v", err)
	}
	areas := []float64{1000, 1500, 2600, 3000, 3200, 3600, 4000}
	features := make([][]float64, len(areas))
	targets := make([]float64, len(areas))
	for i, area := range areas {
		features[i] = []float64{area}
		targets[i] = 100*area + 50
	}
	if err := model.Fit(features, targets); err != nil {
		t.Fatalf("fit: %v", err)
	}
	return writeModel(t, dir, name, model)
}

func near(got interface{}, want float64) bool {
	value, ok := got.(float64)
	return ok && math.Abs(value-want) <= 1e-6*math.Max(1, math.Abs(want))
}

func TestRunMissingArgument(t *testing.T) {
	code, _, raw := runBridge(t, newTestBridge(t))
	if code != ExitFailure {
		t.Fatalf("expected exit 1, got %d", code)
	}
	want := `{"success":false,"error":"Missing required argument: area","usage":"./predict <area> [model_path]"}` + "\n"
	if raw != want {
		t.Fatalf("unexpected output %q", raw)
	}
}

func TestRunInvalidArea(t *testing.T) {
	code, payload, _ := runBridge(t, newTestBridge(t), "abc")
	if code != ExitFailure {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if payload["error"] != "Invalid area value: abc. Must be a number." {
		t.Fatalf("unexpected error %v", payload["error"])
	}
	if _, ok := payload["usage"]; ok {
		t.Fatal("usage is only reported for a missing argument")
	}
	for _, arg := range []string{"", "12abc", "NaN", "inf", "0x1p4", "-0X10"} {
		if code, _, _ := runBridge(t, newTestBridge(t), arg); code != ExitFailure {
			t.Fatalf("%q: expected exit 1", arg)
		}
	}
}

func TestRunMissingModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.pkl")
	code, payload, _ := runBridge(t, newTestBridge(t), "2000", path)
	if code != ExitFailure {
		t.Fatalf("expected exit 1, got %d", code)
	}
	message, _ := payload["error"].(string)
	if !strings.Contains(message, path) {
		t.Fatalf("expected error to reference %s, got %q", path, message)
	}
	if _, ok := payload["area"]; ok {
		t.Fatal("failure must not carry area")
	}
	if _, ok := payload["prediction"]; ok {
		t.Fatal("failure must not carry prediction")
	}
	if payload["success"] != false {
		t.Fatalf("unexpected success flag %v", payload["success"])
	}
}

func TestRunEndToEndBothEncodings(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"core_model.pkl", "core_model.joblib"} {
		path := trainExactModel(t, dir, name)
		code, payload, _ := runBridge(t, newTestBridge(t), "2000", path)
		if code != ExitSuccess {
			t.Fatalf("%s: expected exit 0, got %d (%v)", name, code, payload)
		}
		if payload["success"] != true || payload["area"] != 2000.0 {
			t.Fatalf("%s: unexpected payload %v", name, payload)
		}
		if !near(payload["prediction"], 200050) {
			t.Fatalf("%s: unexpected prediction %v", name, payload["prediction"])
		}
		if !near(payload["model_coefficient"], 100) || !near(payload["model_intercept"], 50) {
			t.Fatalf("%s: unexpected parameters %v %v", name, payload["model_coefficient"], payload["model_intercept"])
		}
	}
}

func TestRunIsIdempotent(t *testing.T) {
	path := trainExactModel(t, t.TempDir(), "core_model.pkl")
	_, _, first := runBridge(t, newTestBridge(t), "1234.5", path)
	_, _, second := runBridge(t, newTestBridge(t), "1234.5", path)
	if first != second {
		t.Fatalf("outputs differ:\n%s\n%s", first, second)
	}
}

func TestRunResolvesDevelopmentModel(t *testing.T) {
	root := t.TempDir()
	cfg := testModelConfig(root)
	t.Setenv(cfg.BundleEnv, t.TempDir())
	if err := os.MkdirAll(filepath.Join(root, "model"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	trainExactModel(t, filepath.Join(root, "model"), "core_model.pkl")

	code, payload, _ := runBridge(t, NewBridge(NewResolver(cfg), nil, nil), "10")
	if code != ExitSuccess || !near(payload["prediction"], 1050) {
		t.Fatalf("unexpected result %d %v", code, payload)
	}
}

func TestRunModelWithoutLinearParams(t *testing.T) {
	model, _ := ml.NewModel(ml.KindMeanRegressor, []string{FeatureName})
	if err := model.Fit([][]float64{{1}, {2}}, []float64{10, 30}); err != nil {
		t.Fatalf("fit: %v", err)
	}
	path := writeModel(t, t.TempDir(), "mean.joblib", model)

	code, payload, raw := runBridge(t, newTestBridge(t), "500", path)
	if code != ExitSuccess || payload["prediction"] != 20.0 {
		t.Fatalf("unexpected result %d %v", code, payload)
	}
	if !strings.Contains(raw, `"model_coefficient":null`) || !strings.Contains(raw, `"model_intercept":null`) {
		t.Fatalf("expected null parameters, got %s", raw)
	}
}

func TestRunPredictionFailure(t *testing.T) {
	path := writeModel(t, t.TempDir(), "sqft.pkl", ml.NewLinearRegression([]string{"sqft"}, []float64{1}, 0))
	code, payload, _ := runBridge(t, newTestBridge(t), "500", path)
	if code != ExitFailure {
		t.Fatalf("expected exit 1, got %d", code)
	}
	message, _ := payload["error"].(string)
	if !strings.HasPrefix(message, "Error making prediction: ") {
		t.Fatalf("unexpected error %q", message)
	}
}

func TestRunAcceptsFullWidthDigits(t *testing.T) {
	path := trainExactModel(t, t.TempDir(), "core_model.pkl")
	code, payload, _ := runBridge(t, newTestBridge(t), "２０００", path)
	if code != ExitSuccess || payload["area"] != 2000.0 {
		t.Fatalf("unexpected result %d %v", code, payload)
	}
}

func TestRunRecordsOutcome(t *testing.T) {
	path := trainExactModel(t, t.TempDir(), "core_model.joblib")
	bridge := newTestBridge(t)
	recorder := &fakeRecorder{}
	bridge.Recorder = recorder

	runBridge(t, bridge, "2000", path)
	runBridge(t, bridge, "2000", path+".missing")
	runBridge(t, bridge, "abc")

	if len(recorder.records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recorder.records))
	}
	ok := recorder.records[0]
	if !ok.Success || ok.Prediction == nil || ok.ModelFormat != string(ml.FormatPortable) || ok.ModelDigest == "" {
		t.Fatalf("unexpected success record %+v", ok)
	}
	failed := recorder.records[1]
	if failed.Success || failed.Prediction != nil || !strings.HasPrefix(failed.Error, "File not found: ") {
		t.Fatalf("unexpected failure record %+v", failed)
	}
}

func TestRunIgnoresRecorderFailure(t *testing.T) {
	path := trainExactModel(t, t.TempDir(), "core_model.pkl")
	bridge := newTestBridge(t)
	bridge.Recorder = &fakeRecorder{err: errors.New("database is locked")}

	code, payload, _ := runBridge(t, bridge, "2000", path)
	if code != ExitSuccess || payload["success"] != true {
		t.Fatalf("recorder failure leaked into result: %d %v", code, payload)
	}
}

func TestRunUsesLoaderSeam(t *testing.T) {
	bridge := newTestBridge(t)
	bridge.load = func(path string) (*Loaded, error) {
		return nil, loadError(errors.New("unsupported pickle protocol"))
	}
	code, payload, _ := runBridge(t, bridge, "1", "model.pkl")
	if code != ExitFailure || payload["error"] != "Error loading model: unsupported pickle protocol" {
		t.Fatalf("unexpected result %d %v", code, payload)
	}
}

func TestParseArgsIgnoresExtra(t *testing.T) {
	req, err := ParseArgs([]string{" 42.5 ", "m.pkl", "extra"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Area != 42.5 || req.ModelPath != "m.pkl" {
		t.Fatalf("unexpected request %+v", req)
	}
	if _, err := ParseArgs(nil); KindOf(err) != ArgumentError {
		t.Fatalf("expected argument error, got %v", err)
	}
}

func TestRunAnnouncesModelPath(t *testing.T) {
	path := trainExactModel(t, t.TempDir(), "core_model.pkl")
	core, logs := observer.New(zapcore.InfoLevel)
	bridge := newTestBridge(t)
	bridge.Logger = zap.New(core)
	var diagnostics bytes.Buffer
	bridge.Diagnostics = &diagnostics

	code, _, raw := runBridge(t, bridge, "2000", path)
	if code != ExitSuccess {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if diagnostics.String() != "Loading model from path: "+path+"\n" {
		t.Fatalf("unexpected diagnostics %q", diagnostics.String())
	}
	if strings.Contains(raw, "Loading model from path") {
		t.Fatal("diagnostic line leaked into stdout")
	}

	entries := logs.FilterMessage("Loading model from path").All()
	if len(entries) != 1 || entries[0].ContextMap()["path"] != path {
		t.Fatalf("expected one log entry naming %s, got %+v", path, entries)
	}
}

func TestRunAnnouncesModelPathAboveLogLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.pkl")
	core, logs := observer.New(zapcore.WarnLevel)
	bridge := newTestBridge(t)
	bridge.Logger = zap.New(core)
	var diagnostics bytes.Buffer
	bridge.Diagnostics = &diagnostics

	code, _, _ := runBridge(t, bridge, "2000", path)
	if code != ExitFailure {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if logs.FilterMessage("Loading model from path").Len() != 0 {
		t.Fatal("info entry should be filtered at warn level")
	}
	if !strings.Contains(diagnostics.String(), "Loading model from path: "+path) {
		t.Fatalf("diagnostic line missing at warn level: %q", diagnostics.String())
	}
}

func TestParseArgsRejectsHexArea(t *testing.T) {
	for _, raw := range []string{"0x1p4", "+0x10", "-0X1"} {
		_, err := ParseArgs([]string{raw})
		if KindOf(err) != ArgumentError {
			t.Fatalf("%q: expected argument error, got %v", raw, err)
		}
		if err.Error() != "Invalid area value: "+raw+". Must be a number." {
			t.Fatalf("%q: unexpected message %q", raw, err.Error())
		}
	}
}
