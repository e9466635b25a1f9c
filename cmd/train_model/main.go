package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/0uali-Yassine/Machine-Learning-deployment-system/config"
	"github.com/0uali-Yassine/Machine-Learning-deployment-system/db"
	"github.com/0uali-Yassine/Machine-Learning-deployment-system/inference"
	"github.com/0uali-Yassine/Machine-Learning-deployment-system/logging"
	"github.com/0uali-Yassine/Machine-Learning-deployment-system/ml"
)

// verifyArea is the probe input used to compare a saved model with its reload.
const verifyArea = 5000

type options struct {
	dataPath  string
	target    string
	outDir    string
	name      string
	formats   []string
	kind      string
	testRatio float64
	verify    bool
}

func main() {
	var opts options
	flags := pflag.NewFlagSet("train_model", pflag.ExitOnError)
	flags.StringVar(&opts.dataPath, "data", filepath.Join("model", "home_prices_by_area.csv"), "training CSV with a header row")
	flags.StringVar(&opts.target, "target", "price", "target column")
	flags.StringVar(&opts.outDir, "out-dir", "model", "artifact output directory")
	flags.StringVar(&opts.name, "name", "core_model", "artifact base name, extension is added per format")
	flags.StringSliceVar(&opts.formats, "format", []string{"native", "portable"}, "artifact encodings to write")
	flags.StringVar(&opts.kind, "kind", string(ml.KindLinearRegression), "model kind (linear_regression, mean_regressor)")
	flags.Float64Var(&opts.testRatio, "test-ratio", 0, "share of trailing rows held out for evaluation")
	flags.BoolVar(&opts.verify, "verify", true, "reload every artifact and compare it with the trained model")
	flags.Parse(os.Args[1:])

	cfg, err := config.Load(config.Locate())
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger, closeLog := logging.New(cfg.Log)
	defer closeLog()

	if err := train(opts, cfg, logger); err != nil {
		logger.Error("training failed", zap.Error(err))
		closeLog()
		os.Exit(1)
	}
}

func train(opts options, cfg *config.Config, logger *zap.Logger) error {
	set, err := ml.LoadTrainingCSV(opts.dataPath, opts.target)
	if err != nil {
		return fmt.Errorf("failed to load training data: %w", err)
	}
	trainSet, testSet := set.Split(opts.testRatio)
	if testSet == nil {
		testSet = trainSet
	}

	model, err := ml.NewModel(ml.Kind(opts.kind), set.FeatureNames)
	if err != nil {
		return err
	}
	if err := model.Fit(trainSet.Features, trainSet.Targets); err != nil {
		return fmt.Errorf("failed to train model: %w", err)
	}

	r2, rmse, err := ml.Evaluate(model, testSet)
	if err != nil {
		return fmt.Errorf("failed to evaluate model: %w", err)
	}
	params, linear := ml.Linear(model)
	logger.Info("model trained",
		zap.String("kind", opts.kind),
		zap.Int("data_points", trainSet.Len()),
		zap.Float64("r_squared", r2),
		zap.Float64("rmse", rmse))
	if linear {
		fmt.Printf("Model coefficient: %v\n", params.Coefficients)
		fmt.Printf("Model intercept: %v\n", params.Intercept)
	}

	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create model dir: %w", err)
	}

	var store *db.Store
	if cfg.Database.Path != "" {
		store, err = db.Open(cfg.Database.Path)
		if err != nil {
			logger.Warn("training log disabled", zap.Error(err))
		} else {
			defer store.Close()
		}
	}

	for _, name := range opts.formats {
		format, err := ml.ParseFormat(name)
		if err != nil {
			return err
		}
		path := filepath.Join(opts.outDir, opts.name+format.Extension())
		if err := ml.Save(path, model); err != nil {
			return fmt.Errorf("failed to save model: %w", err)
		}
		fmt.Printf("model saved to %s (%s)\n", path, format)

		if opts.verify {
			if err := verify(path, model); err != nil {
				return err
			}
			logger.Info("round trip verified", zap.String("path", path))
		}

		if store != nil {
			entry := db.TrainingLog{
				ModelKind:    opts.kind,
				ArtifactPath: path,
				RSquared:     r2,
				RMSE:         rmse,
				DataPoints:   trainSet.Len(),
			}
			if linear && len(params.Coefficients) > 0 {
				entry.Coefficient = params.Coefficients[0]
				entry.Intercept = params.Intercept
			}
			if err := store.SaveTrainingLog(entry); err != nil {
				logger.Warn("recording training run", zap.Error(err))
			}
		}
	}
	return nil
}

// verify reloads path through the inference loader and checks that
// parameters and a probe prediction survived the round trip.
func verify(path string, trained ml.Regressor) error {
	loaded, err := inference.Load(path)
	if err != nil {
		return err
	}
	want, err := inference.Predict(trained, verifyArea)
	if err != nil {
		return err
	}
	got, err := inference.Predict(loaded.Model, verifyArea)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("%s: prediction for area %d changed from %v to %v", path, verifyArea, want, got)
	}

	before, hadParams := ml.Linear(trained)
	after, hasParams := ml.Linear(loaded.Model)
	if hadParams != hasParams {
		return fmt.Errorf("%s: linear parameters lost on reload", path)
	}
	if hadParams {
		if before.Intercept != after.Intercept || len(before.Coefficients) != len(after.Coefficients) {
			return fmt.Errorf("%s: linear parameters changed on reload", path)
		}
		for i := range before.Coefficients {
			if before.Coefficients[i] != after.Coefficients[i] {
				return fmt.Errorf("%s: coefficient %d changed on reload", path, i)
			}
		}
	}
	fmt.Printf("Prediction for area %d: %v\n", verifyArea, got)
	return nil
}
