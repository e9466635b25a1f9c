package db

import (
	"database/sql"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the optional prediction and training log.
type Store struct {
	database *sql.DB
}

// Open initializes the SQLite database at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("database path is required")
	}
	database, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	query := `
    CREATE TABLE IF NOT EXISTS predictions (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        area REAL NOT NULL,
        prediction REAL,
        success INTEGER NOT NULL,
        error TEXT DEFAULT '',
        model_path TEXT DEFAULT '',
        model_format TEXT DEFAULT '',
        model_digest TEXT DEFAULT '',
        created_at DATETIME NOT NULL
    );
    CREATE TABLE IF NOT EXISTS training_log (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        model_kind VARCHAR(50),
        artifact_path TEXT,
        coefficient REAL,
        intercept REAL,
        r_squared REAL,
        rmse REAL,
        data_points INTEGER,
        trained_at DATETIME
    );
    `
	if _, err := database.Exec(query); err != nil {
		database.Close()
		return nil, err
	}
	return &Store{database: database}, nil
}

func (s *Store) Close() error {
	return s.database.Close()
}

type PredictionRecord struct {
	Area        float64   `json:"area"`
	Prediction  *float64  `json:"prediction"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
	ModelPath   string    `json:"model_path"`
	ModelFormat string    `json:"model_format"`
	ModelDigest string    `json:"model_digest"`
	CreatedAt   time.Time `json:"created_at"`
}

func (s *Store) SavePrediction(record PredictionRecord) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	var prediction sql.NullFloat64
	if record.Prediction != nil {
		prediction = sql.NullFloat64{Float64: *record.Prediction, Valid: true}
	}
	_, err := s.database.Exec(`
        INSERT INTO predictions (
            area, prediction, success, error, model_path, model_format, model_digest, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.Area, prediction, record.Success, record.Error,
		record.ModelPath, record.ModelFormat, record.ModelDigest, record.CreatedAt)
	return err
}

// QueryPredictions returns the newest predictions first.
func (s *Store) QueryPredictions(limit int) ([]PredictionRecord, error) {
	rows, err := s.database.Query(`
        SELECT area, prediction, success, error, model_path, model_format, model_digest, created_at
        FROM predictions
        ORDER BY id DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]PredictionRecord, 0)
	for rows.Next() {
		var record PredictionRecord
		var prediction sql.NullFloat64
		if err := rows.Scan(&record.Area, &prediction, &record.Success, &record.Error,
			&record.ModelPath, &record.ModelFormat, &record.ModelDigest, &record.CreatedAt); err != nil {
			return nil, err
		}
		if prediction.Valid {
			value := prediction.Float64
			record.Prediction = &value
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

type TrainingLog struct {
	ModelKind    string    `json:"model_kind"`
	ArtifactPath string    `json:"artifact_path"`
	Coefficient  float64   `json:"coefficient"`
	Intercept    float64   `json:"intercept"`
	RSquared     float64   `json:"r_squared"`
	RMSE         float64   `json:"rmse"`
	DataPoints   int       `json:"data_points"`
	TrainedAt    time.Time `json:"trained_at"`
}

func (s *Store) SaveTrainingLog(log TrainingLog) error {
	if log.TrainedAt.IsZero() {
		log.TrainedAt = time.Now().UTC()
	}
	_, err := s.database.Exec(`
        INSERT INTO training_log (
            model_kind, artifact_path, coefficient, intercept, r_squared, rmse, data_points, trained_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		log.ModelKind, log.ArtifactPath, log.Coefficient, log.Intercept,
		log.RSquared, log.RMSE, log.DataPoints, log.TrainedAt)
	return err
}

func (s *Store) LoadTrainingLog() ([]TrainingLog, error) {
	rows, err := s.database.Query(`
        SELECT model_kind, artifact_path, coefficient, intercept, r_squared, rmse, data_points, trained_at
        FROM training_log
        ORDER BY trained_at DESC, id DESC
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]TrainingLog, 0)
	for rows.Next() {
		var log TrainingLog
		if err := rows.Scan(&log.ModelKind, &log.ArtifactPath, &log.Coefficient, &log.Intercept,
			&log.RSquared, &log.RMSE, &log.DataPoints, &log.TrainedAt); err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}
