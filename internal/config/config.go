package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting of the detector.
type Config struct {
	VideoSource      string  // Camera index ("0") or a file/stream path
	OutputPath       string  // Annotated video output, empty to disable
	ModelPath        string  // Detector weights (.onnx for YOLO, .pb for SSD)
	ModelConfigPath  string  // SSD graph description (.pbtxt); empty selects YOLO
	ClassNamesPath   string  // Optional newline-separated class names
	Confidence       float64 // Detector confidence threshold
	NMSThreshold     float64
	Display          bool
	SnapshotDir      string
	AccidentLogDir   string
	FrameDirectory   string
	DatabasePath     string
	LogDirectory     string
	PoleID           string
	Location         string
	FrameBufferLimit int           // Flagged frames written to disk per flush window
	FlushInterval    time.Duration // How often buffered frames are flushed
	ListenAddr       string        // HTTP API address, empty to disable
	APIToken         string
	NatsURL          string // Alert bus, empty to disable
	NatsSubject      string
}

// envFiles are tried in order; the first one found is loaded.
var envFiles = []string{".env", "../.env", "/etc/smartpole/.env"}

// Load reads an optional dotenv file and builds the configuration from the environment.
// When envFile is empty the default locations are tried.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	} else {
		for _, path := range envFiles {
			if err := godotenv.Load(path); err == nil {
				break
			}
		}
	}

	cfg := &Config{
		VideoSource:      getEnv("VIDEO_SOURCE", "0"),
		OutputPath:       getEnv("OUTPUT_PATH", ""),
		ModelPath:        getEnv("MODEL_PATH", "yolov8n.onnx"),
		ModelConfigPath:  getEnv("MODEL_CONFIG_PATH", ""),
		ClassNamesPath:   getEnv("CLASS_NAMES_PATH", ""),
		Confidence:       getEnvAsFloat("CONFIDENCE", 0.5),
		NMSThreshold:     getEnvAsFloat("NMS_THRESHOLD", 0.45),
		Display:          getEnvAsBool("DISPLAY_ENABLED", true),
		SnapshotDir:      getEnv("SNAPSHOT_DIR", "."),
		AccidentLogDir:   getEnv("ACCIDENT_LOG_DIR", "accident_logs"),
		FrameDirectory:   getEnv("FRAME_DIR", "accident_frames"),
		DatabasePath:     getEnv("DB_PATH", filepath.Join("data", "accidents.db")),
		LogDirectory:     getEnv("LOG_DIR", "logs"),
		PoleID:           getEnv("POLE_ID", "POLE-001"),
		Location:         getEnv("POLE_LOCATION", "Highway Section A (Placeholder GPS)"),
		FrameBufferLimit: getEnvAsInt("BUFFER_LIMIT", 10),
		FlushInterval:    time.Duration(getEnvAsInt("FLUSH_INTERVAL", 30)) * time.Second,
		ListenAddr:       getEnv("LISTEN_ADDR", ""),
		APIToken:         getEnv("API_TOKEN", ""),
		NatsURL:          getEnv("NATS_URL", ""),
		NatsSubject:      getEnv("NATS_SUBJECT", "accidents"),
	}

	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if !inUnitRange(c.Confidence) {
		return fmt.Errorf("confidence must be within [0,1], got %v", c.Confidence)
	}
	if !inUnitRange(c.NMSThreshold) {
		return fmt.Errorf("nms threshold must be within [0,1], got %v", c.NMSThreshold)
	}
	if strings.TrimSpace(c.VideoSource) == "" {
		return errors.New("video source is required")
	}
	if c.ModelPath == "" {
		return errors.New("model path is required")
	}
	if c.FrameBufferLimit < 0 {
		return fmt.Errorf("buffer limit must not be negative, got %d", c.FrameBufferLimit)
	}
	if c.FlushInterval <= 0 {
		return fmt.Errorf("flush interval must be positive, got %s", c.FlushInterval)
	}
	return nil
}

// inUnitRange is false for NaN as well as for values outside [0,1].
func inUnitRange(v float64) bool {
	return v >= 0 && v <= 1
}

// CameraIndex returns the device index when the video source is all digits.
func (c *Config) CameraIndex() (int, bool) {
	for _, r := range c.VideoSource {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	idx, err := strconv.Atoi(c.VideoSource)
	if err != nil {
		return 0, false
	}
	return idx, true
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
