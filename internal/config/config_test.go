package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0", cfg.VideoSource)
	assert.Equal(t, "yolov8n.onnx", cfg.ModelPath)
	assert.Equal(t, 0.5, cfg.Confidence)
	assert.True(t, cfg.Display)
	assert.Equal(t, "accident_logs", cfg.AccidentLogDir)
	assert.Equal(t, "POLE-001", cfg.PoleID)
	assert.Equal(t, "Highway Section A (Placeholder GPS)", cfg.Location)
	assert.Equal(t, 30*time.Second, cfg.FlushInterval)
	assert.Empty(t, cfg.ListenAddr)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("VIDEO_SOURCE", "highway.mp4")
	t.Setenv("CONFIDENCE", "0.65")
	t.Setenv("DISPLAY_ENABLED", "false")
	t.Setenv("FLUSH_INTERVAL", "5")
	t.Setenv("BUFFER_LIMIT", "not-a-number")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "highway.mp4", cfg.VideoSource)
	assert.Equal(t, 0.65, cfg.Confidence)
	assert.False(t, cfg.Display)
	assert.Equal(t, 5*time.Second, cfg.FlushInterval)
	assert.Equal(t, 10, cfg.FrameBufferLimit, "invalid values fall back to defaults")
}

func TestLoad_NaNConfidenceRejected(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONFIDENCE", "NaN")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(cfg.Confidence))
	assert.Error(t, cfg.Validate())
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, "pole.env")
	require.NoError(t, os.WriteFile(envPath, []byte("POLE_ID=POLE-042\nNATS_SUBJECT=alerts.pole42\n"), 0644))
	t.Cleanup(func() {
		os.Unsetenv("POLE_ID")
		os.Unsetenv("NATS_SUBJECT")
	})

	cfg, err := Load(envPath)
	require.NoError(t, err)

	assert.Equal(t, "POLE-042", cfg.PoleID)
	assert.Equal(t, "alerts.pole42", cfg.NatsSubject)
}

func TestLoad_MissingEnvFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{VideoSource: "0", ModelPath: "m.onnx", Confidence: 0.5, NMSThreshold: 0.45, FlushInterval: time.Second}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"confidence below zero", func(c *Config) { c.Confidence = -0.1 }},
		{"confidence above one", func(c *Config) { c.Confidence = 1.01 }},
		{"nan confidence", func(c *Config) { c.Confidence = math.NaN() }},
		{"nan nms", func(c *Config) { c.NMSThreshold = math.NaN() }},
		{"nms above one", func(c *Config) { c.NMSThreshold = 2 }},
		{"empty video source", func(c *Config) { c.VideoSource = "  " }},
		{"empty model", func(c *Config) { c.ModelPath = "" }},
		{"negative buffer", func(c *Config) { c.FrameBufferLimit = -1 }},
		{"zero flush interval", func(c *Config) { c.FlushInterval = 0 }},
	}

	require.NoError(t, valid().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestCameraIndex(t *testing.T) {
	tests := []struct {
		source string
		index  int
		ok     bool
	}{
		{"0", 0, true},
		{"12", 12, true},
		{"traffic.mp4", 0, false},
		{"rtsp://10.0.0.5/stream", 0, false},
		{"-1", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		cfg := &Config{VideoSource: tt.source}
		index, ok := cfg.CameraIndex()
		assert.Equal(t, tt.ok, ok, tt.source)
		assert.Equal(t, tt.index, index, tt.source)
	}
}
