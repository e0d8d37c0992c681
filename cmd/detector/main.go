package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"smartpole/internal/app"
	"smartpole/internal/config"
)

func main() {
	envFile := flag.String("env", "", "Path to a .env file (default: .env, ../.env, /etc/smartpole/.env)")
	videoSource := flag.String("video", "0", "Camera index or video file path")
	output := flag.String("output", "", "Output video path (optional)")
	modelPath := flag.String("model", "yolov8n.onnx", "Detection model (.onnx YOLOv8, or .pb SSD with --model-config)")
	modelConfig := flag.String("model-config", "", "SSD graph description (.pbtxt)")
	classes := flag.String("classes", "", "Class names file, one per line")
	confidence := flag.Float64("confidence", 0.5, "Detection confidence threshold")
	noDisplay := flag.Bool("no-display", false, "Disable the preview window")
	listen := flag.String("listen", "", "HTTP API address, e.g. :8080")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Only flags given on the command line override the environment.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "video":
			cfg.VideoSource = *videoSource
		case "output":
			cfg.OutputPath = *output
		case "model":
			cfg.ModelPath = *modelPath
		case "model-config":
			cfg.ModelConfigPath = *modelConfig
		case "classes":
			cfg.ClassNamesPath = *classes
		case "confidence":
			cfg.Confidence = *confidence
		case "no-display":
			cfg.Display = !*noDisplay
		case "listen":
			cfg.ListenAddr = *listen
		}
	})

	application, err := app.NewApp(cfg)
	if err != nil {
		log.Fatalf("Failed to start detector: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		log.Fatalf("Detector stopped with error: %v", err)
	}
}
