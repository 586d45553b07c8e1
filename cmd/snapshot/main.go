package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"log"
	"net/http"
	"os"
	"time"
	"webcapture/internal/app"
	"webcapture/internal/config"
	"webcapture/internal/logger"
	"webcapture/internal/model"
	"webcapture/internal/service"
	"webcapture/internal/service/camera"
	"webcapture/internal/service/compositor"
	"webcapture/internal/service/detection"
	"webcapture/internal/service/location"
	"webcapture/internal/service/vision"
)

func main() {
	facingFlag := flag.String("facing", "rear", "Camera: front or rear")
	categoryFlag := flag.String("category", "check-in", "Capture category: check-in, check-out, sick, leave")
	place := flag.String("location", "", "Location text; resolved from the configured provider when empty")
	endDate := flag.String("end", "", "End date for sick/leave photos")
	out := flag.String("out", "snapshot.jpg", "Output file")
	wait := flag.Duration("wait", 10*time.Second, "How long to wait for the camera (and a face, when required)")
	flag.Parse()

	facing, err := model.ParseFacingMode(*facingFlag)
	if err != nil {
		log.Fatalf("%v", err)
	}
	category, err := model.ParseCaptureCategory(*categoryFlag)
	if err != nil {
		log.Fatalf("%v", err)
	}

	cfg := config.Load()
	lg := logger.NewWriterLogger(os.Stderr)

	font, err := compositor.LoadFont(cfg.FontPath)
	if err != nil {
		log.Fatalf("Failed to load font: %v", err)
	}
	client := &http.Client{Timeout: cfg.FallbackTimeout}
	resolver := location.NewResolver(app.Geolocator(cfg, client),
		location.NewNominatimGeocoder(cfg.GeocoderURL, cfg.GeocoderUserAgent, client), app.Settings(cfg), lg)

	mng := service.NewManager(
		camera.NewSession(vision.NewDevice(cfg, lg), app.Profiles(cfg), lg),
		compositor.NewCompositor(font, vision.JPEGEncoder{}, cfg.JPEGQuality, lg),
		resolver, &detection.State{}, cfg.DetectionFPS, lg)
	defer mng.Shutdown()

	if detection.Required(category, facing) {
		mng.LoadModel(func() (detection.Estimator, error) { return vision.LoadEstimator(cfg, lg) })
	}

	class := model.DeviceClass(cfg.DefaultDevice)
	if *place == "" {
		*place = resolvePlace(mng, app.Settings(cfg).Budget(class), class)
	}

	// The camera wait starts only after the location step is done.
	ctx, cancel := context.WithTimeout(context.Background(), *wait)
	defer cancel()

	if _, err := mng.Open(ctx, facing, class, category); err != nil {
		log.Fatalf("Failed to open camera: %v", err)
	}

	overlay := model.OverlayContext{Location: *place, EndDate: *endDate, Category: category}
	artifact, err := captureWhenReady(ctx, mng, overlay)
	if err != nil {
		log.Fatalf("Capture failed: %v", err)
	}

	if err := os.WriteFile(*out, artifact.Data, 0644); err != nil {
		log.Fatalf("Failed to write %s: %v", *out, err)
	}
	fmt.Printf("✅ Saved %s (%dx%d, %d bytes)\n", *out, artifact.Width, artifact.Height, len(artifact.Data))
	for _, line := range artifact.OverlayLines {
		fmt.Printf("   %s\n", line)
	}
}

// resolvePlace looks the location up within its own budget. A failure only
// costs the caption its address.
func resolvePlace(mng *service.Manager, budget time.Duration, class model.DeviceClass) string {
	ctx, cancel := context.WithTimeout(context.Background(), budget+time.Second)
	defer cancel()

	geo, err := mng.Resolve(ctx, class)
	if err != nil {
		fmt.Printf("⚠️  %s\n", location.Message(err))
		return ""
	}
	fmt.Printf("🌍 %s (%s)\n", geo.Address, geo.MapURL)
	return geo.Address
}

// captureWhenReady retries while the camera warms up or no face is in view.
func captureWhenReady(ctx context.Context, mng *service.Manager, overlay model.OverlayContext) (*model.CapturedArtifact, error) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		artifact, err := mng.Capture(ctx, overlay, image.Point{})
		if err == nil {
			return artifact, nil
		}
		if !errors.Is(err, compositor.ErrSourceNotReady) && !errors.Is(err, service.ErrFaceNotDetected) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w (last: %v)", ctx.Err(), err)
		case <-ticker.C:
		}
	}
}
