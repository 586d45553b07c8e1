package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
	"webcapture/internal/config"
	"webcapture/internal/logger"
	"webcapture/internal/model"
	"webcapture/internal/route"
	"webcapture/internal/service"
	"webcapture/internal/service/camera"
	"webcapture/internal/service/compositor"
	"webcapture/internal/service/detection"
	"webcapture/internal/service/location"
	"webcapture/internal/service/vision"
	"webcapture/internal/service/websocket"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	config     *config.Config
	logger     *logger.Logger
	hubService *websocket.HubService
	manager    *service.Manager
}

func NewApp() (*App, error) {
	cfg := config.Load()
	log := logger.NewLogger(cfg)

	session := camera.NewSession(vision.NewDevice(cfg, log), Profiles(cfg), log)

	font, err := compositor.LoadFont(cfg.FontPath)
	if err != nil {
		return nil, fmt.Errorf("load font: %w", err)
	}
	comp := compositor.NewCompositor(font, vision.JPEGEncoder{}, cfg.JPEGQuality, log)

	client := &http.Client{Timeout: cfg.FallbackTimeout}
	geocoder := location.NewNominatimGeocoder(cfg.GeocoderURL, cfg.GeocoderUserAgent, client)
	resolver := location.NewResolver(Geolocator(cfg, client), geocoder, Settings(cfg), log)

	hub := websocket.NewHubService(log)
	state := &detection.State{}
	state.OnChange(hub.PublishPresence)

	mng := service.NewManager(session, comp, resolver, state, cfg.DetectionFPS, log)

	return &App{
		config:     cfg,
		logger:     log,
		hubService: hub,
		manager:    mng,
	}, nil
}

// Profiles builds the per device-class resolution requests.
func Profiles(cfg *config.Config) map[model.DeviceClass]model.ResolutionProfile {
	return map[model.DeviceClass]model.ResolutionProfile{
		model.DeviceMobile:  {Width: cfg.MobileWidth, Height: cfg.MobileHeight},
		model.DeviceDesktop: {Width: cfg.DesktopWidth, Height: cfg.DesktopHeight},
	}
}

// Geolocator picks the position provider. "none" disables geolocation.
func Geolocator(cfg *config.Config, client *http.Client) location.Geolocator {
	switch cfg.GeolocationProvider {
	case "static":
		return location.NewStaticGeolocator(cfg.StaticLatitude, cfg.StaticLongitude, cfg.StaticAccuracy)
	case "none", "off":
		return nil
	}
	return location.NewIPGeolocator(cfg.IPGeolocationURL, cfg.IPAccuracy, client)
}

// Settings copies the resolver timeouts from the config.
func Settings(cfg *config.Config) location.Settings {
	return location.Settings{
		MobileTimeout:     cfg.MobileTimeout,
		DesktopTimeout:    cfg.DesktopTimeout,
		FallbackTimeout:   cfg.FallbackTimeout,
		MaximumAge:        cfg.MaximumAge,
		AccuracyThreshold: cfg.AccuracyThreshold,
	}
}

// Run serves HTTP until ctx is cancelled, then shuts everything down.
func (a *App) Run(ctx context.Context) error {
	// Start background services
	go a.hubService.Run()
	a.manager.LoadModel(func() (detection.Estimator, error) {
		return vision.LoadEstimator(a.config, a.logger)
	})

	// Setup routes
	router := route.SetupRoutes(a.manager, a.hubService, a.config, a.logger)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.config.Port),
		Handler: router,
	}

	fmt.Printf("📷 Attendance Camera Server\n")
	fmt.Printf("📍 URL: http://localhost:%d\n", a.config.Port)
	fmt.Printf("🎥 Cameras: front=%d rear=%d\n", a.config.FrontCameraID, a.config.RearCameraID)
	fmt.Printf("🤖 Face detector: %s\n", a.config.FaceDetector)
	fmt.Printf("🌍 Geolocation: %s\n", a.config.GeolocationProvider)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		a.logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err = server.Shutdown(shutdownCtx)
	}

	a.manager.Shutdown()
	a.hubService.Stop()
	a.logger.Close()

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
