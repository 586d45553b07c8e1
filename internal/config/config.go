package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         int
	LogDirectory string
	StaticDir    string

	// Camera
	FrontCameraID  int
	RearCameraID   int
	MobileWidth    int
	MobileHeight   int
	DesktopWidth   int
	DesktopHeight  int
	DefaultDevice  string // "mobile" or "desktop" when the User-Agent says nothing
	DetectionFPS   int    // Face presence checks per second
	FaceDetector   string // "cascade" or "dnn"
	CascadePath    string
	FaceModelPath  string
	FaceConfigPath string
	FaceConfidence float64

	// Capture
	JPEGQuality int // 1-100, one value per deployment
	FontPath    string

	// Location
	GeolocationProvider string // "static" or "ip"
	StaticLatitude      float64
	StaticLongitude     float64
	StaticAccuracy      float64
	IPGeolocationURL    string
	IPAccuracy          float64
	GeocoderURL         string
	GeocoderUserAgent   string
	AccuracyThreshold   float64 // meters
	MobileTimeout       time.Duration
	DesktopTimeout      time.Duration
	FallbackTimeout     time.Duration
	MaximumAge          time.Duration
}

// Load reads an optional .env file and then the process environment.
func Load() *Config {
	// A missing .env file is fine
	_ = godotenv.Load()

	return &Config{
		Port:         getEnvAsInt("PORT", 8080),
		LogDirectory: getEnv("LOG_DIR", filepath.Join(".", "logs")),
		StaticDir:    getEnv("STATIC_DIR", filepath.Join(".", "static")),

		FrontCameraID:  getEnvAsInt("FRONT_CAMERA_ID", 0),
		RearCameraID:   getEnvAsInt("REAR_CAMERA_ID", 1),
		MobileWidth:    getEnvAsInt("MOBILE_WIDTH", 720),
		MobileHeight:   getEnvAsInt("MOBILE_HEIGHT", 1280),
		DesktopWidth:   getEnvAsInt("DESKTOP_WIDTH", 1280),
		DesktopHeight:  getEnvAsInt("DESKTOP_HEIGHT", 720),
		DefaultDevice:  getEnv("DEFAULT_DEVICE", "desktop"),
		DetectionFPS:   getEnvAsInt("DETECTION_FPS", 30),
		FaceDetector:   getEnv("FACE_DETECTOR", "cascade"),
		CascadePath:    getEnv("CASCADE_PATH", filepath.Join(".", "models", "haarcascade_frontalface_default.xml")),
		FaceModelPath:  getEnv("FACE_MODEL_PATH", filepath.Join(".", "models", "res10_300x300_ssd_iter_140000.caffemodel")),
		FaceConfigPath: getEnv("FACE_CONFIG_PATH", filepath.Join(".", "models", "deploy.prototxt")),
		FaceConfidence: getEnvAsFloat("FACE_CONFIDENCE", 0.6),

		JPEGQuality: getEnvAsInt("JPEG_QUALITY", 80),
		FontPath:    getEnv("FONT_PATH", ""),

		GeolocationProvider: getEnv("GEOLOCATION_PROVIDER", "ip"),
		StaticLatitude:      getEnvAsFloat("STATIC_LATITUDE", 0),
		StaticLongitude:     getEnvAsFloat("STATIC_LONGITUDE", 0),
		StaticAccuracy:      getEnvAsFloat("STATIC_ACCURACY", 10),
		IPGeolocationURL:    getEnv("IP_GEOLOCATION_URL", "http://ip-api.com/json"),
		IPAccuracy:          getEnvAsFloat("IP_ACCURACY", 5000),
		GeocoderURL:         getEnv("GEOCODER_URL", "https://nominatim.openstreetmap.org/reverse"),
		GeocoderUserAgent:   getEnv("GEOCODER_USER_AGENT", "attendcam/1.0"),
		AccuracyThreshold:   getEnvAsFloat("ACCURACY_THRESHOLD", 300),
		MobileTimeout:       getEnvAsDuration("MOBILE_TIMEOUT", 15*time.Second),
		DesktopTimeout:      getEnvAsDuration("DESKTOP_TIMEOUT", 20*time.Second),
		FallbackTimeout:     getEnvAsDuration("FALLBACK_TIMEOUT", 20*time.Second),
		MaximumAge:          getEnvAsDuration("MAXIMUM_AGE", 60*time.Second),
	}
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

// getEnvAsDuration accepts Go durations ("15s") or plain milliseconds ("15000").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultValue
}
