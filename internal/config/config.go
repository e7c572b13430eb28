package config

import (
	_ "embed"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed packages.yaml
var packagesYAML []byte

type Config struct {
	Firebase FirebaseConfig
	Vision   VisionConfig
	Gemini   GeminiConfig
	OpenAI   OpenAIConfig
	FacePP   FacePPConfig
	AWS      AWSConfig
	Encoder  EncoderConfig
	Company  CompanyConfig
	Database DatabaseConfig
	Admin    AdminConfig
	Packages PackagesConfig
}

type AdminConfig struct {
	Username      string // dashboard login, defaults to admin
	Password      string // empty disables admin login entirely
	SessionSecret string // HMAC key for session cookies
}

type FirebaseConfig struct {
	ProjectID          string
	StorageBucket      string
	ServiceAccountJSON string // raw or base64 service account payload
	ServiceAccountPath string // path to an existing key file
	KeysDir            string // scanned for *.json as a last resort
	UseFirestore       bool   // Firestore is the default backend; SQL is the fallback
}

type VisionConfig struct {
	Provider string // googlevision, rekognition, facepp, gemini, openai
	Matcher  string // encodings (local HNSW) or rekognition (managed collection)
	MaxFaces int    // max faces requested per detection call
}

type GeminiConfig struct {
	APIKey string
}

type OpenAIConfig struct {
	Token string
}

type FacePPConfig struct {
	URL       string // defaults to https://api-us.faceplusplus.com
	APIKey    string
	APISecret string
}

type AWSConfig struct {
	Region       string
	CollectionID string // Rekognition face collection for identification
}

type EncoderConfig struct {
	URL string // face encoder sidecar, defaults to http://localhost:8000
	Dim int    // encoding dimension, defaults to 128
}

type CompanyConfig struct {
	Latitude          float64
	Longitude         float64
	MaxDistanceMeters int
	Timezone          string // IANA name, defaults to Asia/Phnom_Penh
	DebugFallback     bool   // substitute company coordinates when the client sends none
}

type DatabaseConfig struct {
	URL          string // SQL fallback DSN (postgres:// URL or MySQL DSN)
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

// PackagesConfig describes what `facecheck setup` installs. It is loaded from
// the embedded packages.yaml so the binary carries its own manifest.
type PackagesConfig struct {
	Managers map[string][]string `yaml:"managers"` // package manager -> system packages
	Python   PythonPackages      `yaml:"python"`
}

type PythonPackages struct {
	Requirements []string `yaml:"requirements"` // encoder sidecar dependencies
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable as a float64 with a default.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return defaultVal
}

// envBool reads an environment variable as a boolean. Accepts 1/true/yes in
// any case. Returns the default when unset.
func envBool(key string, defaultVal bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	switch strings.ToLower(s) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

// envString reads an environment variable with a default.
func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func Load() *Config {
	var packages PackagesConfig
	if err := yaml.Unmarshal(packagesYAML, &packages); err != nil {
		// Embedded file, so this cannot happen with a valid build.
		panic("failed to unmarshal embedded packages.yaml: " + err.Error())
	}

	return &Config{
		Firebase: FirebaseConfig{
			ProjectID:          os.Getenv("FIREBASE_PROJECT_ID"),
			StorageBucket:      os.Getenv("FIREBASE_STORAGE_BUCKET"),
			ServiceAccountJSON: os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON"),
			ServiceAccountPath: os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH"),
			KeysDir:            envString("FIREBASE_KEYS_DIR", "keys"),
			UseFirestore:       envBool("USE_FIRESTORE", true),
		},
		Vision: VisionConfig{
			Provider: envString("VISION_PROVIDER", "googlevision"),
			Matcher:  envString("MATCH_PROVIDER", "encodings"),
			MaxFaces: envInt("VISION_MAX_FACES", 10),
		},
		Gemini: GeminiConfig{
			APIKey: os.Getenv("GEMINI_API_KEY"),
		},
		OpenAI: OpenAIConfig{
			Token: os.Getenv("OPENAI_TOKEN"),
		},
		FacePP: FacePPConfig{
			URL:       envString("FACEPP_URL", "https://api-us.faceplusplus.com"),
			APIKey:    os.Getenv("FACEPP_API_KEY"),
			APISecret: os.Getenv("FACEPP_API_SECRET"),
		},
		AWS: AWSConfig{
			Region:       os.Getenv("AWS_REGION"),
			CollectionID: envString("REKOGNITION_COLLECTION_ID", "facecheck-employees"),
		},
		Encoder: EncoderConfig{
			URL: envString("ENCODER_URL", "http://localhost:8000"),
			Dim: envInt("ENCODER_DIM", 128),
		},
		Company: CompanyConfig{
			Latitude:          envFloat("COMPANY_LATITUDE", 13.37488193943832),
			Longitude:         envFloat("COMPANY_LONGITUDE", 103.842437801041),
			MaxDistanceMeters: envInt("MAX_DISTANCE_METERS", 2000),
			Timezone:          envString("COMPANY_TIMEZONE", "Asia/Phnom_Penh"),
			DebugFallback:     envBool("DEBUG_USE_COMPANY_LOCATION", true),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Admin: AdminConfig{
			Username:      envString("ADMIN_USERNAME", "admin"),
			Password:      os.Getenv("ADMIN_PASSWORD"),
			SessionSecret: os.Getenv("SESSION_SECRET"),
		},
		Packages: packages,
	}
}
