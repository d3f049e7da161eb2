package config

import (
	"encoding/json"
	"os"

	"github.com/seichilog/seichilog/internal/flagx"
	"github.com/seichilog/seichilog/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for interval fields, which allows
// parsing both string values such as "1h" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON configuration
// files. After unmarshalling, its fields are copied into the runtime Config
// struct which uses time.Duration.
type JsonConfig struct {
	EndpointAddrHTTP string         `json:"endpoint_addr_http"`
	DatabaseDSN      string         `json:"database_dsn"`
	SecretKey        string         `json:"secret_key"`
	S3RootUser       string         `json:"s3_root_user"`
	S3RootPassword   string         `json:"s3_root_password"`
	S3Bucket         string         `json:"s3_bucket"`
	S3Region         string         `json:"s3_region"`
	S3BaseEndpoint   string         `json:"s3_base_endpoint"`
	UploadSlotTTL    timex.Duration `json:"upload_slot_ttl"`
	CDNDomain        string         `json:"cdn_domain"`
	MapboxToken      string         `json:"mapbox_token"`
	MapboxBaseURL    string         `json:"mapbox_base_url"`
	GeocodeCountry   string         `json:"geocode_country"`
	GeocodeLanguage  string         `json:"geocode_language"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path comes from the -c or -config command-line
// flags; if neither is set, no JSON file is loaded.
//
// If the file cannot be read or contains invalid JSON, the function panics.
// Only non-zero JSON values override the existing Config fields, so defaults
// survive a partial file.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.EndpointAddrHTTP != "" {
		config.EndpointAddrHTTP = c.EndpointAddrHTTP
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.S3RootUser != "" {
		config.S3RootUser = c.S3RootUser
	}
	if c.S3RootPassword != "" {
		config.S3RootPassword = c.S3RootPassword
	}
	if c.S3Bucket != "" {
		config.S3Bucket = c.S3Bucket
	}
	if c.S3Region != "" {
		config.S3Region = c.S3Region
	}
	if c.S3BaseEndpoint != "" {
		config.S3BaseEndpoint = c.S3BaseEndpoint
	}
	if c.UploadSlotTTL.Duration != 0 {
		config.UploadSlotTTL = c.UploadSlotTTL.Duration
	}
	if c.CDNDomain != "" {
		config.CDNDomain = c.CDNDomain
	}
	if c.MapboxToken != "" {
		config.MapboxToken = c.MapboxToken
	}
	if c.MapboxBaseURL != "" {
		config.MapboxBaseURL = c.MapboxBaseURL
	}
	if c.GeocodeCountry != "" {
		config.GeocodeCountry = c.GeocodeCountry
	}
	if c.GeocodeLanguage != "" {
		config.GeocodeLanguage = c.GeocodeLanguage
	}
}
