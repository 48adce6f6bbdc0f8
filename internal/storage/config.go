package storage

import (
	"fmt"
	"strings"
)

// Drivers understood by New.
const (
	DriverS3    = "s3"
	DriverMinio = "minio"
)

const defaultRegion = "us-east-1"

// Config encapsulates the connection info for an S3-compatible store.
// Credentials are opaque; when both keys are empty the driver falls back to
// its default credential chain.
type Config struct {
	Driver    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	PathStyle bool
}

// Validate checks the settings a driver cannot work without.
func (c Config) Validate() error {
	if c.Bucket == "" {
		return fmt.Errorf("storage bucket must be provided")
	}
	if (c.AccessKey == "") != (c.SecretKey == "") {
		return fmt.Errorf("storage credentials must provide both access and secret key")
	}
	switch c.driver() {
	case DriverS3:
	case DriverMinio:
		if c.Endpoint == "" {
			return fmt.Errorf("minio endpoint must be provided")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Driver)
	}
	return nil
}

func (c Config) driver() string {
	d := strings.ToLower(strings.TrimSpace(c.Driver))
	if d == "" {
		return DriverS3
	}
	return d
}

func (c Config) region() string {
	region := strings.TrimSpace(c.Region)
	if region == "" {
		return defaultRegion
	}
	return region
}

// endpointURL returns the endpoint with a scheme, as the AWS SDK expects.
func (c Config) endpointURL() string {
	endpoint := strings.TrimSpace(c.Endpoint)
	if endpoint == "" {
		return ""
	}
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	scheme := "https"
	if !c.UseSSL {
		scheme = "http"
	}
	return fmt.Sprintf("%s://%s", scheme, strings.TrimPrefix(endpoint, "//"))
}

// hostPort returns the endpoint without a scheme, as minio-go expects, and
// whether TLS should be used.
func (c Config) hostPort() (string, bool) {
	endpoint := strings.TrimSpace(c.Endpoint)
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		return strings.TrimSuffix(strings.TrimPrefix(endpoint, "https://"), "/"), true
	case strings.HasPrefix(endpoint, "http://"):
		return strings.TrimSuffix(strings.TrimPrefix(endpoint, "http://"), "/"), false
	default:
		return strings.TrimSuffix(strings.TrimPrefix(endpoint, "//"), "/"), c.UseSSL
	}
}

// New builds the ObjectStorage selected by cfg.Driver.
func New(cfg Config) (ObjectStorage, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.driver() {
	case DriverMinio:
		return NewMinioClient(cfg)
	default:
		return NewS3Client(cfg)
	}
}
