package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"default driver", Config{Bucket: "b"}, ""},
		{"static credentials", Config{Bucket: "b", AccessKey: "a", SecretKey: "s"}, ""},
		{"missing bucket", Config{}, "bucket"},
		{"half credentials", Config{Bucket: "b", AccessKey: "a"}, "both"},
		{"minio without endpoint", Config{Driver: "minio", Bucket: "b"}, "endpoint"},
		{"minio", Config{Driver: "MinIO", Bucket: "b", Endpoint: "localhost:9000"}, ""},
		{"unknown driver", Config{Driver: "gcs", Bucket: "b"}, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestConfig_EndpointURL(t *testing.T) {
	assert.Equal(t, "", Config{}.endpointURL())
	assert.Equal(t, "https://s3.example.com", Config{Endpoint: "s3.example.com", UseSSL: true}.endpointURL())
	assert.Equal(t, "http://localhost:9000", Config{Endpoint: "//localhost:9000"}.endpointURL())
	assert.Equal(t, "http://keep.me", Config{Endpoint: "http://keep.me", UseSSL: true}.endpointURL())
}

func TestConfig_HostPort(t *testing.T) {
	host, secure := Config{Endpoint: "https://minio.local:9000/"}.hostPort()
	assert.Equal(t, "minio.local:9000", host)
	assert.True(t, secure)

	host, secure = Config{Endpoint: "minio.local:9000", UseSSL: false}.hostPort()
	assert.Equal(t, "minio.local:9000", host)
	assert.False(t, secure)
}

func TestConfig_Region(t *testing.T) {
	assert.Equal(t, "us-east-1", Config{}.region())
	assert.Equal(t, "ap-south-1", Config{Region: " ap-south-1 "}.region())
}

func TestNew_SelectsDriver(t *testing.T) {
	s, err := New(Config{Driver: "minio", Bucket: "b", Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "s"})
	assert.NoError(t, err)
	assert.IsType(t, &MinioClient{}, s)

	_, err = New(Config{})
	assert.Error(t, err)
}
