package aws

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
)

func TestObjectURL(t *testing.T) {
	tests := []struct {
		name   string
		client *S3Client
		want   string
	}{
		{
			name:   "public url",
			client: &S3Client{Bucket: aws.String("logos"), public: "https://cdn.example/"},
			want:   "https://cdn.example/startups/1/logo.png",
		},
		{
			name:   "custom endpoint",
			client: &S3Client{Bucket: aws.String("logos"), endpoint: "http://localhost:9000"},
			want:   "http://localhost:9000/logos/startups/1/logo.png",
		},
		{
			name:   "aws",
			client: &S3Client{Bucket: aws.String("logos"), region: "eu-central-1"},
			want:   "https://logos.s3.eu-central-1.amazonaws.com/startups/1/logo.png",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.client.ObjectURL("startups/1/logo.png"))
		})
	}
}
