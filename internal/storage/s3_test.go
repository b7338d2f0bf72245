package storage

import (
	"slices"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
)

func TestBucketCORS(t *testing.T) {
	tests := []struct {
		name    string
		origins []string
		want    []string
	}{
		{"configured origins", []string{"https://sotf-mods.com", "http://localhost:4000"}, []string{"https://sotf-mods.com", "http://localhost:4000"}},
		{"no origins", nil, []string{"*"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := BucketCORS(tt.origins)
			if len(policy.CORSRules) != 1 {
				t.Fatalf("rules = %d, want 1", len(policy.CORSRules))
			}
			rule := policy.CORSRules[0]
			if !slices.Equal(rule.AllowedOrigins, tt.want) {
				t.Errorf("AllowedOrigins = %v, want %v", rule.AllowedOrigins, tt.want)
			}
			if !slices.Contains(rule.AllowedMethods, "PUT") {
				t.Errorf("AllowedMethods = %v, presigned uploads need PUT", rule.AllowedMethods)
			}
			if !slices.Contains(rule.ExposeHeaders, "ETag") {
				t.Errorf("ExposeHeaders = %v", rule.ExposeHeaders)
			}
			if aws.ToInt32(rule.MaxAgeSeconds) != 3600 {
				t.Errorf("MaxAgeSeconds = %d", aws.ToInt32(rule.MaxAgeSeconds))
			}
		})
	}
}
