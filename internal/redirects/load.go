package redirects

import (
	"context"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/summitlift/elevator-site/pkg/logging"
)

// maxMappingBytes bounds how much of a mapping object is read from S3.
const maxMappingBytes = 8 << 20

// S3GetObjectAPI is the subset of the S3 client used to fetch the mapping file.
type S3GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// LoadFile reads and compiles the mapping file at path. A missing, unreadable
// or malformed file yields an empty table so the site keeps serving.
func LoadFile(path string, logger *logging.Logger) []Rule {
	if logger == nil {
		logger = logging.Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("redirects: mapping file unavailable, serving without redirects", "path", path, "error", err)
		return []Rule{}
	}
	return compileLogged(data, path, logger)
}

// LoadS3 fetches and compiles the mapping object from S3 with the same
// failure semantics as LoadFile.
func LoadS3(ctx context.Context, api S3GetObjectAPI, bucket, key string, logger *logging.Logger) []Rule {
	if logger == nil {
		logger = logging.Default()
	}
	location := "s3://" + bucket + "/" + key
	if api == nil {
		logger.Warn("redirects: s3 client not configured", "location", location)
		return []Rule{}
	}

	out, err := api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		logger.Warn("redirects: mapping object unavailable, serving without redirects", "location", location, "error", err)
		return []Rule{}
	}
	defer out.Body.Close()

	data, err := io.ReadAll(io.LimitReader(out.Body, maxMappingBytes))
	if err != nil {
		logger.Warn("redirects: read mapping object failed", "location", location, "error", err)
		return []Rule{}
	}
	return compileLogged(data, location, logger)
}

func compileLogged(data []byte, location string, logger *logging.Logger) []Rule {
	mappings, skipped, err := Decode(data)
	if err != nil {
		logger.Warn("redirects: malformed mapping file, serving without redirects", "location", location, "error", err)
		return []Rule{}
	}
	for _, entryErr := range skipped {
		logger.Warn("redirects: skipping malformed mapping", "location", location, "index", entryErr.Index, "error", entryErr.Err)
	}
	rules := Compile(mappings)
	logger.Info("redirects: table compiled", "location", location, "mappings", len(mappings), "rules", len(rules))
	return rules
}
