package redirects

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakeS3 struct {
	body   string
	err    error
	bucket string
	key    string
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.bucket = aws.ToString(params.Bucket)
	f.key = aws.ToString(params.Key)
	if f.err != nil {
		return nil, f.err
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(f.body))}, nil
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "redirects.json")
	content := `[{"source": "/a", "destination": "/b"}, {"source": "/a", "destination": "/c"}]`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	rules := LoadFile(path, nil)
	if len(rules) != 1 || rules[0].Destination != "/b" {
		t.Fatalf("unexpected rules %v", rules)
	}
}

func TestLoadFile_MissingFileYieldsEmpty(t *testing.T) {
	rules := LoadFile(filepath.Join(t.TempDir(), "absent.json"), nil)
	if rules == nil || len(rules) != 0 {
		t.Fatalf("expected empty table, got %#v", rules)
	}
}

func TestLoadFile_InvalidJSONYieldsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "redirects.json")
	if err := os.WriteFile(path, []byte("not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if rules := LoadFile(path, nil); len(rules) != 0 {
		t.Fatalf("expected empty table, got %v", rules)
	}
}

func TestLoadS3(t *testing.T) {
	api := &fakeS3{body: `[{"source": "/x", "destination": "/y", "query": {"k": "v"}}]`}
	rules := LoadS3(context.Background(), api, "site-config", "redirects.json", nil)
	if len(rules) != 1 || len(rules[0].Matchers) != 1 {
		t.Fatalf("unexpected rules %v", rules)
	}
	if api.bucket != "site-config" || api.key != "redirects.json" {
		t.Fatalf("unexpected object location %s/%s", api.bucket, api.key)
	}
}

func TestLoadS3_FailuresYieldEmpty(t *testing.T) {
	cases := map[string]S3GetObjectAPI{
		"fetch error": &fakeS3{err: errors.New("access denied")},
		"bad json":    &fakeS3{body: "{"},
		"no client":   nil,
	}
	for name, api := range cases {
		t.Run(name, func(t *testing.T) {
			rules := LoadS3(context.Background(), api, "b", "k", nil)
			if rules == nil || len(rules) != 0 {
				t.Fatalf("expected empty table, got %#v", rules)
			}
		})
	}
}
