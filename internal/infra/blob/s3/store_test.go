package s3

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	core "rostercore/internal/blob/core"
)

func TestMockPutGetHeadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMockForTests()
	if s.Driver() != core.DriverS3 {
		t.Fatalf("driver = %q", s.Driver())
	}

	body := "id,name\n1,Rangers\n"
	info, err := s.Put(ctx, "imports/job-1/payload.csv", strings.NewReader(body), core.PutOptions{ContentType: "text/csv"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Key != "imports/job-1/payload.csv" {
		t.Fatalf("key = %q", info.Key)
	}
	if info.Size != int64(len(body)) {
		t.Fatalf("size = %d, want %d", info.Size, len(body))
	}
	if info.ContentType != "text/csv" {
		t.Fatalf("content type = %q", info.ContentType)
	}
	if info.ETag == "" || strings.Contains(info.ETag, "\"") {
		t.Fatalf("etag = %q, want unquoted value", info.ETag)
	}

	got, rc, err := s.Get(ctx, "imports/job-1/payload.csv")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != body {
		t.Fatalf("body = %q, want %q", data, body)
	}
	if got.Size != info.Size {
		t.Fatalf("get size = %d, want %d", got.Size, info.Size)
	}

	head, err := s.Head(ctx, "imports/job-1/payload.csv")
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if head.Size != info.Size || head.ContentType != "text/csv" {
		t.Fatalf("head info = %+v", head)
	}
}

func TestMockPutExistingKeyFails(t *testing.T) {
	ctx := context.Background()
	s := NewMockForTests()
	if _, err := s.Put(ctx, "dup", strings.NewReader("one"), core.PutOptions{}); err != nil {
		t.Fatalf("first put: %v", err)
	}
	if _, err := s.Put(ctx, "dup", strings.NewReader("two"), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("second put err = %v, want ErrExists", err)
	}
}

func TestMockMissingKey(t *testing.T) {
	ctx := context.Background()
	s := NewMockForTests()
	if _, _, err := s.Get(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("get err = %v, want ErrNotFound", err)
	}
	if _, err := s.Head(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("head err = %v, want ErrNotFound", err)
	}
}

func TestMockDeleteReportsExistence(t *testing.T) {
	ctx := context.Background()
	s := NewMockForTests()
	if _, err := s.Put(ctx, "gone", strings.NewReader("x"), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if existed, err := s.Delete(ctx, "gone"); err != nil || !existed {
		t.Fatalf("delete = (%v, %v), want (true, nil)", existed, err)
	}
	if existed, err := s.Delete(ctx, "gone"); err != nil || existed {
		t.Fatalf("repeat delete = (%v, %v), want (false, nil)", existed, err)
	}
}

func TestMockListPrefix(t *testing.T) {
	ctx := context.Background()
	s := NewMockForTests()
	for _, key := range []string{"imports/b.json", "archive/z.json", "imports/a.json"} {
		if _, err := s.Put(ctx, key, strings.NewReader("payload"), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	infos, err := s.List(ctx, "imports/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 || infos[0].Key != "imports/a.json" || infos[1].Key != "imports/b.json" {
		t.Fatalf("list = %+v", infos)
	}
	if infos[0].Size != int64(len("payload")) {
		t.Fatalf("listed size = %d", infos[0].Size)
	}
}

func TestMockPresignURL(t *testing.T) {
	ctx := context.Background()
	s := NewMockForTests()
	url, err := s.PresignURL(ctx, "any/key", core.SignedURLOptions{})
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	if !strings.Contains(url, "mock-bucket") || !strings.Contains(url, "any/key") {
		t.Fatalf("url = %q", url)
	}
	if !strings.Contains(url, "X-Amz-Signature") {
		t.Fatalf("url missing signature: %q", url)
	}
	if _, err := s.PresignURL(ctx, "any/key", core.SignedURLOptions{Method: "DELETE"}); !errors.Is(err, core.ErrUnsupported) {
		t.Fatalf("non-GET err = %v, want ErrUnsupported", err)
	}
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatal("expected error without bucket")
	}
}

func TestOpenFromEnv(t *testing.T) {
	t.Setenv("ROSTERCORE_BLOB_S3_BUCKET", "")
	if _, err := OpenFromEnv(context.Background()); err == nil || !strings.Contains(err.Error(), "ROSTERCORE_BLOB_S3_BUCKET") {
		t.Fatalf("err = %v, want missing bucket error", err)
	}

	t.Setenv("ROSTERCORE_BLOB_S3_BUCKET", "payloads")
	t.Setenv("ROSTERCORE_BLOB_S3_REGION", "eu-west-1")
	t.Setenv("ROSTERCORE_BLOB_S3_ENDPOINT", "https://minio.local:9000")
	t.Setenv("ROSTERCORE_BLOB_S3_PATH_STYLE", "true")
	s, err := OpenFromEnv(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if s.Driver() != core.DriverS3 {
		t.Fatalf("driver = %q", s.Driver())
	}
	if s.bucket != "payloads" {
		t.Fatalf("bucket = %q", s.bucket)
	}
}
