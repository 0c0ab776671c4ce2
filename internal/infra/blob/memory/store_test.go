package memory

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	core "rostercore/internal/blob/core"
)

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New()
	if s.Driver() != core.DriverMemory {
		t.Fatalf("driver = %q", s.Driver())
	}

	info, err := s.Put(ctx, "rows.csv", strings.NewReader("id,name\n1,R1\n"), core.PutOptions{ContentType: "text/csv"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != int64(len("id,name\n1,R1\n")) || info.ContentType != "text/csv" || info.ETag == "" {
		t.Fatalf("info = %+v", info)
	}

	got, rc, err := s.Get(ctx, "rows.csv")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(data) != "id,name\n1,R1\n" {
		t.Fatalf("body = %q", data)
	}
	if got.ETag != info.ETag {
		t.Fatalf("etag drifted: %q vs %q", got.ETag, info.ETag)
	}

	if _, err := s.Head(ctx, "rows.csv"); err != nil {
		t.Fatalf("head: %v", err)
	}
}

func TestImmutableKeys(t *testing.T) {
	ctx := context.Background()
	s := New()
	if _, err := s.Put(ctx, "k", strings.NewReader("a"), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := s.Put(ctx, "k", strings.NewReader("b"), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("overwrite err = %v, want ErrExists", err)
	}
	if _, err := s.Put(ctx, " ", strings.NewReader("a"), core.PutOptions{}); err == nil {
		t.Fatal("blank key accepted")
	}
}

func TestMissingAndDelete(t *testing.T) {
	ctx := context.Background()
	s := New()
	if _, _, err := s.Get(ctx, "nope"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("get err = %v", err)
	}
	if _, err := s.Head(ctx, "nope"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("head err = %v", err)
	}

	if _, err := s.Put(ctx, "k", strings.NewReader("a"), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if existed, err := s.Delete(ctx, "k"); err != nil || !existed {
		t.Fatalf("delete = (%v, %v)", existed, err)
	}
	if existed, err := s.Delete(ctx, "k"); err != nil || existed {
		t.Fatalf("repeat delete = (%v, %v)", existed, err)
	}
}

func TestListPrefix(t *testing.T) {
	ctx := context.Background()
	s := New()
	for _, key := range []string{"imports/2", "imports/1", "archive/1"} {
		if _, err := s.Put(ctx, key, strings.NewReader(key), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	infos, err := s.List(ctx, "imports/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 || infos[0].Key != "imports/1" || infos[1].Key != "imports/2" {
		t.Fatalf("list = %+v", infos)
	}
}

func TestPresignUnsupported(t *testing.T) {
	s := New()
	if _, err := s.PresignURL(context.Background(), "k", core.SignedURLOptions{}); !errors.Is(err, core.ErrUnsupported) {
		t.Fatalf("presign err = %v, want ErrUnsupported", err)
	}
}

func TestReadsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	md := map[string]string{"a": "1"}
	if _, err := s.Put(ctx, "k", strings.NewReader("x"), core.PutOptions{Metadata: md}); err != nil {
		t.Fatalf("put: %v", err)
	}
	info, _, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	info.Metadata["a"] = "mutated"
	again, err := s.Head(ctx, "k")
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if again.Metadata["a"] != "1" {
		t.Fatalf("stored metadata mutated: %v", again.Metadata)
	}
}
