package fs

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"simcore/internal/blob/core"
)

func TestPutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	info, err := s.Put(ctx, "coverage/cov_1.json", bytes.NewReader([]byte(`{"total":1000}`)), core.PutOptions{
		ContentType: "application/json",
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.ETag == "" || info.Size != 14 {
		t.Fatalf("info = %+v", info)
	}

	got, rc, err := s.Get(ctx, "coverage/cov_1.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer rc.Close()
	b, _ := io.ReadAll(rc)
	if string(b) != `{"total":1000}` {
		t.Fatalf("content = %q", b)
	}
	if got.ETag != info.ETag {
		t.Fatalf("etag mismatch: %q vs %q", got.ETag, info.ETag)
	}
}

func TestPutRejectsExistingKey(t *testing.T) {
	ctx := context.Background()
	s, _ := New(t.TempDir())
	if _, err := s.Put(ctx, "k", strings.NewReader("a"), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := s.Put(ctx, "k", strings.NewReader("b"), core.PutOptions{}); err == nil {
		t.Fatal("duplicate put succeeded")
	}
}

func TestSanitizeKeyRejectsTraversal(t *testing.T) {
	ctx := context.Background()
	s, _ := New(t.TempDir())
	for _, key := range []string{"", "  ", "../escape", "/abs", "a/../../b"} {
		if _, err := s.Put(ctx, key, strings.NewReader("x"), core.PutOptions{}); err == nil {
			t.Fatalf("key %q accepted", key)
		}
	}
}

func TestListAndDelete(t *testing.T) {
	ctx := context.Background()
	s, _ := New(t.TempDir())
	s.Put(ctx, "coverage/a.json", strings.NewReader("a"), core.PutOptions{})
	s.Put(ctx, "coverage/b.lcov", strings.NewReader("b"), core.PutOptions{})

	infos, err := s.List(ctx, "coverage/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("list = %+v", infos)
	}

	ok, err := s.Delete(ctx, "coverage/a.json")
	if err != nil || !ok {
		t.Fatalf("delete: ok=%v err=%v", ok, err)
	}
	ok, _ = s.Delete(ctx, "coverage/a.json")
	if ok {
		t.Fatal("second delete reported existing")
	}
	if _, err := s.Head(ctx, "coverage/a.json"); err == nil {
		t.Fatal("head after delete succeeded")
	}
}

func TestPresignLocalURL(t *testing.T) {
	ctx := context.Background()
	s, _ := New(t.TempDir())
	u, err := s.PresignURL(ctx, "coverage/a.json", core.SignedURLOptions{})
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	if !strings.HasPrefix(u, "http://local.blob/") {
		t.Fatalf("url = %q", u)
	}
	if _, err := s.PresignURL(ctx, "k", core.SignedURLOptions{Method: "PUT"}); err == nil {
		t.Fatal("non-GET presign succeeded")
	}
}
