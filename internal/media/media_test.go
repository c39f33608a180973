package media

import (
	"context"
	"io"
	"strings"
	"testing"

	pkgerrors "github.com/leanai/mumul-backend/pkg/errors"
	"github.com/leanai/mumul-backend/pkg/storage"
)

func newTestUploader(t *testing.T) *Uploader {
	t.Helper()
	store, err := storage.NewLocal(t.TempDir(), "/media/")
	if err != nil {
		t.Fatalf("local storage: %v", err)
	}
	up, err := NewUploader(store)
	if err != nil {
		t.Fatalf("uploader: %v", err)
	}
	return up
}

func TestAllowedByKind(t *testing.T) {
	cases := []struct {
		kind Kind
		name string
		want bool
	}{
		{KindImage, "menu.JPG", true},
		{KindImage, "menu.pdf", false},
		{KindDocument, "report.hwp", true},
		{KindDocument, "archive.zip", true},
		{KindDocument, "script.exe", false},
		{KindExcel, "무물_초기_데이터_입력_양식.xlsx", true},
		{KindExcel, "noext", false},
	}
	for _, tc := range cases {
		if got := Allowed(tc.kind, tc.name); got != tc.want {
			t.Fatalf("Allowed(%s, %q) = %v, want %v", tc.kind, tc.name, got, tc.want)
		}
	}

	err := Validate(KindDocument, "virus.exe")
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSanitizeFileName(t *testing.T) {
	cases := map[string]string{
		"../../etc/passwd": "passwd",
		"my photo.png":     "my-photo.png",
		"dir\\menu.jpg":    "menu.jpg",
		"":                 "",
	}
	for in, want := range cases {
		if got := SanitizeFileName(in); got != want {
			t.Fatalf("SanitizeFileName(%q) = %q, want %q", in, got, want)
		}
	}
	if Stem("a/b/menu board.jpeg") != "menu-board" {
		t.Fatalf("unexpected stem %q", Stem("a/b/menu board.jpeg"))
	}
}

func TestUploaderSaveAndRemove(t *testing.T) {
	up := newTestUploader(t)
	ctx := context.Background()

	key, url, err := up.SaveNamed(ctx, "uploads/store_1/feed", Upload{Filename: "menu board.png", Body: strings.NewReader("png")})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasPrefix(key, "uploads/store_1/feed/menu-board_") || !strings.HasSuffix(key, ".png") {
		t.Fatalf("unexpected key %q", key)
	}
	if url != "/media/"+key {
		t.Fatalf("unexpected url %q", url)
	}
	if up.KeyOf(url) != key {
		t.Fatalf("KeyOf(%q) = %q", url, up.KeyOf(url))
	}

	rc, err := up.Store().Open(ctx, key)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != "png" {
		t.Fatalf("unexpected body %q", body)
	}

	if err := up.RemoveURL(ctx, url); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := up.RemoveURL(ctx, url); err != nil {
		t.Fatalf("second remove should ignore missing object: %v", err)
	}
	if ok, _ := up.Store().Exists(ctx, key); ok {
		t.Fatal("expected object to be gone")
	}
}

func TestUploaderRejectsMissingBody(t *testing.T) {
	up := newTestUploader(t)
	if _, _, err := up.SaveUnique(context.Background(), "banner/store_1", Upload{Filename: "a.png"}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUploaderPurge(t *testing.T) {
	up := newTestUploader(t)
	ctx := context.Background()

	keep, _, err := up.SaveUnique(ctx, "banner/store_2", Upload{Filename: "keep.png", Body: strings.NewReader("x")})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	gone, _, err := up.SaveUnique(ctx, "banner/store_1", Upload{Filename: "gone.png", Body: strings.NewReader("x")})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := up.SaveAs(ctx, "qr_codes/qr_1.png", Upload{Filename: "qr.png", Body: strings.NewReader("x")}); err != nil {
		t.Fatalf("save qr: %v", err)
	}

	if err := up.Purge(ctx, []string{"banner/store_1", "menu_images/store_1"}, []string{"qr_codes/qr_1.png", "qr_codes/qr_missing.png"}); err != nil {
		t.Fatalf("purge: %v", err)
	}
	if ok, _ := up.Store().Exists(ctx, gone); ok {
		t.Fatalf("expected %s to be deleted", gone)
	}
	if ok, _ := up.Store().Exists(ctx, "qr_codes/qr_1.png"); ok {
		t.Fatal("expected qr code to be deleted")
	}
	if ok, _ := up.Store().Exists(ctx, keep); !ok {
		t.Fatalf("expected %s to survive", keep)
	}
}
