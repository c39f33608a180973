package slug

import (
	"errors"
	"testing"
)

func TestMake(t *testing.T) {
	cases := map[string]string{
		"무물 카페":             "무물-카페",
		"  Hello, World!  ": "hello-world",
		"서울시 -- 강남구 민원실":    "서울시-강남구-민원실",
		"Ｆｕｌｌｗｉｄｔｈ ＡＢＣ":     "fullwidth-abc",
		"__edge__":          "edge",
		"카페&베이커리 (본점)":      "카페베이커리-본점",
		"":                  "",
	}
	for input, want := range cases {
		if got := Make(input); got != want {
			t.Fatalf("Make(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestUnique(t *testing.T) {
	taken := map[string]bool{"cafe": true, "cafe-1": true}
	got, err := Unique("cafe", func(c string) (bool, error) { return taken[c], nil })
	if err != nil {
		t.Fatalf("unique: %v", err)
	}
	if got != "cafe-2" {
		t.Fatalf("expected cafe-2, got %q", got)
	}

	got, err = Unique("bakery", func(string) (bool, error) { return false, nil })
	if err != nil || got != "bakery" {
		t.Fatalf("expected bakery, got %q (err=%v)", got, err)
	}

	boom := errors.New("db down")
	if _, err := Unique("x", func(string) (bool, error) { return false, boom }); !errors.Is(err, boom) {
		t.Fatalf("expected probe error, got %v", err)
	}
	if _, err := Unique("", nil); err == nil {
		t.Fatal("expected empty base to fail")
	}
}
