package controllers

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/leanai/mumul-backend/api/middleware"
	"github.com/leanai/mumul-backend/internal/menus"
	"github.com/leanai/mumul-backend/pkg/enums"
	"github.com/leanai/mumul-backend/pkg/logger"
)

type stubMenuService struct {
	menus.Service
	ownerID uuid.UUID
	storeID uuid.UUID
	inputs  []menus.CreateInput
	images  []string
}

func (s *stubMenuService) Create(_ context.Context, ownerID, storeID uuid.UUID, inputs []menus.CreateInput) ([]menus.MenuDTO, error) {
	s.ownerID, s.storeID, s.inputs = ownerID, storeID, inputs
	out := make([]menus.MenuDTO, len(inputs))
	for i, in := range inputs {
		out[i] = menus.MenuDTO{MenuNumber: int64(i + 1), StoreID: storeID, Name: in.Name}
		if in.Image != nil {
			s.images = append(s.images, in.Image.Filename)
		}
	}
	return out, nil
}

func multipartRequest(t *testing.T, fields map[string]string, files map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	for k, name := range files {
		fw, err := mw.CreateFormFile(k, name)
		if err != nil {
			t.Fatalf("create file: %v", err)
		}
		if _, err := fw.Write([]byte("img")); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func withStoreRoute(req *http.Request, ownerID, storeID uuid.UUID) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("storeID", storeID.String())
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = middleware.WithIdentity(ctx, ownerID.String(), enums.AccountKindStoreOwner, storeID.String())
	return req.WithContext(ctx)
}

func TestMenuCreateIndexedForm(t *testing.T) {
	ownerID, storeID := uuid.New(), uuid.New()
	svc := &stubMenuService{}
	req := multipartRequest(t, map[string]string{
		"menus[1][name]":  "라떼",
		"menus[1][price]": "5000",
		"menus[0][name]":  "아메리카노",
		"menus[0][price]": "4500",
		"menus[0][spicy]": "0",
	}, map[string]string{"menus[1][image]": "latte.png"})
	req = withStoreRoute(req, ownerID, storeID)

	resp := httptest.NewRecorder()
	MenuCreate(svc, 1<<20, logger.Nop()).ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.ownerID != ownerID || svc.storeID != storeID {
		t.Fatalf("unexpected owner/store %s %s", svc.ownerID, svc.storeID)
	}
	if len(svc.inputs) != 2 || svc.inputs[0].Name != "아메리카노" || svc.inputs[1].Name != "라떼" {
		t.Fatalf("expected menus in index order, got %+v", svc.inputs)
	}
	if svc.inputs[0].Spicy == nil || *svc.inputs[0].Spicy != "0" {
		t.Fatalf("expected spicy carried through")
	}
	if len(svc.images) != 1 || svc.images[0] != "latte.png" {
		t.Fatalf("expected image for second menu, got %v", svc.images)
	}
}

func TestMenuCreateFlatForm(t *testing.T) {
	ownerID, storeID := uuid.New(), uuid.New()
	svc := &stubMenuService{}
	req := multipartRequest(t, map[string]string{"name": "김밥", "price": "3000"}, map[string]string{"image": "kimbap.jpg"})
	req = withStoreRoute(req, ownerID, storeID)

	resp := httptest.NewRecorder()
	MenuCreate(svc, 1<<20, logger.Nop()).ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if len(svc.inputs) != 1 || svc.inputs[0].Price != "3000" || svc.inputs[0].Image == nil {
		t.Fatalf("unexpected inputs %+v", svc.inputs)
	}
}

func TestMenuCreateEmptyForm(t *testing.T) {
	ownerID, storeID := uuid.New(), uuid.New()
	req := withStoreRoute(multipartRequest(t, nil, nil), ownerID, storeID)

	resp := httptest.NewRecorder()
	MenuCreate(&stubMenuService{}, 1<<20, logger.Nop()).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
