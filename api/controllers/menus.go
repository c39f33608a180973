package controllers

import (
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/leanai/mumul-backend/api/responses"
	"github.com/leanai/mumul-backend/api/validators"
	"github.com/leanai/mumul-backend/internal/menus"
	pkgerrors "github.com/leanai/mumul-backend/pkg/errors"
	"github.com/leanai/mumul-backend/pkg/logger"
)

var menuFieldPattern = regexp.MustCompile(`^menus\[(\d+)\]\[([a-z_]+)\]$`)

// menuFields are the form keys of one menu, in either the indexed or the
// flat layout.
type menuFields struct {
	values map[string]string
	image  string
}

func MenuList(svc menus.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "menu")
			return
		}
		ownerID, err := currentUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		storeID, err := validators.ParseUUIDParam(r, "storeID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.List(r.Context(), ownerID, storeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// StorefrontMenus lists a store's menus by slug without authentication.
func StorefrontMenus(svc menus.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "menu")
			return
		}
		list, err := svc.ListBySlug(r.Context(), slugParam(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// MenuCreate creates every menu of a multipart batch. Fields are sent as
// menus[i][name], menus[i][price] and so on, or flat for a single menu.
func MenuCreate(svc menus.Service, maxBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "menu")
			return
		}
		ownerID, err := currentUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		storeID, err := validators.ParseUUIDParam(r, "storeID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := validators.ParseMultipart(w, r, maxBytes); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		uploads := &uploadSet{}
		defer uploads.Close()

		inputs, err := menuInputs(r, uploads)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		created, err := svc.Create(r.Context(), ownerID, storeID, inputs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, map[string]any{"created_menus": created})
	}
}

func menuInputs(r *http.Request, uploads *uploadSet) ([]menus.CreateInput, error) {
	indexed := map[int]*menuFields{}
	for key, vals := range r.MultipartForm.Value {
		m := menuFieldPattern.FindStringSubmatch(key)
		if m == nil || len(vals) == 0 {
			continue
		}
		idx, _ := strconv.Atoi(m[1])
		fields := indexed[idx]
		if fields == nil {
			fields = &menuFields{values: map[string]string{}}
			indexed[idx] = fields
		}
		fields.values[m[2]] = vals[0]
	}
	for key := range r.MultipartForm.File {
		m := menuFieldPattern.FindStringSubmatch(key)
		if m == nil || m[2] != "image" {
			continue
		}
		idx, _ := strconv.Atoi(m[1])
		fields := indexed[idx]
		if fields == nil {
			fields = &menuFields{values: map[string]string{}}
			indexed[idx] = fields
		}
		fields.image = key
	}

	if len(indexed) == 0 {
		flat := &menuFields{values: map[string]string{}, image: "image"}
		for _, field := range []string{"name", "price", "category", "spicy", "allergy", "origin", "menu_introduction"} {
			if v := optionalString(r, field); v != nil {
				flat.values[field] = *v
			}
		}
		if len(flat.values) == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "등록할 메뉴가 없습니다.")
		}
		indexed[0] = flat
	}

	order := make([]int, 0, len(indexed))
	for idx := range indexed {
		order = append(order, idx)
	}
	sort.Ints(order)

	out := make([]menus.CreateInput, 0, len(order))
	for _, idx := range order {
		fields := indexed[idx]
		in := menus.CreateInput{
			Name:         fields.values["name"],
			Price:        fields.values["price"],
			Category:     fields.get("category"),
			Spicy:        fields.get("spicy"),
			Allergy:      fields.get("allergy"),
			Origin:       fields.get("origin"),
			Introduction: fields.get("menu_introduction"),
		}
		if fields.image != "" {
			img, err := uploads.formFile(r, fields.image)
			if err != nil {
				return nil, err
			}
			in.Image = img
		}
		out = append(out, in)
	}
	return out, nil
}

func (f *menuFields) get(key string) *string {
	v, ok := f.values[key]
	if !ok {
		return nil
	}
	return &v
}

// MenuUpdate applies a partial update from a multipart form or JSON body.
func MenuUpdate(svc menus.Service, maxBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "menu")
			return
		}
		ownerID, err := currentUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		storeID, err := validators.ParseUUIDParam(r, "storeID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		number, err := validators.ParseInt64Param(r, "menuNumber")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		uploads := &uploadSet{}
		defer uploads.Close()

		var input menus.UpdateInput
		if isMultipart(r) {
			if err := validators.ParseMultipart(w, r, maxBytes); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input = menus.UpdateInput{
				Name:         optionalString(r, "name"),
				Price:        optionalString(r, "price"),
				Category:     optionalString(r, "category"),
				Spicy:        optionalString(r, "spicy"),
				Allergy:      optionalString(r, "allergy"),
				Origin:       optionalString(r, "origin"),
				Introduction: optionalString(r, "menu_introduction"),
			}
			if img := optionalString(r, "image"); img != nil && *img == "" {
				input.ClearImage = true
			}
			if input.Image, err = uploads.formFile(r, "image"); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		} else {
			var body menuUpdateRequest
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input = body.toInput()
		}

		menu, err := svc.Update(r.Context(), ownerID, storeID, number, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, menu)
	}
}

type menuUpdateRequest struct {
	Name         *string `json:"name" validate:"omitempty,min=1"`
	Price        *string `json:"price"`
	Category     *string `json:"category"`
	Spicy        *string `json:"spicy"`
	Allergy      *string `json:"allergy"`
	Origin       *string `json:"origin"`
	Introduction *string `json:"menu_introduction"`
	Image        *string `json:"image"`
}

func (b menuUpdateRequest) toInput() menus.UpdateInput {
	return menus.UpdateInput{
		Name:         b.Name,
		Price:        b.Price,
		Category:     b.Category,
		Spicy:        b.Spicy,
		Allergy:      b.Allergy,
		Origin:       b.Origin,
		Introduction: b.Introduction,
		ClearImage:   b.Image != nil && *b.Image == "",
	}
}

func MenuDelete(svc menus.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "menu")
			return
		}
		ownerID, err := currentUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		storeID, err := validators.ParseUUIDParam(r, "storeID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		number, err := validators.ParseInt64Param(r, "menuNumber")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), ownerID, storeID, number); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func MenuCategories(svc menus.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "menu")
			return
		}
		ownerID, err := currentUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		storeID, err := validators.ParseUUIDParam(r, "storeID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		categories, err := svc.Categories(r.Context(), ownerID, storeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, categories)
	}
}

// MenuDeleteCategory removes every menu in the category.
func MenuDeleteCategory(svc menus.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "menu")
			return
		}
		ownerID, err := currentUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		storeID, err := validators.ParseUUIDParam(r, "storeID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		category, err := pathValue(r, "category")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteCategory(r.Context(), ownerID, storeID, category); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// pathValue decodes a free-text URL parameter.
func pathValue(r *http.Request, key string) (string, error) {
	raw := chi.URLParam(r, key)
	decoded, err := url.PathUnescape(raw)
	if err != nil || decoded == "" {
		return "", pkgerrors.New(pkgerrors.CodeNotFound, "resource not found").WithDetails(map[string]any{"field": key})
	}
	return decoded, nil
}
