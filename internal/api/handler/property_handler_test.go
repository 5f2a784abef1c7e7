package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/homestead/marketplace-api/internal/core/domain"
	"github.com/homestead/marketplace-api/internal/core/ports"
)

func propertyForm(t *testing.T, fields map[string]string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	for name, ct := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="media"; filename="`+name+`"`)
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		_, _ = part.Write([]byte("data-" + name))
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func validPropertyFields() map[string]string {
	return map[string]string{
		"title":        "Sunny flat",
		"propertyType": "apartment",
		"listingType":  "rent",
		"price":        "1200",
		"currency":     "EUR",
		"city":         "Lisbon",
		"country":      "Portugal",
		"bedrooms":     "2",
	}
}

func TestPropertyHandler_Create_Multipart(t *testing.T) {
	e := newTestEcho()
	var got ports.CreatePropertyInput
	h := NewPropertyHandler(&stubPropertyService{
		createFn: func(_ context.Context, in ports.CreatePropertyInput) (*domain.Property, error) {
			got = in
			return &domain.Property{ID: "p1", OwnerID: in.OwnerID, ListingType: in.ListingType}, nil
		},
	})

	body, ct := propertyForm(t, validPropertyFields(), map[string]string{"front.jpg": "image/jpeg"})
	c, rec := newContext(e, http.MethodPost, "/properties", ct, body)
	c.Request().Header.Set(idempotencyHeader, "form-1")
	withPrincipal(c, "u1", domain.AccountTypeOwner)

	if err := h.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if got.OwnerID != "u1" || got.IdempotencyKey != "form-1" || got.Price != 1200 || got.Bedrooms != 2 {
		t.Fatalf("unexpected input: %+v", got)
	}
	if got.Address.City != "Lisbon" || got.PropertyType != domain.PropertyApartment {
		t.Fatalf("unexpected address/type: %+v", got)
	}
	if len(got.Media) != 1 || got.Media[0].ContentType != "image/jpeg" || got.Media[0].Filename != "front.jpg" {
		t.Fatalf("unexpected media: %+v", got.Media)
	}

	rc, err := got.Media[0].Open()
	if err != nil {
		t.Fatalf("open media: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "data-front.jpg" {
		t.Fatalf("media content = %q", data)
	}
}

func TestPropertyHandler_Create_Validation(t *testing.T) {
	e := newTestEcho()
	h := NewPropertyHandler(&stubPropertyService{
		createFn: func(context.Context, ports.CreatePropertyInput) (*domain.Property, error) {
			t.Fatalf("service must not be called")
			return nil, nil
		},
	})

	fields := validPropertyFields()
	fields["currency"] = "EURO"
	fields["listingType"] = "lease"
	body, ct := propertyForm(t, fields, nil)
	c, _ := newContext(e, http.MethodPost, "/properties", ct, body)
	withPrincipal(c, "u1", domain.AccountTypeOwner)

	var verr *domain.ValidationError
	if err := h.Create(c); !errors.As(err, &verr) || len(verr.Fields) != 2 {
		t.Fatalf("expected two field errors, got %v", err)
	}
}

func TestPropertyHandler_Create_ServiceError(t *testing.T) {
	e := newTestEcho()
	h := NewPropertyHandler(&stubPropertyService{
		createFn: func(context.Context, ports.CreatePropertyInput) (*domain.Property, error) {
			return nil, domain.ErrListingQuotaReached
		},
	})
	body, ct := propertyForm(t, validPropertyFields(), nil)
	c, _ := newContext(e, http.MethodPost, "/properties", ct, body)
	withPrincipal(c, "u1", domain.AccountTypeOwner)

	if err := h.Create(c); !errors.Is(err, domain.ErrListingQuotaReached) {
		t.Fatalf("expected ErrListingQuotaReached, got %v", err)
	}
}

func TestPropertyHandler_Create_JSONWithoutMedia(t *testing.T) {
	e := newTestEcho()
	var media []ports.MediaUpload
	h := NewPropertyHandler(&stubPropertyService{
		createFn: func(_ context.Context, in ports.CreatePropertyInput) (*domain.Property, error) {
			media = in.Media
			return &domain.Property{ID: "p1", ListingType: in.ListingType}, nil
		},
	})
	form := "title=Plot&propertyType=land&listingType=sale&price=10&currency=usd&city=Austin&country=US"
	c, rec := newContext(e, http.MethodPost, "/properties", echo.MIMEApplicationForm, strings.NewReader(form))
	withPrincipal(c, "u1", domain.AccountTypeDeveloper)

	if err := h.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated || len(media) != 0 {
		t.Fatalf("code=%d media=%d", rec.Code, len(media))
	}
}

func TestPropertyHandler_GetMineDelete(t *testing.T) {
	e := newTestEcho()
	var deletedBy, deletedID string
	h := NewPropertyHandler(&stubPropertyService{
		getFn: func(_ context.Context, id string) (*domain.Property, error) {
			if id != "p1" {
				return nil, domain.ErrPropertyNotFound
			}
			return &domain.Property{ID: "p1"}, nil
		},
		mineFn: func(context.Context, string) ([]*domain.Property, error) {
			return []*domain.Property{}, nil
		},
		deleteFn: func(_ context.Context, ownerID, propertyID string) error {
			deletedBy, deletedID = ownerID, propertyID
			return nil
		},
	})

	c, rec := newContext(e, http.MethodGet, "/properties/p1", "", nil)
	c.SetParamNames("id")
	c.SetParamValues("p1")
	if err := h.Get(c); err != nil || rec.Code != http.StatusOK {
		t.Fatalf("get: code=%d err=%v", rec.Code, err)
	}

	c, _ = newContext(e, http.MethodGet, "/properties/zzz", "", nil)
	c.SetParamNames("id")
	c.SetParamValues("zzz")
	if err := h.Get(c); !errors.Is(err, domain.ErrPropertyNotFound) {
		t.Fatalf("expected ErrPropertyNotFound, got %v", err)
	}

	c, rec = newContext(e, http.MethodGet, "/properties/mine", "", nil)
	withPrincipal(c, "u1", domain.AccountTypeOwner)
	if err := h.ListMine(c); err != nil {
		t.Fatalf("mine: %v", err)
	}
	if strings.TrimSpace(rec.Body.String()) != `{"items":[]}` {
		t.Fatalf("empty list should render as array: %s", rec.Body.String())
	}

	c, rec = newContext(e, http.MethodDelete, "/properties/p1", "", nil)
	c.SetParamNames("id")
	c.SetParamValues("p1")
	withPrincipal(c, "u1", domain.AccountTypeOwner)
	if err := h.Delete(c); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if rec.Code != http.StatusNoContent || deletedBy != "u1" || deletedID != "p1" {
		t.Fatalf("code=%d by=%q id=%q", rec.Code, deletedBy, deletedID)
	}
}
