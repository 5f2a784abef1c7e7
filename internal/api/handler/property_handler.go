package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/homestead/marketplace-api/internal/api/metrics"
	"github.com/homestead/marketplace-api/internal/core/domain"
	"github.com/homestead/marketplace-api/internal/core/ports"
)

const idempotencyHeader = "Idempotency-Key"

type PropertyHandler struct {
	propertyService ports.PropertyService
}

func NewPropertyHandler(propertyService ports.PropertyService) *PropertyHandler {
	return &PropertyHandler{propertyService: propertyService}
}

// Create stores a new listing together with its uploaded media.
//
// @Summary      Create a property listing
// @Tags         properties
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string  false  "Client submission key"
// @Param        title            formData  string  true   "Title"
// @Param        propertyType     formData  string  true   "house, apartment, land, commercial or villa"
// @Param        listingType      formData  string  true   "sale or rent"
// @Param        price            formData  number  true   "Price"
// @Param        currency         formData  string  true   "ISO 4217 code"
// @Param        city             formData  string  true   "City"
// @Param        country          formData  string  true   "Country"
// @Param        media            formData  file    false  "Images or videos"
// @Success      201  {object}  propertyResponse
// @Failure      400  {object}  errorResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse  "individual account, inactive account or quota reached"
// @Failure      409  {object}  errorResponse  "SUBMISSION_IN_PROGRESS"
// @Failure      502  {object}  errorResponse  "media upload failed"
// @Router       /properties [post]
func (h *PropertyHandler) Create(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	var req createPropertyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	media, err := mediaUploads(c)
	if err != nil {
		return err
	}

	created, err := h.propertyService.Create(c.Request().Context(), ports.CreatePropertyInput{
		OwnerID:        p.ID,
		IdempotencyKey: c.Request().Header.Get(idempotencyHeader),
		Title:          req.Title,
		Description:    req.Description,
		PropertyType:   domain.PropertyType(req.PropertyType),
		ListingType:    domain.ListingType(req.ListingType),
		Price:          req.Price,
		Currency:       req.Currency,
		Address: domain.PropertyAddress{
			Street:  req.Street,
			City:    req.City,
			Region:  req.Region,
			Country: req.Country,
		},
		Bedrooms:  req.Bedrooms,
		Bathrooms: req.Bathrooms,
		AreaSqm:   req.AreaSqm,
		Media:     media,
	})
	if err != nil {
		if errors.Is(err, domain.ErrMediaUpload) {
			metrics.MediaUploadFailuresTotal.Inc()
		}
		return err
	}

	metrics.PropertiesCreatedTotal.WithLabelValues(string(created.ListingType)).Inc()
	return c.JSON(http.StatusCreated, propertyResponse{Property: created})
}

// mediaUploads collects the "media" parts. A request that is not multipart
// simply carries no files.
func mediaUploads(c echo.Context) ([]ports.MediaUpload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid multipart payload")
	}

	files := form.File["media"]
	out := make([]ports.MediaUpload, 0, len(files))
	for _, fh := range files {
		out = append(out, ports.MediaUpload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get(echo.HeaderContentType),
			Size:        fh.Size,
			Open:        opener(fh),
		})
	}
	return out, nil
}

func opener(fh *multipart.FileHeader) func() (io.ReadCloser, error) {
	return func() (io.ReadCloser, error) { return fh.Open() }
}

// Get returns a single listing.
//
// @Summary      Get a property
// @Tags         properties
// @Produce      json
// @Param        id   path      string  true  "Property ID"
// @Success      200  {object}  propertyResponse
// @Failure      404  {object}  errorResponse
// @Router       /properties/{id} [get]
func (h *PropertyHandler) Get(c echo.Context) error {
	prop, err := h.propertyService.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, propertyResponse{Property: prop})
}

// ListMine returns the caller's listings, newest first.
//
// @Summary      List my properties
// @Tags         properties
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  propertyListResponse
// @Failure      401  {object}  errorResponse
// @Router       /properties/mine [get]
func (h *PropertyHandler) ListMine(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	items, err := h.propertyService.ListMine(c.Request().Context(), p.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, propertyListResponse{Items: items})
}

// Delete removes one of the caller's listings.
//
// @Summary      Delete a property
// @Tags         properties
// @Security     BearerAuth
// @Param        id   path  string  true  "Property ID"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /properties/{id} [delete]
func (h *PropertyHandler) Delete(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	if err := h.propertyService.Delete(c.Request().Context(), p.ID, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
