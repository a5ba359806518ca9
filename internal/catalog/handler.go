// AngelaMos | 2026
// handler.go

package catalog

import (
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/middleware"
)

const maxFilesPerRequest = 8

type Handler struct {
	service   *Service
	validator *validator.Validate
	logger    *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service:   service,
		validator: core.NewValidator(),
		logger:    logger,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Home)
	r.Get("/hero", h.ListActiveHero)
	r.Get("/categories", h.ListCategories)
	r.Get("/products", h.ListProducts)
	r.Get("/products/{productID}", h.GetProduct)
}

// RegisterAdminRoutes expects r to be the admin-only subrouter.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.ListCategories)
		r.Post("/", h.CreateCategory)
		r.Put("/{categoryID}", h.UpdateCategory)
		r.Delete("/{categoryID}", h.DeleteCategory)
	})

	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Post("/", h.CreateProduct)
		r.Put("/{productID}", h.UpdateProduct)
		r.Delete("/{productID}", h.DeleteProduct)
	})

	r.Route("/hero", func(r chi.Router) {
		r.Get("/", h.ListAllHero)
		r.Post("/", h.CreateHero)
		r.Put("/{slideID}", h.UpdateHero)
		r.Delete("/{slideID}", h.DeleteHero)
	})
}

func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	feed, err := h.service.Home(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		core.InternalServerError(w, err)
		return
	}
	core.OK(w, feed)
}

func (h *Handler) ListActiveHero(w http.ResponseWriter, r *http.Request) {
	slides, err := h.service.HeroSlides(r.Context(), true)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}
	core.OK(w, slides)
}

func (h *Handler) ListAllHero(w http.ResponseWriter, r *http.Request) {
	slides, err := h.service.HeroSlides(r.Context(), false)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}
	core.OK(w, slides)
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.Categories(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}
	core.OK(w, categories)
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	f, fields := h.parseFilter(r)
	if len(fields) > 0 {
		core.JSONError(w, core.ValidationError(fields))
		return
	}

	products, total, err := h.service.Products(r.Context(), f)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	page := f.Offset/ProductsPerPage + 1
	core.Paginated(w, products, page, ProductsPerPage, total)
}

func (h *Handler) parseFilter(r *http.Request) (ProductFilter, map[string]string) {
	q := r.URL.Query()
	fields := map[string]string{}

	f := ProductFilter{
		CategoryID: q.Get("category"),
		Limit:      ProductsPerPage,
	}

	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	f.Offset = (page - 1) * ProductsPerPage

	for name, dst := range map[string]**decimal.Decimal{
		"min_price": &f.MinPrice,
		"max_price": &f.MaxPrice,
	} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			fields[name] = "must be a number"
			continue
		}
		*dst = &d
	}

	if f.CategoryID != "" {
		if err := h.validator.Var(f.CategoryID, "uuid"); err != nil {
			fields["category"] = "must be a valid identifier"
		}
	}

	return f, fields
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "productID", "product")
	if !ok {
		return
	}

	detail, err := h.service.ProductDetail(
		r.Context(),
		id,
		middleware.GetUserID(r.Context()),
	)
	if err != nil {
		h.writeError(w, err, "product")
		return
	}
	core.OK(w, detail)
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if !h.decodeCategory(w, r, &req) {
		return
	}

	c, err := h.service.CreateCategory(r.Context(), req)
	if err != nil {
		h.writeError(w, err, "category")
		return
	}
	core.Created(w, c)
}

func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if !h.decodeCategory(w, r, &req) {
		return
	}

	id, ok := h.pathID(w, r, "categoryID", "category")
	if !ok {
		return
	}

	c, err := h.service.UpdateCategory(r.Context(), id, req)
	if err != nil {
		h.writeError(w, err, "category")
		return
	}
	core.OK(w, c)
}

func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "categoryID", "category")
	if !ok {
		return
	}

	if err := h.service.DeleteCategory(r.Context(), id); err != nil {
		h.writeError(w, err, "category")
		return
	}
	core.NoContent(w)
}

func (h *Handler) decodeCategory(w http.ResponseWriter, r *http.Request, req *CategoryRequest) bool {
	if err := core.DecodeJSON(w, r, req); err != nil {
		core.BadRequest(w, "invalid request body")
		return false
	}
	if err := h.validator.Struct(req); err != nil {
		core.Validation(w, err)
		return false
	}
	return true
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	form, ok := h.parseProductForm(w, r)
	if !ok {
		return
	}

	p, err := h.service.CreateProduct(r.Context(), form, r.MultipartForm.File["image_file"])
	if err != nil {
		h.writeError(w, err, "product")
		return
	}
	core.Created(w, p)
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "productID", "product")
	if !ok {
		return
	}

	form, ok := h.parseProductForm(w, r)
	if !ok {
		return
	}

	p, err := h.service.UpdateProduct(
		r.Context(),
		id,
		form,
		r.MultipartForm.File["image_file"],
	)
	if err != nil {
		h.writeError(w, err, "product")
		return
	}
	core.OK(w, p)
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "productID", "product")
	if !ok {
		return
	}

	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		h.writeError(w, err, "product")
		return
	}
	core.NoContent(w)
}

func (h *Handler) CreateHero(w http.ResponseWriter, r *http.Request) {
	form, ok := h.parseHeroForm(w, r)
	if !ok {
		return
	}

	slide, err := h.service.CreateHeroSlide(r.Context(), form, firstFile(r, "image_file"))
	if err != nil {
		h.writeError(w, err, "hero slide")
		return
	}
	core.Created(w, slide)
}

func (h *Handler) UpdateHero(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "slideID", "hero slide")
	if !ok {
		return
	}

	form, ok := h.parseHeroForm(w, r)
	if !ok {
		return
	}

	slide, err := h.service.UpdateHeroSlide(
		r.Context(),
		id,
		form,
		firstFile(r, "image_file"),
	)
	if err != nil {
		h.writeError(w, err, "hero slide")
		return
	}
	core.OK(w, slide)
}

func (h *Handler) DeleteHero(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "slideID", "hero slide")
	if !ok {
		return
	}

	if err := h.service.DeleteHeroSlide(r.Context(), id); err != nil {
		h.writeError(w, err, "hero slide")
		return
	}
	core.NoContent(w)
}

// pathID rejects malformed ids as not found so they never reach postgres.
func (h *Handler) pathID(
	w http.ResponseWriter,
	r *http.Request,
	param, resource string,
) (string, bool) {
	id := chi.URLParam(r, param)
	if err := h.validator.Var(id, "uuid"); err != nil {
		core.NotFound(w, resource)
		return "", false
	}
	return id, true
}

func (h *Handler) parseMultipart(w http.ResponseWriter, r *http.Request) bool {
	limit := h.service.uploader.MaxBytes()*maxFilesPerRequest + 1<<20
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			core.JSONError(w, core.NewAppError(err, "request too large", http.StatusRequestEntityTooLarge, core.CodePayloadTooLarge))
			return false
		}
		core.BadRequest(w, "invalid multipart form")
		return false
	}
	return true
}

func (h *Handler) parseProductForm(w http.ResponseWriter, r *http.Request) (ProductForm, bool) {
	if !h.parseMultipart(w, r) {
		return ProductForm{}, false
	}

	form := ProductForm{
		Name:            r.FormValue("name"),
		Description:     r.FormValue("description"),
		LongDescription: r.FormValue("long_description"),
		Price:           r.FormValue("price"),
		CategoryID:      r.FormValue("category_id"),
		DataAIHint:      r.FormValue("data_ai_hint"),
		IsFeatured:      formBool(r, "is_featured"),
		IsBestSeller:    formBool(r, "is_best_seller"),
	}
	if err := h.validator.Struct(form); err != nil {
		core.Validation(w, err)
		return form, false
	}
	return form, true
}

func (h *Handler) parseHeroForm(w http.ResponseWriter, r *http.Request) (HeroForm, bool) {
	if !h.parseMultipart(w, r) {
		return HeroForm{}, false
	}

	form := HeroForm{
		Title:       r.FormValue("title"),
		Subtitle:    r.FormValue("subtitle"),
		Link:        r.FormValue("link"),
		ImageAIHint: r.FormValue("image_ai_hint"),
		IsActive:    formBool(r, "is_active"),
	}
	if err := h.validator.Struct(form); err != nil {
		core.Validation(w, err)
		return form, false
	}
	return form, true
}

func formBool(r *http.Request, name string) bool {
	switch r.FormValue(name) {
	case "on", "true", "1":
		return true
	default:
		return false
	}
}

func firstFile(r *http.Request, name string) *multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	files := r.MultipartForm.File[name]
	if len(files) == 0 {
		return nil
	}
	return files[0]
}

func (h *Handler) writeError(w http.ResponseWriter, err error, resource string) {
	var inUse *CategoryInUseError
	var appErr *core.AppError

	switch {
	case errors.As(err, &inUse):
		core.JSONError(w, core.ConflictError(inUse.Error()))
	case errors.As(err, &appErr):
		core.JSONError(w, appErr)
	case errors.Is(err, ErrImageRequired):
		core.JSONError(w, core.ValidationError(map[string]string{
			"image_file": "an image is required",
		}))
	case errors.Is(err, ErrImageTooLarge):
		msg := fmt.Sprintf("Max image size is %dMB.", h.service.uploader.MaxBytes()>>20)
		core.JSONError(w, core.NewAppError(err, msg, http.StatusRequestEntityTooLarge, core.CodePayloadTooLarge))
	case errors.Is(err, ErrImageType):
		core.JSONError(w, core.NewAppError(err, "Only .jpg, .png, and .webp formats are supported.", http.StatusUnsupportedMediaType, core.CodeUnsupportedMedia))
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, resource)
	case errors.Is(err, core.ErrDuplicateKey):
		core.JSONError(w, core.DuplicateError("name"))
	case errors.Is(err, core.ErrConflict):
		core.JSONError(w, core.ConflictError(resource+" is referenced by existing orders"))
	default:
		h.logger.Error("catalog request failed", "resource", resource, "error", err)
		core.InternalServerError(w, err)
	}
}
