package controllers

import (
	"net/http"
	"strconv"

	"github.com/angelmondragon/bazaar-backend/api/responses"
	"github.com/angelmondragon/bazaar-backend/api/validators"
	"github.com/angelmondragon/bazaar-backend/internal/products"
	"github.com/angelmondragon/bazaar-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bazaar-backend/pkg/errors"
	"github.com/angelmondragon/bazaar-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

const imagesField = "images"

// ProductCreate accepts a multipart form with the product fields and its images.
func ProductCreate(svc products.Service, maxUploadBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := validators.ParseMultipart(w, r, maxUploadBytes); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		form := productForm{r: r}
		input := products.CreateProductInput{
			SallerID:   form.id("saller_id"),
			CategoryID: form.optionalID("category_id"),
			Name:       form.text("name"),
			Region:     form.text("region"),
		}
		if price := form.amount("price"); price != nil {
			input.Price = *price
		} else {
			form.fail("price", "is required")
		}
		if stock := form.integer("stock"); stock != nil {
			input.Stock = *stock
		} else {
			form.fail("stock", "is required")
		}
		if h := form.integer("height"); h != nil {
			input.Height = *h
		}
		if a := form.integer("age"); a != nil {
			input.Age = *a
		}
		if d := form.deliveryService("delivery_service"); d != nil {
			input.DeliveryService = *d
		}
		if err := form.err(); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		images, err := uploads(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.CreateProduct(r.Context(), actor, input, images)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, product)
	}
}

// ProductUpdate patches the fields present in the form. Sending images replaces all of them.
func ProductUpdate(svc products.Service, maxUploadBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParseURLParamUint(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := validators.ParseMultipart(w, r, maxUploadBytes); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		form := productForm{r: r}
		input := products.UpdateProductInput{
			CategoryID:      form.optionalID("category_id"),
			Name:            form.optionalText("name"),
			Price:           form.amount("price"),
			DeliveryService: form.deliveryService("delivery_service"),
			Stock:           form.integer("stock"),
			Height:          form.integer("height"),
			Age:             form.integer("age"),
			Region:          form.optionalText("region"),
		}
		if err := form.err(); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		images, err := uploads(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.UpdateProduct(r.Context(), actor, id, input, images)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func ProductDelete(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParseURLParamUint(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteProduct(r.Context(), actor, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"deleted": true, "id": id})
	}
}

func ProductGet(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseURLParamUint(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.GetProduct(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// ProductList serves the public catalogue with filters, sorting and pagination.
func ProductList(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input, err := listInput(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.ListProducts(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func listInput(r *http.Request) (products.ListInput, error) {
	var (
		in  products.ListInput
		err error
	)
	if in.Pagination, err = validators.ParsePagination(r); err != nil {
		return in, err
	}
	f := &in.Filters
	q := r.URL.Query()
	f.Search = validators.TrimText(q.Get("search"), 100)
	f.Region = validators.TrimText(q.Get("region"), 80)
	if f.MinPrice, err = validators.ParseQueryDecimal(r, "min_price"); err != nil {
		return in, err
	}
	if f.MaxPrice, err = validators.ParseQueryDecimal(r, "max_price"); err != nil {
		return in, err
	}
	if f.CategoryID, err = validators.ParseQueryUint(r, "category_id"); err != nil {
		return in, err
	}
	if f.SallerID, err = validators.ParseQueryUint(r, "saller_id"); err != nil {
		return in, err
	}
	for key, dest := range map[string]**int{
		"min_height": &f.MinHeight,
		"max_height": &f.MaxHeight,
		"min_age":    &f.MinAge,
		"max_age":    &f.MaxAge,
	} {
		if *dest, err = validators.ParseQueryOptionalInt(r, key); err != nil {
			return in, err
		}
	}
	delivery, err := validators.ParseQueryEnum(r, "delivery_service", string(enums.DeliveryServiceYes), string(enums.DeliveryServiceNo))
	if err != nil {
		return in, err
	}
	if delivery != "" {
		d := enums.DeliveryService(delivery)
		f.DeliveryService = &d
	}
	if f.SortBy, err = validators.ParseQueryEnum(r, "sort_by", "price", "createdAt", "name", "stock"); err != nil {
		return in, err
	}
	if f.SortOrder, err = validators.ParseQueryEnum(r, "sort_order", "asc", "desc"); err != nil {
		return in, err
	}
	return in, nil
}

func uploads(r *http.Request) ([]products.ImageUpload, error) {
	files, err := validators.FormImages(r, imagesField)
	if err != nil {
		return nil, err
	}
	images := make([]products.ImageUpload, 0, len(files))
	for _, f := range files {
		images = append(images, products.ImageUpload{Name: f.Name, Data: f.Data})
	}
	return images, nil
}

// productForm reads typed multipart fields and collects every problem.
type productForm struct {
	r      *http.Request
	issues map[string]string
}

func (f *productForm) fail(field, msg string) {
	if f.issues == nil {
		f.issues = map[string]string{}
	}
	f.issues[field] = msg
}

func (f *productForm) err() error {
	if len(f.issues) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeUnprocessable, "validation failed").WithDetails(f.issues)
}

func (f *productForm) text(key string) string {
	v, _ := validators.FormValue(f.r, key)
	return v
}

func (f *productForm) optionalText(key string) *string {
	v, ok := validators.FormValue(f.r, key)
	if !ok {
		return nil
	}
	return &v
}

func (f *productForm) integer(key string) *int {
	raw, ok := validators.FormValue(f.r, key)
	if !ok || raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		f.fail(key, "must be a whole number")
		return nil
	}
	return &v
}

func (f *productForm) id(key string) uint {
	if id := f.optionalID(key); id != nil {
		return *id
	}
	return 0
}

func (f *productForm) optionalID(key string) *uint {
	raw, ok := validators.FormValue(f.r, key)
	if !ok || raw == "" {
		return nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || v == 0 {
		f.fail(key, "must be a positive id")
		return nil
	}
	id := uint(v)
	return &id
}

func (f *productForm) amount(key string) *decimal.Decimal {
	raw, ok := validators.FormValue(f.r, key)
	if !ok || raw == "" {
		return nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		f.fail(key, "must be a number")
		return nil
	}
	return &v
}

func (f *productForm) deliveryService(key string) *enums.DeliveryService {
	raw, ok := validators.FormValue(f.r, key)
	if !ok || raw == "" {
		return nil
	}
	v, err := enums.ParseDeliveryService(raw)
	if err != nil {
		f.fail(key, "must be yes or no")
		return nil
	}
	return &v
}
