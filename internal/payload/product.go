package payload

import (
	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/request"
)

// productCreate is the typed form of a create request after coercion.
type productCreate struct {
	Name     string   `json:"name" validate:"required"`
	Price    *float64 `json:"price" validate:"required,finite"`
	Category string   `json:"category" validate:"required"`
}

// ProductCreate builds a new product from a create request. Timestamps and id are left to the
// caller.
func ProductCreate(body request.Body, limits ImageLimits) (*models.Product, error) {
	in := productCreate{
		Name:     toString(body.Fields["name"]),
		Category: toString(body.Fields["category"]),
	}
	if price, ok := toNumber(body.Fields["price"]); ok {
		in.Price = &price
	}
	if err := validate.Struct(in); err != nil {
		return nil, apperr.Validation(MsgMissingProductFields)
	}

	sizes, okSizes := toStringList(body.Fields["sizes"])
	colors, okColors := toStringList(body.Fields["colors"])
	if !okSizes || !okColors {
		return nil, apperr.Validation(MsgInvalidSizesColors)
	}

	originalPrice, err := optionalOriginalPrice(body)
	if err != nil {
		return nil, err
	}

	images, ok := toStringList(body.Fields["images"])
	if !ok {
		return nil, apperr.Validation(MsgInvalidImages)
	}
	uploaded, err := EncodeImages(body.Files, limits)
	if err != nil {
		return nil, err
	}

	active := true
	if v, ok := toBool(body.Fields["active"]); ok {
		active = v
	}
	category := in.Category

	return &models.Product{
		Name:          in.Name,
		Description:   toString(body.Fields["description"]),
		Price:         *in.Price,
		OriginalPrice: originalPrice,
		Category:      &category,
		Sizes:         sizes,
		Colors:        colors,
		Images:        append(images, uploaded...),
		Active:        active,
	}, nil
}

// ProductPatch is a validated partial update. Fields holds only what the client supplied,
// already normalised for storage.
type ProductPatch struct {
	Fields map[string]any
	// Images is the replacement list when ReplaceImages is set.
	Images        []string
	ReplaceImages bool
	// Uploaded are new images to append after the resulting list.
	Uploaded []string
}

// ProductUpdate validates a merge update. Only supplied fields are checked and coerced.
func ProductUpdate(body request.Body, limits ImageLimits) (*ProductPatch, error) {
	patch := &ProductPatch{Fields: map[string]any{}}

	for _, key := range []string{"name", "category"} {
		if body.Has(key) {
			s := toString(body.Fields[key])
			if s == "" {
				return nil, apperr.Validation(MsgMissingProductFields)
			}
			patch.Fields[key] = s
		}
	}
	if body.Has("description") {
		patch.Fields["description"] = toString(body.Fields["description"])
	}
	if body.Has("price") {
		price, ok := toNumber(body.Fields["price"])
		if !ok || validate.Var(price, "finite") != nil {
			return nil, apperr.Validation(MsgInvalidPrice)
		}
		patch.Fields["price"] = price
	}
	if body.Has("originalPrice") {
		originalPrice, err := optionalOriginalPrice(body)
		if err != nil {
			return nil, err
		}
		if originalPrice == nil {
			patch.Fields["originalPrice"] = nil
		} else {
			patch.Fields["originalPrice"] = *originalPrice
		}
	}
	for _, key := range []string{"sizes", "colors"} {
		if body.Has(key) {
			list, ok := toStringList(body.Fields[key])
			if !ok {
				return nil, apperr.Validation(MsgInvalidSizesColors)
			}
			patch.Fields[key] = list
		}
	}
	if body.Has("active") {
		v, ok := toBool(body.Fields["active"])
		if !ok {
			return nil, apperr.Validation(MsgActiveNotBoolean)
		}
		patch.Fields["active"] = v
	}
	if body.Has("soldOut") {
		v, ok := toBool(body.Fields["soldOut"])
		if !ok {
			return nil, apperr.Validation(MsgSoldOutNotBoolean)
		}
		patch.Fields["soldOut"] = v
	}

	if body.Has("images") {
		images, ok := toStringList(body.Fields["images"])
		if !ok {
			return nil, apperr.Validation(MsgInvalidImages)
		}
		patch.Images = images
		patch.ReplaceImages = true
	}
	uploaded, err := EncodeImages(body.Files, limits)
	if err != nil {
		return nil, err
	}
	patch.Uploaded = uploaded
	return patch, nil
}

// ImagesReplace returns the new image list: the uploaded files when there are any, otherwise the
// JSON images list. An empty request clears the images.
func ImagesReplace(body request.Body, limits ImageLimits) ([]string, error) {
	if len(body.Files) > 0 {
		return EncodeImages(body.Files, limits)
	}
	images, ok := toStringList(body.Fields["images"])
	if !ok {
		return nil, apperr.Validation(MsgInvalidImages)
	}
	return images, nil
}

// SoldOut reads the sold-out flag. Only a JSON boolean is accepted.
func SoldOut(body request.Body) (bool, error) {
	v, ok := body.Fields["soldOut"].(bool)
	if !ok {
		return false, apperr.Validation(MsgSoldOutNotBoolean)
	}
	return v, nil
}

// optionalOriginalPrice is nil when originalPrice is absent, null or blank.
func optionalOriginalPrice(body request.Body) (*float64, error) {
	raw, ok := body.Fields["originalPrice"]
	if !ok || raw == nil {
		return nil, nil
	}
	if s, isString := raw.(string); isString && s == "" {
		return nil, nil
	}
	v, ok := toNumber(raw)
	if !ok || validate.Var(v, "finite") != nil {
		return nil, apperr.Validation(MsgInvalidOriginalPrice)
	}
	return &v, nil
}
