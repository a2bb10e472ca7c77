package handlers

import (
	"log"

	"storefront/internal/middleware"
	"storefront/internal/payload"
	"storefront/internal/request"
	"storefront/internal/router"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service *services.ProductService
	limits  payload.ImageLimits
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService, limits payload.ImageLimits) *ProductHandler {
	return &ProductHandler{
		service: service,
		limits:  limits,
	}
}

// RegisterRoutes registers the product routes. Reads are public, writes need an admin.
func (h *ProductHandler) RegisterRoutes(r *router.Router) {
	r.Get("/products", router.Public, h.HandleListProducts)
	r.Post("/products", router.Admin, h.HandleCreateProduct)
	r.Get("/products/:id", router.Public, h.HandleGetProduct)
	r.Put("/products/:id", router.Admin, h.HandleUpdateProduct)
	r.Delete("/products/:id", router.Admin, h.HandleDeleteProduct)
	r.Patch("/products/:id/soldout", router.Admin, h.HandleSetSoldOut)
	r.Put("/products/:id/images", router.Admin, h.HandleReplaceImages)
}

// HandleListProducts returns one page of products.
func (h *ProductHandler) HandleListProducts(c *fiber.Ctx, req request.Parsed) error {
	page, err := h.service.ListProducts(c.UserContext(), req.Query["limit"], req.Query["cursor"])
	if err != nil {
		return err
	}
	return c.JSON(page)
}

// HandleGetProduct retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProduct(c *fiber.Ctx, req request.Parsed) error {
	product, err := h.service.GetProduct(c.UserContext(), req.ID())
	if err != nil {
		return err
	}
	return c.JSON(product)
}

// HandleCreateProduct creates a product from a JSON or multipart body.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx, _ request.Parsed) error {
	body := readBody(c)
	product, err := payload.ProductCreate(body, h.limits)
	if err != nil {
		return err
	}
	if err := h.service.CreateProduct(c.UserContext(), product); err != nil {
		return err
	}
	log.Printf("Created product %s (%s body, %d images) by %s", product.ID, body.Kind, len(product.Images), actor(c))
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct merges the supplied fields into an existing product.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx, req request.Parsed) error {
	patch, err := payload.ProductUpdate(readBody(c), h.limits)
	if err != nil {
		return err
	}
	product, err := h.service.UpdateProduct(c.UserContext(), req.ID(), patch)
	if err != nil {
		return err
	}
	return c.JSON(product)
}

// HandleReplaceImages replaces the product's image list.
func (h *ProductHandler) HandleReplaceImages(c *fiber.Ctx, req request.Parsed) error {
	images, err := payload.ImagesReplace(readBody(c), h.limits)
	if err != nil {
		return err
	}
	product, err := h.service.ReplaceImages(c.UserContext(), req.ID(), images)
	if err != nil {
		return err
	}
	return c.JSON(product)
}

// HandleSetSoldOut toggles the sold-out flag.
func (h *ProductHandler) HandleSetSoldOut(c *fiber.Ctx, req request.Parsed) error {
	soldOut, err := payload.SoldOut(readBody(c))
	if err != nil {
		return err
	}
	if err := h.service.SetSoldOut(c.UserContext(), req.ID(), soldOut); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"id": req.ID(), "soldOut": soldOut})
}

// HandleDeleteProduct deletes a product. Missing products are not an error.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx, req request.Parsed) error {
	if err := h.service.DeleteProduct(c.UserContext(), req.ID()); err != nil {
		return err
	}
	log.Printf("Deleted product %s by %s", req.ID(), actor(c))
	return c.SendStatus(fiber.StatusNoContent)
}

// actor names the authenticated caller for log lines.
func actor(c *fiber.Ctx) string {
	if claims := middleware.Claims(c); claims != nil {
		return claims.Subject
	}
	return "anonymous"
}
