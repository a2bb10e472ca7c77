package handlers

import (
	"errors"
	"log"
	"mime/multipart"
	"strings"

	"storefront/internal/apperr"
	"storefront/internal/request"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler renders every error returned by a handler as {"error": message}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := apperr.Status(err)
	message := err.Error()

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		status = fiberErr.Code
		message = fiberErr.Message
	}
	if status >= fiber.StatusInternalServerError {
		log.Printf("Error handling %s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(status).JSON(fiber.Map{"error": message})
}

// readBody decodes the request body into the shared JSON/multipart form.
func readBody(c *fiber.Ctx) request.Body {
	contentType := c.Get(fiber.HeaderContentType)

	var form *multipart.Form
	if strings.HasPrefix(strings.ToLower(contentType), fiber.MIMEMultipartForm) {
		parsed, err := c.MultipartForm()
		if err != nil {
			log.Printf("Error parsing multipart body: %v", err)
		} else {
			form = parsed
		}
	}
	return request.DecodeBody(contentType, c.Body(), form)
}
