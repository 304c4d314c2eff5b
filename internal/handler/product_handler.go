package handler

import (
	"printshop-api/internal/repository"
	"printshop-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ProductHandler serves the platform catalog and each shop's price list.
type ProductHandler struct {
	service service.ProductService
}

func NewProductHandler(s service.ProductService) *ProductHandler {
	return &ProductHandler{service: s}
}

// GET /api/products
func (h *ProductHandler) GetProducts(c *fiber.Ctx) error {
	products, err := h.service.List(c.UserContext(), repository.ProductFilter{
		Category:   c.Query("category"),
		ActiveOnly: c.QueryBool("active"),
		Search:     c.Query("search"),
		Page:       page(c),
	})
	if err != nil {
		return err
	}
	return ok(c, products)
}

// GET /api/products/:id
func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	product, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return ok(c, product)
}

// POST /api/products
func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req service.ProductRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	product, err := h.service.Create(c.UserContext(), p, req)
	if err != nil {
		return err
	}
	return created(c, "Product created", product)
}

// PUT /api/products/:id
func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req service.ProductRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	product, err := h.service.Update(c.UserContext(), p, id, req)
	if err != nil {
		return err
	}
	return c.JSON(Envelope{Success: true, Message: "Product updated", Data: product})
}

// DELETE /api/products/:id
func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), p, id); err != nil {
		return err
	}
	return done(c, "Product deleted")
}

// GetCatalog lists a shop's products. Super admins pass ?tenant_id=.
// GET /api/tenant-products
func (h *ProductHandler) GetCatalog(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	tenantID, err := optionalUUID(c, "tenant_id")
	if err != nil {
		return err
	}
	items, err := h.service.Catalog(c.UserContext(), p, tenantID)
	if err != nil {
		return err
	}
	return ok(c, items)
}

// PUT /api/tenant-products/:productId
func (h *ProductHandler) SetTenantPrice(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	productID, err := paramID(c, "productId")
	if err != nil {
		return err
	}
	tenantID, err := optionalUUID(c, "tenant_id")
	if err != nil {
		return err
	}
	var req service.TenantProductRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	tp, err := h.service.SetTenantPrice(c.UserContext(), p, tenantID, productID, req)
	if err != nil {
		return err
	}
	return ok(c, tp)
}

// DELETE /api/tenant-products/:productId
func (h *ProductHandler) RemoveTenantProduct(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	productID, err := paramID(c, "productId")
	if err != nil {
		return err
	}
	tenantID, err := optionalUUID(c, "tenant_id")
	if err != nil {
		return err
	}
	if err := h.service.RemoveTenantProduct(c.UserContext(), p, tenantID, productID); err != nil {
		return err
	}
	return done(c, "Product removed from catalog")
}
