package handler

import (
	"go-distribusi-ops/internal/model"
	"go-distribusi-ops/internal/repository"
	"go-distribusi-ops/pkg/datetz"
	"go-distribusi-ops/pkg/validator"

	"github.com/gofiber/fiber/v2"
)

// Master-data handlers sit straight on top of the repositories; there is no
// cross-entity logic on this side, so a service layer would only forward calls.

func validationFailure(data interface{}) fiber.Map {
	errs := validator.ValidateStruct(data)
	if len(errs) == 0 {
		return nil
	}
	first := errs[0]
	return fiber.Map{
		"error": "Validation failed",
		"field": first.FailedField,
		"tag":   first.Tag,
	}
}

// ---- products ----

type ProductHandler struct {
	repo   repository.ProductRepository
	ranger *datetz.Ranger
}

func NewProductHandler(repo repository.ProductRepository, ranger *datetz.Ranger) *ProductHandler {
	return &ProductHandler{repo: repo, ranger: ranger}
}

var productSortable = map[string]string{
	"id":             "products.id",
	"name":           "products.name",
	"price":          "products.price",
	"priority_order": "products.priority_order",
	"created_at":     "products.created_at",
}

func (h *ProductHandler) List(c *fiber.Ctx) error {
	f, err := parseFilter(c, h.ranger, productSortable, "id")
	if err != nil {
		return respondError(c, err)
	}
	products, total, err := h.repo.List(c.Context(), f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(listResponse(products, f, total))
}

func (h *ProductHandler) Get(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	product, err := h.repo.FindByID(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(product)
}

func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var product model.Product
	if err := c.BodyParser(&product); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if m := validationFailure(&product); m != nil {
		return c.Status(fiber.StatusBadRequest).JSON(m)
	}
	if err := h.repo.Create(c.Context(), &product); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Product created", "data": product})
}

func (h *ProductHandler) Update(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	existing, err := h.repo.FindByID(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	var in model.Product
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if m := validationFailure(&in); m != nil {
		return c.Status(fiber.StatusBadRequest).JSON(m)
	}
	existing.Name = in.Name
	existing.Price = in.Price
	existing.IsActive = in.IsActive
	existing.IsPriority = in.IsPriority
	existing.PriorityOrder = in.PriorityOrder
	if err := h.repo.Update(c.Context(), existing); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Product updated", "data": existing})
}

// Delete deactivates rather than removes: historical shipment and billing
// lines keep referencing the product.
func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.repo.Deactivate(c.Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Product deactivated"})
}

// ---- stores ----

type StoreHandler struct {
	repo   repository.StoreRepository
	ranger *datetz.Ranger
}

func NewStoreHandler(repo repository.StoreRepository, ranger *datetz.Ranger) *StoreHandler {
	return &StoreHandler{repo: repo, ranger: ranger}
}

var storeSortable = map[string]string{
	"id":         "stores.id",
	"name":       "stores.name",
	"kabupaten":  "stores.kabupaten",
	"kecamatan":  "stores.kecamatan",
	"created_at": "stores.created_at",
}

func (h *StoreHandler) List(c *fiber.Ctx) error {
	f, err := parseFilter(c, h.ranger, storeSortable, "id")
	if err != nil {
		return respondError(c, err)
	}
	stores, total, err := h.repo.List(c.Context(), f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(listResponse(stores, f, total))
}

func (h *StoreHandler) Get(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	store, err := h.repo.FindByID(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(store)
}

func (h *StoreHandler) Create(c *fiber.Ctx) error {
	var store model.Store
	if err := c.BodyParser(&store); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if m := validationFailure(&store); m != nil {
		return c.Status(fiber.StatusBadRequest).JSON(m)
	}
	if err := h.repo.Create(c.Context(), &store); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Store created", "data": store})
}

func (h *StoreHandler) Update(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	existing, err := h.repo.FindByID(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	var in model.Store
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if m := validationFailure(&in); m != nil {
		return c.Status(fiber.StatusBadRequest).JSON(m)
	}
	existing.Name = in.Name
	existing.OwnerName = in.OwnerName
	existing.Phone = in.Phone
	existing.Kabupaten = in.Kabupaten
	existing.Kecamatan = in.Kecamatan
	existing.Address = in.Address
	existing.IsActive = in.IsActive
	existing.SalesRepID = in.SalesRepID
	existing.SalesRep = nil
	if err := h.repo.Update(c.Context(), existing); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Store updated", "data": existing})
}

func (h *StoreHandler) Delete(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.repo.Deactivate(c.Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Store deactivated"})
}

// ---- sales reps ----

type SalesRepHandler struct {
	repo   repository.SalesRepRepository
	ranger *datetz.Ranger
}

func NewSalesRepHandler(repo repository.SalesRepRepository, ranger *datetz.Ranger) *SalesRepHandler {
	return &SalesRepHandler{repo: repo, ranger: ranger}
}

var salesRepSortable = map[string]string{
	"id":         "sales_reps.id",
	"name":       "sales_reps.name",
	"created_at": "sales_reps.created_at",
}

func (h *SalesRepHandler) List(c *fiber.Ctx) error {
	f, err := parseFilter(c, h.ranger, salesRepSortable, "id")
	if err != nil {
		return respondError(c, err)
	}
	reps, total, err := h.repo.List(c.Context(), f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(listResponse(reps, f, total))
}

func (h *SalesRepHandler) Get(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	rep, err := h.repo.FindByID(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(rep)
}

func (h *SalesRepHandler) Create(c *fiber.Ctx) error {
	var rep model.SalesRep
	if err := c.BodyParser(&rep); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if m := validationFailure(&rep); m != nil {
		return c.Status(fiber.StatusBadRequest).JSON(m)
	}
	if err := h.repo.Create(c.Context(), &rep); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Sales rep created", "data": rep})
}

func (h *SalesRepHandler) Update(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	existing, err := h.repo.FindByID(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	var in model.SalesRep
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if m := validationFailure(&in); m != nil {
		return c.Status(fiber.StatusBadRequest).JSON(m)
	}
	existing.Name = in.Name
	existing.Phone = in.Phone
	existing.IsActive = in.IsActive
	existing.Stores = nil
	if err := h.repo.Update(c.Context(), existing); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Sales rep updated", "data": existing})
}

func (h *SalesRepHandler) Delete(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.repo.Deactivate(c.Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Sales rep deactivated"})
}
