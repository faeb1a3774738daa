package handler

import (
	"errors"
	"net/http"
	"strconv"

	"shopreviews/pkg/logger"
	"shopreviews/reviews-service/internal/app/reviews/entity"
	"shopreviews/reviews-service/internal/app/reviews/schema"
	"shopreviews/reviews-service/internal/app/reviews/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// ShopHandler - HTTP обработчики покупателей, товаров и отзывов.
// Тело запроса разбирается схемой (лишние ключи отбрасываются), затем валидируется DTO
type ShopHandler struct {
	shopService service.ShopServiceInterface
	validator   *validator.Validate
}

func NewShopHandler(shopService service.ShopServiceInterface) *ShopHandler {
	return &ShopHandler{
		shopService: shopService,
		validator:   validator.New(),
	}
}

// ===================== Customers =====================

func (h *ShopHandler) CreateCustomer(c *gin.Context) {
	req, ok := h.bindCustomer(c)
	if !ok {
		return
	}

	view, err := h.shopService.CreateCustomer(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err, "create customer")
		return
	}

	c.JSON(http.StatusCreated, view)
}

func (h *ShopHandler) GetCustomer(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	view, err := h.shopService.GetCustomer(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "get customer")
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *ShopHandler) ListCustomers(c *gin.Context) {
	views, err := h.shopService.ListCustomers(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "list customers")
		return
	}

	c.JSON(http.StatusOK, gin.H{"customers": views, "total": len(views)})
}

func (h *ShopHandler) UpdateCustomer(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	req, ok := h.bindCustomer(c)
	if !ok {
		return
	}

	view, err := h.shopService.UpdateCustomer(c.Request.Context(), id, req)
	if err != nil {
		h.respondError(c, err, "update customer")
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *ShopHandler) DeleteCustomer(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.shopService.DeleteCustomer(c.Request.Context(), id); err != nil {
		h.respondError(c, err, "delete customer")
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{Message: "Customer deleted successfully"})
}

// GetCustomerItems - товары из отзывов покупателя, по одному на отзыв
func (h *ShopHandler) GetCustomerItems(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	views, err := h.shopService.GetCustomerItems(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "get customer items")
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": views, "total": len(views)})
}

// ===================== Items =====================

func (h *ShopHandler) CreateItem(c *gin.Context) {
	req, ok := h.bindItem(c)
	if !ok {
		return
	}

	view, err := h.shopService.CreateItem(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err, "create item")
		return
	}

	c.JSON(http.StatusCreated, view)
}

func (h *ShopHandler) GetItem(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	view, err := h.shopService.GetItem(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "get item")
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *ShopHandler) ListItems(c *gin.Context) {
	views, err := h.shopService.ListItems(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "list items")
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": views, "total": len(views)})
}

func (h *ShopHandler) UpdateItem(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	req, ok := h.bindItem(c)
	if !ok {
		return
	}

	view, err := h.shopService.UpdateItem(c.Request.Context(), id, req)
	if err != nil {
		h.respondError(c, err, "update item")
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *ShopHandler) DeleteItem(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.shopService.DeleteItem(c.Request.Context(), id); err != nil {
		h.respondError(c, err, "delete item")
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{Message: "Item deleted successfully"})
}

// ===================== Reviews =====================

// CreateReview ожидает {"comment": ..., "customer": {"id": ...}, "item": {"id": ...}}
func (h *ShopHandler) CreateReview(c *gin.Context) {
	review, ok := h.loadReview(c)
	if !ok {
		return
	}

	req := &entity.CreateReviewRequest{
		Comment:    review.Comment,
		CustomerID: review.CustomerID,
		ItemID:     review.ItemID,
	}
	if !h.validate(c, req) {
		return
	}

	view, err := h.shopService.CreateReview(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCustomerNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found", "message": "customer " + strconv.FormatInt(req.CustomerID, 10) + " does not exist"})
		case errors.Is(err, service.ErrItemNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Item not found", "message": "item " + strconv.FormatInt(req.ItemID, 10) + " does not exist"})
		default:
			h.respondError(c, err, "create review")
		}
		return
	}

	c.JSON(http.StatusCreated, view)
}

func (h *ShopHandler) GetReview(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	view, err := h.shopService.GetReview(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "get review")
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *ShopHandler) ListReviews(c *gin.Context) {
	views, err := h.shopService.ListReviews(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "list reviews")
		return
	}

	c.JSON(http.StatusOK, gin.H{"reviews": views, "total": len(views)})
}

// UpdateReview заменяет комментарий. Отсутствующие customer/item оставляют текущих владельцев
func (h *ShopHandler) UpdateReview(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	review, ok := h.loadReview(c)
	if !ok {
		return
	}

	req := &entity.UpdateReviewRequest{
		Comment:    review.Comment,
		CustomerID: review.CustomerID,
		ItemID:     review.ItemID,
	}
	if !h.validate(c, req) {
		return
	}

	view, err := h.shopService.UpdateReview(c.Request.Context(), id, req)
	if err != nil {
		h.respondError(c, err, "update review")
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *ShopHandler) DeleteReview(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.shopService.DeleteReview(c.Request.Context(), id); err != nil {
		h.respondError(c, err, "delete review")
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{Message: "Review deleted successfully"})
}

// ===================== helpers =====================

func (h *ShopHandler) bindCustomer(c *gin.Context) (*entity.CreateCustomerRequest, bool) {
	body, ok := readBody(c)
	if !ok {
		return nil, false
	}

	customer, err := schema.Customer.FromView(body)
	if err != nil {
		respondInvalidPayload(c, err)
		return nil, false
	}

	req := &entity.CreateCustomerRequest{Name: customer.Name}
	return req, h.validate(c, req)
}

func (h *ShopHandler) bindItem(c *gin.Context) (*entity.CreateItemRequest, bool) {
	body, ok := readBody(c)
	if !ok {
		return nil, false
	}

	item, err := schema.Item.FromView(body)
	if err != nil {
		respondInvalidPayload(c, err)
		return nil, false
	}

	req := &entity.CreateItemRequest{Name: item.Name, Price: item.Price}
	return req, h.validate(c, req)
}

func (h *ShopHandler) loadReview(c *gin.Context) (*entity.Review, bool) {
	body, ok := readBody(c)
	if !ok {
		return nil, false
	}

	review, err := schema.Review.FromView(body)
	if err != nil {
		respondInvalidPayload(c, err)
		return nil, false
	}
	return review, true
}

func (h *ShopHandler) validate(c *gin.Context, req interface{}) bool {
	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": formatValidationError(err)})
		return false
	}
	return true
}

func (h *ShopHandler) respondError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, service.ErrCustomerNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
	case errors.Is(err, service.ErrItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
	case errors.Is(err, service.ErrReviewNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Review not found"})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Referenced customer or item no longer exists"})
	default:
		logger.Error().
			Err(err).
			Str("request_id", c.GetString("request_id")).
			Msg("Failed to " + action)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + action})
	}
}

func readBody(c *gin.Context) ([]byte, bool) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return nil, false
	}
	return body, true
}

func respondInvalidPayload(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "message": err.Error()})
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return 0, false
	}
	return id, true
}

func formatValidationError(err error) string {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fieldError := range validationErrors {
			return fieldError.Field() + " is " + fieldError.Tag()
		}
	}
	return "Validation failed"
}
