package api

import (
	"fmt"
	"net/http"

	"pasteleria/internal/models"
	"pasteleria/internal/service"

	"github.com/gin-gonic/gin"
)

func (h *Handler) register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.svc.Auth.Register(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *Handler) login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.svc.Auth.Login(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) listProducts(c *gin.Context) {
	filter := models.ProductFilter{
		Category: c.Query("categoria"),
		Search:   c.Query("buscar"),
	}
	products, err := h.svc.Catalog.ListProducts(c.Request.Context(), filter)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) listCategories(c *gin.Context) {
	categories, err := h.svc.Catalog.ListCategories(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (h *Handler) getProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	product, err := h.svc.Catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) listProductReviews(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	reviews, err := h.svc.Reviews.ListApprovedForProduct(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, reviews)
}

func (h *Handler) getCart(c *gin.Context) {
	view, err := h.svc.Cart.GetOrCreateCart(c.Request.Context(), currentIdentity(c).UserID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) addCartItem(c *gin.Context) {
	var req service.CartItemRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	view, err := h.svc.Cart.AddItem(c.Request.Context(), currentIdentity(c).UserID, req.ProductID, req.Quantity)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) updateCartItem(c *gin.Context) {
	var req service.CartItemRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}

	view, err := h.svc.Cart.UpdateItemQuantity(c.Request.Context(), currentIdentity(c).UserID, req.ProductID, req.Quantity)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) removeCartItem(c *gin.Context) {
	var req service.CartItemRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}

	view, err := h.svc.Cart.RemoveItem(c.Request.Context(), currentIdentity(c).UserID, req.ProductID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// checkout handles cart finalization
func (h *Handler) checkout(c *gin.Context) {
	var req service.CheckoutRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}
	req.IdempotencyKey = c.GetHeader("Idempotency-Key")

	order, err := h.svc.Orders.Finalize(c.Request.Context(), currentIdentity(c).UserID, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *Handler) myOrders(c *gin.Context) {
	orders, err := h.svc.Orders.ListCustomerOrders(c.Request.Context(), currentIdentity(c).UserID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Handler) getMyOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	order, err := h.svc.Orders.GetCustomerOrder(c.Request.Context(), currentIdentity(c).UserID, id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) createReview(c *gin.Context) {
	var req service.ReviewRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}

	review, err := h.svc.Reviews.Submit(c.Request.Context(), currentIdentity(c).UserID, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, review)
}

// downloadInvoice streams the boleta PDF. Admins may download any order's invoice.
func (h *Handler) downloadInvoice(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	who := currentIdentity(c)

	name, data, err := h.svc.Invoices.DownloadPDF(c.Request.Context(), who.UserID, who.IsAdmin(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "application/pdf", data)
}

func (h *Handler) invoiceStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	who := currentIdentity(c)

	status, err := h.svc.Invoices.Status(c.Request.Context(), who.UserID, who.IsAdmin(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}
