package handler

import (
	"github.com/gin-gonic/gin"

	orderapp "github.com/inventree/backend/internal/application/order"
	"github.com/inventree/backend/internal/interfaces/http/dto"
)

// bindOptionalJSON binds the body only when one was sent
func (h *BaseHandler) bindOptionalJSON(c *gin.Context, req any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	return h.bindJSON(c, req)
}

// pageOf reports the effective page and page size the services apply
func pageOf(f orderapp.ListFilter) (int, int) {
	d := dto.DefaultListRequest()
	page, size := d.Page, d.PageSize
	if f.Page > 0 {
		page = f.Page
	}
	if f.PageSize > 0 {
		size = min(f.PageSize, 100)
	}
	return page, size
}
