package handlers

import (
	stderrors "errors"
	"io"
	"strconv"

	"saasadmin/pkg/response"

	"github.com/gin-gonic/gin"
)

// parseID 解析路由中的ID参数，失败时已写入响应
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		response.BadRequest(c, "无效的ID")
		return 0, false
	}
	return uint(id), true
}

// optionalUintQuery 可选的整数查询参数，未提供时返回 nil
func optionalUintQuery(c *gin.Context, name string) (*uint, bool) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil, true
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		response.BadRequest(c, "无效的参数: "+name)
		return nil, false
	}
	id := uint(v)
	return &id, true
}

func intQuery(c *gin.Context, name string, def int) int {
	if v, err := strconv.Atoi(c.Query(name)); err == nil {
		return v
	}
	return def
}

func floatQuery(c *gin.Context, name string, def float64) float64 {
	if v, err := strconv.ParseFloat(c.Query(name), 64); err == nil {
		return v
	}
	return def
}

// bindOptionalJSON 请求体可为空的 JSON 绑定
func bindOptionalJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil && !stderrors.Is(err, io.EOF) {
		response.BindError(c, err)
		return false
	}
	return true
}
