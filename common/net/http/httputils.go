package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/elder-platform/elder/common"
)

// Pagination is the standard list envelope named in spec §6:
// {items, total, page, per_page, pages}.
type Pagination struct {
	Items   any `json:"items"`
	Total   int `json:"total"`
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Pages   int `json:"pages"`
}

// NewPagination computes the Pages field and wraps items into the envelope.
func NewPagination(items any, total, page, perPage int) Pagination {
	pages := 0
	if perPage > 0 {
		pages = (total + perPage - 1) / perPage
	}

	return Pagination{Items: items, Total: total, Page: page, PerPage: perPage, Pages: pages}
}

// PageParams is the parsed (page, per_page) pair for a list endpoint,
// spec §6: page 1-indexed default 1, per_page default 50 max 1000.
type PageParams struct {
	Page    int
	PerPage int
}

const (
	defaultPage    = 1
	defaultPerPage = 50
	maxPerPage     = 1000
)

// ParsePageParams parses page/per_page query parameters, returning an error
// (common.ValidationError, surfaced as 400) when per_page exceeds maxPerPage.
func ParsePageParams(c *fiber.Ctx) (PageParams, error) {
	page := defaultPage
	if raw := c.Query("page"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			page = v
		}
	}

	perPage := defaultPerPage
	if raw := c.Query("per_page"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			return PageParams{}, badPagination()
		}

		if v > maxPerPage {
			return PageParams{}, badPagination()
		}

		perPage = v
	}

	return PageParams{Page: page, PerPage: perPage}, nil
}

func badPagination() error {
	return common.ValidationError{
		Title:   "Invalid Pagination",
		Message: "per_page must be between 1 and " + strconv.Itoa(maxPerPage),
	}
}

// IPAddrFromRemoteAddr removes port information from a host:port string.
func IPAddrFromRemoteAddr(s string) string {
	idx := strings.LastIndex(s, ":")
	if idx == -1 {
		return s
	}

	return s[:idx]
}

// GetRemoteAddress returns the IP address of the client making the request,
// honoring X-Real-Ip / X-Forwarded-For set by upstream proxies.
func GetRemoteAddress(r *http.Request) string {
	realIP := r.Header.Get(headerRealIP)
	forwardedFor := r.Header.Get(headerForwardedFor)

	if realIP == "" && forwardedFor == "" {
		return IPAddrFromRemoteAddr(r.RemoteAddr)
	}

	if forwardedFor != "" {
		parts := strings.Split(forwardedFor, ",")
		for i, p := range parts {
			parts[i] = strings.TrimSpace(p)
		}

		return parts[0]
	}

	return realIP
}
