package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestGetLimitParam(t *testing.T) {
	e := echo.New()
	tests := []struct {
		query string
		want  int
	}{
		{"", DefaultLimit},
		{"?limit=10", 10},
		{"?limit=0", DefaultLimit},
		{"?limit=-3", DefaultLimit},
		{"?limit=abc", DefaultLimit},
		{"?limit=9999", MaxLimit},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/v1/messages"+tt.query, nil)
		c := e.NewContext(req, httptest.NewRecorder())
		assert.Equal(t, tt.want, GetLimitParam(c), tt.query)
	}
}
