package helpers

import (
	"net/http/httptest"
	"testing"

	"github.com/coursetable/ferry/internal/app/models/dto"
	"github.com/gin-gonic/gin"
)

func TestCalculateOffsetLimit(t *testing.T) {
	testCases := []struct {
		page, size int
		offset     uint64
		limit      int
	}{
		{page: 1, size: 10, offset: 0, limit: 10},
		{page: 3, size: 25, offset: 50, limit: 25},
		{page: 0, size: 25, offset: 0, limit: 25},
		{page: 2, size: 0, offset: 10, limit: DefaultPageSize},
		{page: 2, size: MaxPageSize + 1, offset: 10, limit: DefaultPageSize},
	}
	for i, testCase := range testCases {
		offset, limit := CalculateOffsetLimit(testCase.page, testCase.size)
		if offset != testCase.offset || limit != testCase.limit {
			t.Errorf("[i=%v] Expected (%v, %v) but actual=(%v, %v)", i, testCase.offset, testCase.limit, offset, limit)
		}
	}
}

func TestNewPaginationInfo(t *testing.T) {
	testCases := []struct {
		total      int64
		page, size int
		expected   dto.PaginationInfo
	}{
		{total: 0, page: 1, size: 10, expected: dto.PaginationInfo{CurrentPage: 1, TotalPages: 1, PageSize: 10}},
		{total: 21, page: 2, size: 10, expected: dto.PaginationInfo{CurrentPage: 2, TotalPages: 3, PageSize: 10, TotalItems: 21}},
		{total: 21, page: 9, size: 10, expected: dto.PaginationInfo{CurrentPage: 3, TotalPages: 3, PageSize: 10, TotalItems: 21}},
	}
	for i, testCase := range testCases {
		if actual := NewPaginationInfo(testCase.total, testCase.page, testCase.size); actual != testCase.expected {
			t.Errorf("[i=%v] Expected %+v but actual=%+v", i, testCase.expected, actual)
		}
	}
}

func TestParsePaginationParams(t *testing.T) {
	gin.SetMode(gin.TestMode)
	testCases := []struct {
		query      string
		page, size int
	}{
		{query: "", page: 1, size: DefaultPageSize},
		{query: "?page=4&size=50", page: 4, size: 50},
		{query: "?page=-1&size=1000", page: 1, size: DefaultPageSize},
		{query: "?page=x&size=y", page: 1, size: DefaultPageSize},
	}
	for i, testCase := range testCases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/runs"+testCase.query, nil)
		page, size := ParsePaginationParams(c)
		if page != testCase.page || size != testCase.size {
			t.Errorf("[i=%v] Expected (%v, %v) but actual=(%v, %v)", i, testCase.page, testCase.size, page, size)
		}
	}
}
