package utils

import (
	"strconv"

	"gorm.io/gorm"
)

const (
	DefaultPage = 1
	DefaultSize = 10
	MaxSize     = 100
)

// Paginate is a gorm scope applying LIMIT/OFFSET for a 1-based page.
func Paginate(page, size int) func(db *gorm.DB) *gorm.DB {
	page, size = NormalizePage(page, size)
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset((page - 1) * size).Limit(size)
	}
}

func NormalizePage(page, size int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if size < 1 {
		size = DefaultSize
	}
	if size > MaxSize {
		size = MaxSize
	}
	return page, size
}

// ParsePage reads page/size query values, falling back to the defaults.
func ParsePage(page, size string) (int, int) {
	pageInt, err := strconv.Atoi(page)
	if err != nil {
		pageInt = DefaultPage
	}
	sizeInt, err := strconv.Atoi(size)
	if err != nil {
		sizeInt = DefaultSize
	}
	return NormalizePage(pageInt, sizeInt)
}
