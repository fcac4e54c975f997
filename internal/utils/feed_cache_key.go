package utils

import "strconv"

func BuildFeedPageCacheKey(page, limit int) string {
	return "feed:page:v1:page=" + strconv.Itoa(page) + ":limit=" + strconv.Itoa(limit)
}
