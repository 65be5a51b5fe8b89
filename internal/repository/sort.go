package repository

import "strings"

// VideoSortColumns maps the sort keys accepted by video list reads to their
// ORDER BY columns. Handlers validate request parameters against this map.
var VideoSortColumns = map[string]string{
	"publish_date": "publish_date",
	"likes":        "likes",
	"comments":     "comments",
	"shares":       "shares",
	"views":        "views",
}

// PostSortColumns maps the sort keys accepted by Instagram post list reads
// to their ORDER BY columns. Columns are qualified because list reads join
// against instagram_profiles.
var PostSortColumns = map[string]string{
	"timestamp": "instagram_posts.timestamp",
	"likes":     "instagram_posts.likes",
	"comments":  "instagram_posts.comments",
}

func videoOrder(sortBy, order string) string {
	col, ok := VideoSortColumns[sortBy]
	if !ok {
		col = "publish_date"
	}
	return col + " " + sqlDirection(order)
}

func postOrder(sortBy, order string) string {
	col, ok := PostSortColumns[sortBy]
	if !ok {
		col = "instagram_posts.timestamp"
	}
	return col + " " + sqlDirection(order)
}

func sqlDirection(order string) string {
	if strings.EqualFold(order, "asc") {
		return "ASC"
	}
	return "DESC"
}
