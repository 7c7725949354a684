package service

import (
	"strings"
	"time"

	"github.com/dujiao-next/cartflow/internal/constants"
)

// NormalizeOrderStatus 忽略大小写匹配合法订单状态
func NormalizeOrderStatus(raw string) (string, bool) {
	status := strings.ToLower(strings.TrimSpace(raw))
	for _, allowed := range constants.OrderStatuses {
		if status == allowed {
			return status, true
		}
	}
	return "", false
}

var orderDateLayouts = []string{"2006-01-02", time.RFC3339}

func validOrderDate(raw string) bool {
	for _, layout := range orderDateLayouts {
		if _, err := time.Parse(layout, raw); err == nil {
			return true
		}
	}
	return false
}
