package nutrition

import (
	"fmt"
	"strconv"
	"strings"

	"nutrition-lookup/internal/core/matching"
)

// 快取命名空間
const (
	NamespaceNutrition   = "nutrition"
	NamespaceBarcode     = "barcode"
	NamespaceProviderAPI = "provider_api"
)

// CacheKey 產生確定性的快取鍵：
// {namespace}:{version}:{normalizedQuery}:{locale}[:{portionGrams}]
func CacheKey(namespace, version, query, locale string, portionGrams float64) string {
	key := fmt.Sprintf("%s:%s:%s:%s",
		namespace,
		version,
		matching.Normalize(query),
		strings.ToLower(strings.TrimSpace(locale)),
	)
	if portionGrams > 0 {
		key += ":" + strconv.FormatFloat(portionGrams, 'f', -1, 64)
	}
	return key
}
