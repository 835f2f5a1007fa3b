package nutrition

import "strings"

// countryRegions 國家代碼對應區域，未列出者預設為 EU
var countryRegions = map[string]Region{
	"US": RegionUS,

	"CH": RegionCH,
	"LI": RegionCH,

	"AT": RegionEU, "BE": RegionEU, "BG": RegionEU, "HR": RegionEU, "CY": RegionEU,
	"CZ": RegionEU, "DK": RegionEU, "EE": RegionEU, "FI": RegionEU, "FR": RegionEU,
	"DE": RegionEU, "GR": RegionEU, "HU": RegionEU, "IE": RegionEU, "IT": RegionEU,
	"LV": RegionEU, "LT": RegionEU, "LU": RegionEU, "MT": RegionEU, "NL": RegionEU,
	"PL": RegionEU, "PT": RegionEU, "RO": RegionEU, "SK": RegionEU, "SI": RegionEU,
	"ES": RegionEU, "SE": RegionEU, "GB": RegionEU, "NO": RegionEU, "IS": RegionEU,

	"AU": RegionOther, "NZ": RegionOther, "CA": RegionOther, "JP": RegionOther,
	"CN": RegionOther, "IN": RegionOther, "BR": RegionOther, "MX": RegionOther,
	"KR": RegionOther, "ZA": RegionOther, "SG": RegionOther,
}

// ResolveRegion 明確指定的區域優先，否則由 locale 推導
func ResolveRegion(lc LookupContext) Region {
	if lc.Region != "" {
		return Region(strings.ToUpper(string(lc.Region)))
	}
	return RegionForLocale(lc.Locale)
}

// RegionForLocale 由 locale（例如 de-CH、en_US）推導區域
func RegionForLocale(locale string) Region {
	_, country := SplitLocale(locale)
	if r, ok := countryRegions[country]; ok {
		return r
	}
	return RegionEU
}

// SplitLocale 拆出語言（小寫）與國家（大寫）
func SplitLocale(locale string) (lang, country string) {
	parts := strings.FieldsFunc(strings.TrimSpace(locale), func(r rune) bool {
		return r == '-' || r == '_'
	})
	if len(parts) > 0 {
		lang = strings.ToLower(parts[0])
	}
	if len(parts) > 1 {
		country = strings.ToUpper(parts[len(parts)-1])
	}
	return lang, country
}
