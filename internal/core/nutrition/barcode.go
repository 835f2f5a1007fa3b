package nutrition

import (
	"regexp"
	"strings"
)

var (
	nonDigitRe     = regexp.MustCompile(`\D`)
	placeholderRe  = regexp.MustCompile(`^0+$`)
	variableWeight = regexp.MustCompile(`^2[0-9]`)
)

// NormalizeBarcode 正規化條碼：只留數字、UPC-A 轉 EAN-13、驗證檢查碼
// 無效或無法查詢的條碼回傳空字串
func NormalizeBarcode(barcode string) string {
	bc := nonDigitRe.ReplaceAllString(barcode, "")
	if bc == "" || placeholderRe.MatchString(bc) {
		return ""
	}

	switch len(bc) {
	case 8:
		if !validGTINCheckDigit(bc) {
			return ""
		}
		return bc
	case 12:
		bc = "0" + bc
	case 14:
		if !strings.HasPrefix(bc, "0") {
			return ""
		}
		bc = bc[1:]
	case 13:
	default:
		return ""
	}

	// 店內秤重商品碼（20-29 開頭）無法跨店查詢
	if variableWeight.MatchString(bc) {
		return ""
	}
	if !validGTINCheckDigit(bc) {
		return ""
	}
	return bc
}

// validGTINCheckDigit 驗證 EAN-8/EAN-13 檢查碼（由右往左，權重 3/1 交替）
func validGTINCheckDigit(bc string) bool {
	n := len(bc)
	sum := 0
	for i := 0; i < n-1; i++ {
		d := int(bc[i] - '0')
		// 距離檢查碼奇數位的權重為 3
		if (n-1-i)%2 == 1 {
			sum += d * 3
		} else {
			sum += d
		}
	}
	check := (10 - sum%10) % 10
	return int(bc[n-1]-'0') == check
}
