package notify

import "strings"

var phoneSeparators = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")

// NormalizePhone turns a local number such as 0771234567 into E.164 using countryCode.
// Numbers that already start with + are returned as-is.
func NormalizePhone(phone, countryCode string) string {
	p := phoneSeparators.Replace(strings.TrimSpace(phone))
	if p == "" {
		return ""
	}
	if strings.HasPrefix(p, "+") {
		return p
	}
	if strings.HasPrefix(p, "0") && countryCode != "" {
		return countryCode + p[1:]
	}
	return p
}
