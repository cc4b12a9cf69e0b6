package models

import "strconv"

// ValidINSZ проверяет номер INSZ/BIS: 11 цифр, контрольное число по модулю 97.
func ValidINSZ(number string) bool {
	if len(number) != 11 {
		return false
	}
	for _, r := range number {
		if r < '0' || r > '9' {
			return false
		}
	}
	base, err := strconv.ParseInt(number[:9], 10, 64)
	if err != nil {
		return false
	}
	check, err := strconv.ParseInt(number[9:], 10, 64)
	if err != nil {
		return false
	}
	return base%97 == 97-check
}
