package utils

import (
	"strconv"
	"strings"
)

var (
	ones  = [...]string{"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine"}
	teens = [...]string{"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen", "Seventeen", "Eighteen", "Nineteen"}
	tens  = [...]string{"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety"}
)

const (
	crore    = 10000000
	lakh     = 100000
	thousand = 1000
)

// AmountInWords renders a rupee amount using the Indian numbering
// convention, e.g. 150000 -> "One Lakh Fifty Thousand Rupees Only".
func AmountInWords(n int64) string {
	if n == 0 {
		return "Zero Rupees Only"
	}
	if n < 0 {
		return "Minus " + AmountInWords(-n)
	}
	return indianWords(n) + " Rupees Only"
}

// indianWords splits n into crore/lakh/thousand/remainder groups. The crore
// group recurses so amounts above 999 crore still read correctly.
func indianWords(n int64) string {
	var parts []string

	if c := n / crore; c > 0 {
		parts = append(parts, indianWords(c)+" Crore")
	}
	if l := n % crore / lakh; l > 0 {
		parts = append(parts, belowThousand(l)+" Lakh")
	}
	if t := n % lakh / thousand; t > 0 {
		parts = append(parts, belowThousand(t)+" Thousand")
	}
	if r := n % thousand; r > 0 {
		parts = append(parts, belowThousand(r))
	}

	return strings.Join(parts, " ")
}

func belowThousand(n int64) string {
	switch {
	case n < 10:
		return ones[n]
	case n < 20:
		return teens[n-10]
	case n < 100:
		if n%10 == 0 {
			return tens[n/10]
		}
		return tens[n/10] + " " + ones[n%10]
	default:
		if n%100 == 0 {
			return ones[n/100] + " Hundred"
		}
		return ones[n/100] + " Hundred " + belowThousand(n%100)
	}
}

// FormatIndian groups digits the en-IN way: 500000 -> "5,00,000".
func FormatIndian(n int64) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return sign + s
	}

	head, tail := s[:len(s)-3], s[len(s)-3:]
	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	groups = append([]string{head}, groups...)

	return sign + strings.Join(groups, ",") + "," + tail
}

// FormatMinorUnits converts paise to a rupee string, keeping decimals only
// when they are non-zero (19900 -> "199", 19950 -> "199.5").
func FormatMinorUnits(minor int64) string {
	return strconv.FormatFloat(float64(minor)/100, 'f', -1, 64)
}
