package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAmountInWords(t *testing.T) {
	tests := []struct {
		name     string
		input    int64
		expected string
	}{
		{name: "Zero", input: 0, expected: "Zero Rupees Only"},
		{name: "Single digit", input: 7, expected: "Seven Rupees Only"},
		{name: "Teen", input: 13, expected: "Thirteen Rupees Only"},
		{name: "Round tens", input: 40, expected: "Forty Rupees Only"},
		{name: "Tens and ones", input: 99, expected: "Ninety Nine Rupees Only"},
		{name: "Round hundred", input: 100, expected: "One Hundred Rupees Only"},
		{name: "Hundreds", input: 199, expected: "One Hundred Ninety Nine Rupees Only"},
		{name: "Hundred and teen", input: 111, expected: "One Hundred Eleven Rupees Only"},
		{name: "Thousand", input: 1100, expected: "One Thousand One Hundred Rupees Only"},
		{name: "Impact amount", input: 21000, expected: "Twenty One Thousand Rupees Only"},
		{name: "One lakh", input: 100000, expected: "One Lakh Rupees Only"},
		{name: "Ceiling", input: 500000, expected: "Five Lakh Rupees Only"},
		{name: "Mixed lakh", input: 150501, expected: "One Lakh Fifty Thousand Five Hundred One Rupees Only"},
		{name: "One crore", input: 10000000, expected: "One Crore Rupees Only"},
		{name: "Full spread", input: 123456789, expected: "Twelve Crore Thirty Four Lakh Fifty Six Thousand Seven Hundred Eighty Nine Rupees Only"},
		{name: "Thousand crore", input: 10000000000, expected: "One Thousand Crore Rupees Only"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, AmountInWords(tt.input))
		})
	}
}

func TestAmountInWords_Deterministic(t *testing.T) {
	for _, n := range []int64{0, 1, 19, 199, 1001, 99999, 100000, 9999999} {
		assert.Equal(t, AmountInWords(n), AmountInWords(n))
	}
}

func TestFormatIndian(t *testing.T) {
	tests := []struct {
		input    int64
		expected string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{21000, "21,000"},
		{500000, "5,00,000"},
		{12345678, "1,23,45,678"},
		{-150000, "-1,50,000"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatIndian(tt.input))
	}
}

func TestFormatMinorUnits(t *testing.T) {
	assert.Equal(t, "199", FormatMinorUnits(19900))
	assert.Equal(t, "199.5", FormatMinorUnits(19950))
	assert.Equal(t, "0.01", FormatMinorUnits(1))
	assert.Equal(t, "0", FormatMinorUnits(0))
}
