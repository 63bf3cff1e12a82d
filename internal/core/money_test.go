package core

import "testing"

func TestParseValorBR(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1.234,56", 123456, true},
		{"0,00", 0, true},
		{"10,50", 1050, true},
		{"1234,56", 123456, true}, // milhar sem ponto também aparece no portal
		{"1.234.567,89", 123456789, true},
		{" 2,50 ", 250, true},
		{"10,5", 0, false}, // uma casa decimal: linha descartada
		{"10,555", 0, false},
		{"1.23,45", 0, false}, // grupo de milhar quebrado
		{"12.34,56", 0, false},
		{"1234.567,89", 0, false},
		{",50", 0, false},
		{"1.234", 0, false}, // sem vírgula decimal
		{"-1,00", 0, false},
		{"abc", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseValorBR(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error, got %d", tc.in, got)
			}
		}
	}
}

func TestMoneyReais(t *testing.T) {
	if r := (Money{Centavos: 123456}).Reais(); r != 1234.56 {
		t.Fatalf("expected 1234.56, got %v", r)
	}
	if r := (Money{}).Reais(); r != 0.0 {
		t.Fatalf("expected 0.0, got %v", r)
	}
}
