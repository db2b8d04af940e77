package persona

import (
	"fmt"
	"sort"
	"strings"
)

// Product is one entry of the product knowledge base used for deterministic
// answers to rate, fee and feature questions.
type Product struct {
	// Name is the product's display name.
	Name string `yaml:"name"`

	// Category groups products, e.g. "savings" or "credit card".
	Category string `yaml:"category"`

	// MinimumDeposit in whole currency units.
	MinimumDeposit int `yaml:"minimum_deposit"`

	// MonthlyFee in whole currency units.
	MonthlyFee int `yaml:"monthly_fee"`

	// InterestRate as an annual percentage.
	InterestRate float64 `yaml:"interest_rate"`

	// FeeWaiver describes how the monthly fee can be waived, if at all.
	FeeWaiver string `yaml:"fee_waiver"`

	// KeyFeatures is a short feature summary.
	KeyFeatures string `yaml:"key_features"`
}

// Products is a formattable product list.
type Products []Product

// ByCategory returns products whose category contains the given filter,
// case-insensitively. An empty filter, or one matching nothing, returns
// all products.
func (ps Products) ByCategory(category string) Products {
	if category == "" {
		return ps
	}
	var out Products
	for _, p := range ps {
		if strings.Contains(strings.ToLower(p.Category), strings.ToLower(category)) {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return ps
	}
	return out
}

// RatesInfo formats the products' interest rates, highest first.
func (ps Products) RatesInfo() string {
	if len(ps) == 0 {
		return "No interest rate information available for this product type."
	}
	sorted := append(Products(nil), ps...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].InterestRate > sorted[j].InterestRate
	})

	var b strings.Builder
	b.WriteString("Current interest rates:\n")
	for _, p := range sorted {
		fmt.Fprintf(&b, "- %s (%s): %.2f%%\n", p.Name, p.Category, p.InterestRate)
	}
	return b.String()
}

// FeesInfo formats the products' monthly fees and waiver conditions.
func (ps Products) FeesInfo() string {
	if len(ps) == 0 {
		return "No fee information available for this product type."
	}

	var b strings.Builder
	b.WriteString("Fee information:\n")
	for _, p := range ps {
		fmt.Fprintf(&b, "- %s (%s): %d monthly", p.Name, p.Category, p.MonthlyFee)
		if p.FeeWaiver != "" {
			fmt.Fprintf(&b, " (Can be waived: %s)", p.FeeWaiver)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// FeaturesInfo formats the products' key features.
func (ps Products) FeaturesInfo() string {
	if len(ps) == 0 {
		return "No feature information available for this product type."
	}

	var b strings.Builder
	b.WriteString("Key features:\n")
	for _, p := range ps {
		fmt.Fprintf(&b, "- %s (%s): %s\n", p.Name, p.Category, p.KeyFeatures)
	}
	return b.String()
}
