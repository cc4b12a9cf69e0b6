// Package plu implements the PLU ("price look-up") encoding used by the Belgian
// fiscal data module to fingerprint the content of a ticket.
//
// Every order line becomes a fixed 33 character fragment:
//
//	|--------+-------------+-------+-----|
//	| AMOUNT | DESCRIPTION | PRICE | VAT |
//	|      4 |          20 |     8 |   1 |
//	|--------+-------------+-------+-----|
//
// Text and numbers are first normalized to the A-Z0-9 alphabet (see Normalize),
// numeric fields keep their least significant digits and are left padded with
// zeros, the description is right padded with spaces. The order hash is the last
// eight hex characters of the SHA-1 of all fragments concatenated in line order.
//
// Example Usage:
//
//	hash, err := plu.HashLines([]plu.Line{{
//	    Quantity:    decimal.NewFromInt(1),
//	    Unit:        plu.Unit{Name: "Units", IsUnit: true},
//	    Description: "Crème brûlée",
//	    Price:       decimal.RequireFromString("4.50"),
//	    VATLetter:   "B",
//	}}, units)
package plu
