package workflow

import (
	"sort"
	"strings"
)

// RoleBucket is the canonical grouping of external role codes
type RoleBucket string

const (
	RoleAdmin      RoleBucket = "admin"
	RoleDirector   RoleBucket = "director"
	RoleManager    RoleBucket = "manager"
	RoleAccountant RoleBucket = "accountant"
	RoleSales      RoleBucket = "sales"
	RoleEmployee   RoleBucket = "employee"
)

// roleCodes is the translation table from directory role codes to buckets.
// Codes not listed here belong to RoleEmployee.
var roleCodes = map[string]RoleBucket{
	"admin":           RoleAdmin,
	"director":        RoleDirector,
	"giam_doc":        RoleDirector,
	"manager":         RoleManager,
	"ip_manager":      RoleManager,
	"quan_ly":         RoleManager,
	"accountant":      RoleAccountant,
	"ke_toan":         RoleAccountant,
	"marketing_sales": RoleSales,
	"sales":           RoleSales,
}

// BucketOf normalizes an external role code
func BucketOf(roleCode string) RoleBucket {
	if b, ok := roleCodes[strings.ToLower(strings.TrimSpace(roleCode))]; ok {
		return b
	}
	return RoleEmployee
}

// CodesFor returns every external role code that maps to the bucket, sorted.
// RoleEmployee has no fixed codes and returns nil.
func CodesFor(bucket RoleBucket) []string {
	var codes []string
	for code, b := range roleCodes {
		if b == bucket {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	return codes
}

// String returns the string representation of the bucket
func (r RoleBucket) String() string {
	return string(r)
}
