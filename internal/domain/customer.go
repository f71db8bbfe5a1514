// Package domain contains core domain types for the Shamba platform.
package domain

import (
	"strings"
	"time"
)

// JoinMethodUSSD tags customers whose record was first created by the USSD
// dialog engine rather than by the call centre or a bulk import.
const JoinMethodUSSD = "ussd"

// Commodity kinds tracked against a customer.
const (
	CommodityCrop      = "crop"
	CommodityLivestock = "livestock"
)

// Customer is the farmer profile record. The interrogation engine only ever
// writes the specific fields it owns (narrow field-list updates); it never
// saves the whole record.
type Customer struct {
	ID            string
	Phone         string
	FirstName     string
	LastName      string
	Sex           string
	DateOfBirth   *time.Time
	RegionID      string
	SchoolID      string
	OwnsFarm      *bool
	FarmSizeAcres *float64
	Crops         []string
	Livestock     []string
	IsRegistered  bool
	JoinMethod    string
	Language      string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// FullName joins first and last name, tolerating either being unset.
func (c *Customer) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(c.FirstName) + " " + strings.TrimSpace(c.LastName))
}

// HasName reports whether a usable name has been collected.
func (c *Customer) HasName() bool {
	return strings.TrimSpace(c.FirstName) != ""
}

// HasLocation reports whether the customer has been placed in an
// administrative region.
func (c *Customer) HasLocation() bool {
	return c.RegionID != ""
}

// HasCrop reports whether the named crop is already associated.
func (c *Customer) HasCrop(name string) bool {
	for _, cr := range c.Crops {
		if strings.EqualFold(cr, name) {
			return true
		}
	}
	return false
}
