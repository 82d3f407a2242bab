package models

// Capability names one console module a staff account may be granted.
type Capability string

const (
	CapabilityDashboard Capability = "dashboard"
	CapabilityBills     Capability = "bills"
	CapabilityBrand     Capability = "brand"
	CapabilityProduct   Capability = "product"
	CapabilityCustomer  Capability = "customer"
	CapabilityCheckin   Capability = "checkin"
	CapabilityAuditLogs Capability = "auditlogs"
	CapabilityReports   Capability = "reports"
)

var AllCapabilities = []Capability{
	CapabilityDashboard,
	CapabilityBills,
	CapabilityBrand,
	CapabilityProduct,
	CapabilityCustomer,
	CapabilityCheckin,
	CapabilityAuditLogs,
	CapabilityReports,
}

func (p Permissions) flag(c Capability) Flag {
	switch c {
	case CapabilityDashboard:
		return p.Dashboard
	case CapabilityBills:
		return p.Bills
	case CapabilityBrand:
		return p.Brand
	case CapabilityProduct:
		return p.Product
	case CapabilityCustomer:
		return p.Customer
	case CapabilityCheckin:
		return p.Checkin
	case CapabilityAuditLogs:
		return p.AuditLogs
	case CapabilityReports:
		return p.Reports
	}
	return 0
}

// Has is true only when the flag is exactly 1.
func (p Permissions) Has(c Capability) bool {
	return p.flag(c) == 1
}

// HasCapability gates a console module. Missing permissions deny everything.
func HasCapability(perms *Permissions, c Capability) bool {
	if perms == nil {
		return false
	}
	return perms.Has(c)
}

// CanManageStaff depends on the role alone; permission flags never grant it.
func CanManageStaff(user *User) bool {
	return user != nil && user.Role == UserRoleAdmin
}

type NavItem struct {
	Key  string `json:"key"`
	Path string `json:"path"`
}

type navEntry struct {
	item       NavItem
	capability Capability
	adminOnly  bool
}

var navEntries = []navEntry{
	{item: NavItem{Key: "dashboard", Path: "/admin/dashboard"}, capability: CapabilityDashboard},
	{item: NavItem{Key: "staff", Path: "/admin/staff"}, adminOnly: true},
	{item: NavItem{Key: "bills", Path: "/admin/bills"}, capability: CapabilityBills},
	{item: NavItem{Key: "products", Path: "/admin/products"}, capability: CapabilityProduct},
	{item: NavItem{Key: "brands", Path: "/admin/brands"}, capability: CapabilityBrand},
	{item: NavItem{Key: "customers", Path: "/admin/customers"}, capability: CapabilityCustomer},
	{item: NavItem{Key: "checkin", Path: "/admin/checkin"}, capability: CapabilityCheckin},
	{item: NavItem{Key: "auditlogs", Path: "/admin/auditlogs"}, capability: CapabilityAuditLogs},
	{item: NavItem{Key: "reports", Path: "/admin/reports"}, capability: CapabilityReports},
}

// NavItems returns the navigation the user may see. Denied sections are left out entirely.
func NavItems(user *User, perms *Permissions) []NavItem {
	items := make([]NavItem, 0, len(navEntries))
	for _, e := range navEntries {
		if e.adminOnly {
			if CanManageStaff(user) {
				items = append(items, e.item)
			}
			continue
		}
		if HasCapability(perms, e.capability) {
			items = append(items, e.item)
		}
	}
	return items
}
