package model

// Privilege represents a permission granted to roles
type Privilege struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"` // e.g., "procurement:approve"
	Name string `gorm:"type:varchar(100)" json:"name"`                     // e.g., "Approve Procurement"
}

// Privilege codes checked by the HTTP layer.
const (
	PrivCatalogView   = "catalog:view"
	PrivCatalogCreate = "catalog:create"

	PrivInventoryView    = "inventory:view"
	PrivInventoryConsume = "inventory:consume"
	PrivInventoryStatus  = "inventory:status"
	PrivInventoryImport  = "inventory:import"

	PrivProcurementView    = "procurement:view"
	PrivProcurementCreate  = "procurement:create"
	PrivProcurementApprove = "procurement:approve"
	PrivProcurementReceive = "procurement:receive"

	PrivSalesView   = "sales:view"
	PrivSalesCreate = "sales:create"

	PrivSettingsView   = "settings:view"
	PrivSettingsUpdate = "settings:update"

	PrivUserManage = "user:manage"
	PrivExportRun  = "export:run"

	PrivDashboardView = "dashboard:view"
)

// Default privileges for the system
var DefaultPrivileges = []Privilege{
	{Code: PrivCatalogView, Name: "View Catalog"},
	{Code: PrivCatalogCreate, Name: "Create Product Group"},
	{Code: PrivInventoryView, Name: "View Inventory"},
	{Code: PrivInventoryConsume, Name: "Consume Stock"},
	{Code: PrivInventoryStatus, Name: "Override Unit Status"},
	{Code: PrivInventoryImport, Name: "Import Inventory"},
	{Code: PrivProcurementView, Name: "View Procurement"},
	{Code: PrivProcurementCreate, Name: "Request Procurement"},
	{Code: PrivProcurementApprove, Name: "Approve Procurement"},
	{Code: PrivProcurementReceive, Name: "Receive Procurement"},
	{Code: PrivSalesView, Name: "View Sales Invoices"},
	{Code: PrivSalesCreate, Name: "Create Sales Invoice"},
	{Code: PrivSettingsView, Name: "View Settings"},
	{Code: PrivSettingsUpdate, Name: "Update Settings"},
	{Code: PrivUserManage, Name: "Manage Users"},
	{Code: PrivExportRun, Name: "Export Data"},
	{Code: PrivDashboardView, Name: "View Dashboard"},
}
