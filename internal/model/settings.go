package model

import (
	"time"
	// Embedded zone database so timezone validation works on minimal images.
	_ "time/tzdata"

	"github.com/shopspring/decimal"
)

// SettingsID is the primary key of the singleton settings row.
const SettingsID uint = 1

type BusinessSettings struct {
	ShopName             string          `gorm:"type:varchar(120)" json:"shop_name" validate:"required"`
	ContactNumber        string          `gorm:"type:varchar(30)" json:"contact_number"`
	Email                string          `gorm:"type:varchar(255)" json:"email" validate:"omitempty,email"`
	Address              string          `gorm:"type:text" json:"address"`
	BusinessType         string          `gorm:"type:varchar(20)" json:"business_type" validate:"oneof=Salon Barbershop Spa"`
	GSTNumber            string          `gorm:"type:varchar(30)" json:"gst_number"`
	DefaultTaxPercent    decimal.Decimal `gorm:"type:numeric(5,2)" json:"default_tax_percent" validate:"dec_gte0,lte=100"`
	TaxType              string          `gorm:"type:varchar(20)" json:"tax_type" validate:"oneof=Inclusive Exclusive"`
	InvoicePrefix        string          `gorm:"type:varchar(10)" json:"invoice_prefix" validate:"required,max=10,alphanum"`
	InvoiceFooterMessage string          `gorm:"type:text" json:"invoice_footer_message"`
	LogoURL              string          `gorm:"type:text" json:"logo_url" validate:"omitempty,url"`
	Currency             string          `gorm:"type:varchar(10)" json:"currency" validate:"required"`
	Timezone             string          `gorm:"type:varchar(64)" json:"timezone" validate:"required,timezone"`
	DateFormat           string          `gorm:"type:varchar(12)" json:"date_format" validate:"oneof=DD/MM/YYYY MM/DD/YYYY YYYY-MM-DD"`
}

type WorkingHours struct {
	OpeningTime  string `gorm:"type:varchar(5)" json:"opening_time" validate:"hhmm"`
	ClosingTime  string `gorm:"type:varchar(5)" json:"closing_time" validate:"hhmm"`
	WeeklyOffDay string `gorm:"type:varchar(10)" json:"weekly_off_day" validate:"oneof=Sunday Monday Tuesday Wednesday Thursday Friday Saturday None"`
}

type InventorySettings struct {
	LowStockThreshold    int  `json:"low_stock_threshold" validate:"gte=0"`
	ExpiryAlertDays      int  `json:"expiry_alert_days" validate:"gte=0,lte=365"`
	EnableExpiryTracking bool `json:"enable_expiry_tracking"`
	FIFOMode             bool `json:"fifo_mode"`
	AllowNegativeStock   bool `json:"allow_negative_stock"`
}

type ProcurementSettings struct {
	RequireAdminApproval bool `json:"require_admin_approval"`
	AllowPartialReceive  bool `json:"allow_partial_receive"`
	MaxReceiveQuantity   int  `json:"max_receive_quantity" validate:"gt=0"`
	InvoiceMandatory     bool `json:"invoice_mandatory"`
}

type NotificationChannels struct {
	Dashboard bool `json:"dashboard"`
	Email     bool `json:"email"`
}

type AlertSettings struct {
	EnableLowStockAlerts       bool                 `json:"enable_low_stock_alerts"`
	EnableExpiryAlerts         bool                 `json:"enable_expiry_alerts"`
	EnableProcurementReminders bool                 `json:"enable_procurement_reminders"`
	EnableDailySummary         bool                 `json:"enable_daily_summary"`
	NotificationChannels       NotificationChannels `gorm:"embedded;embeddedPrefix:channel_" json:"notification_channels"`
	AlertFrequency             string               `gorm:"type:varchar(10)" json:"alert_frequency" validate:"oneof=daily weekly"`
}

type PermissionSettings struct {
	DefaultManagerPermissions []string `gorm:"serializer:json;type:text" json:"default_manager_permissions"`
	DefaultStaffPermissions   []string `gorm:"serializer:json;type:text" json:"default_staff_permissions"`
	MaxStaffCount             int      `json:"max_staff_count" validate:"gte=0"`
	MaxManagerCount           int      `json:"max_manager_count" validate:"gte=0"`
}

type UISettings struct {
	Theme            string `gorm:"type:varchar(10)" json:"theme" validate:"oneof=dark light"`
	AccentColor      string `gorm:"type:varchar(10)" json:"accent_color" validate:"hexcolor"`
	LayoutDensity    string `gorm:"type:varchar(12)" json:"layout_density" validate:"oneof=compact comfortable"`
	EnableAnimations bool   `json:"enable_animations"`
}

type SecuritySettings struct {
	AutoLogoutMinutes int  `json:"auto_logout_minutes" validate:"gte=0"`
	SessionTimeout    int  `json:"session_timeout" validate:"gt=0"`
	Enable2FA         bool `json:"enable_2fa"`
}

// Settings is the per-deployment singleton. FIFOMode is always true once persisted.
type Settings struct {
	ID           uint                `gorm:"primaryKey" json:"-"`
	Business     BusinessSettings    `gorm:"embedded;embeddedPrefix:business_" json:"business"`
	WorkingHours WorkingHours        `gorm:"embedded;embeddedPrefix:hours_" json:"working_hours"`
	Inventory    InventorySettings   `gorm:"embedded;embeddedPrefix:inventory_" json:"inventory"`
	Procurement  ProcurementSettings `gorm:"embedded;embeddedPrefix:procurement_" json:"procurement"`
	Alerts       AlertSettings       `gorm:"embedded;embeddedPrefix:alerts_" json:"alerts"`
	Permissions  PermissionSettings  `gorm:"embedded;embeddedPrefix:permissions_" json:"permissions"`
	UI           UISettings          `gorm:"embedded;embeddedPrefix:ui_" json:"ui"`
	Security     SecuritySettings    `gorm:"embedded;embeddedPrefix:security_" json:"security"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
	UpdatedBy    string              `gorm:"type:varchar(64)" json:"updated_by,omitempty"`
}

func DefaultSettings() Settings {
	return Settings{
		ID: SettingsID,
		Business: BusinessSettings{
			ShopName:          "My Salon",
			BusinessType:      "Salon",
			DefaultTaxPercent: decimal.Zero,
			TaxType:           "Inclusive",
			InvoicePrefix:     "SAL",
			Currency:          "₹",
			Timezone:          "Asia/Kolkata",
			DateFormat:        "DD/MM/YYYY",
		},
		WorkingHours: WorkingHours{
			OpeningTime:  "09:00",
			ClosingTime:  "21:00",
			WeeklyOffDay: "Sunday",
		},
		Inventory: InventorySettings{
			LowStockThreshold:    DefaultLowStockThreshold,
			ExpiryAlertDays:      30,
			EnableExpiryTracking: true,
			FIFOMode:             true,
			AllowNegativeStock:   false,
		},
		Procurement: ProcurementSettings{
			RequireAdminApproval: true,
			AllowPartialReceive:  true,
			MaxReceiveQuantity:   100,
			InvoiceMandatory:     true,
		},
		Alerts: AlertSettings{
			EnableLowStockAlerts:       true,
			EnableExpiryAlerts:         true,
			EnableProcurementReminders: true,
			EnableDailySummary:         false,
			NotificationChannels:       NotificationChannels{Dashboard: true},
			AlertFrequency:             "daily",
		},
		Permissions: PermissionSettings{
			DefaultManagerPermissions: []string{PrivProcurementCreate, PrivProcurementReceive},
			DefaultStaffPermissions:   []string{PrivInventoryView},
			MaxStaffCount:             50,
			MaxManagerCount:           10,
		},
		UI: UISettings{
			Theme:            "dark",
			AccentColor:      "#3b82f6",
			LayoutDensity:    "comfortable",
			EnableAnimations: true,
		},
		Security: SecuritySettings{
			AutoLogoutMinutes: 30,
			SessionTimeout:    60,
		},
	}
}

// DateLayout maps the configured display format to a Go layout.
func (b BusinessSettings) DateLayout() string {
	switch b.DateFormat {
	case "MM/DD/YYYY":
		return "01/02/2006"
	case "YYYY-MM-DD":
		return "2006-01-02"
	}
	return "02/01/2006"
}
