package service

import (
	"context"
	"fmt"

	"salon-inventory/internal/model"
	"salon-inventory/internal/repository"
	"salon-inventory/internal/ws"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type SettingsService interface {
	GetSettings(ctx context.Context) (*model.Settings, error)
	UpdateSettings(ctx context.Context, actor Actor, patch SettingsPatch) (*model.Settings, error)
}

// SettingsPatch is a partial update. Nil sections and nil fields are left untouched.
type SettingsPatch struct {
	Business     *BusinessPatch     `json:"business"`
	WorkingHours *WorkingHoursPatch `json:"working_hours"`
	Inventory    *InventoryPatch    `json:"inventory"`
	Procurement  *ProcurementPatch  `json:"procurement"`
	Alerts       *AlertsPatch       `json:"alerts"`
	Permissions  *PermissionsPatch  `json:"permissions"`
	UI           *UIPatch           `json:"ui"`
	Security     *SecurityPatch     `json:"security"`
}

type BusinessPatch struct {
	ShopName             *string          `json:"shop_name"`
	ContactNumber        *string          `json:"contact_number"`
	Email                *string          `json:"email"`
	Address              *string          `json:"address"`
	BusinessType         *string          `json:"business_type"`
	GSTNumber            *string          `json:"gst_number"`
	DefaultTaxPercent    *decimal.Decimal `json:"default_tax_percent"`
	TaxType              *string          `json:"tax_type"`
	InvoicePrefix        *string          `json:"invoice_prefix"`
	InvoiceFooterMessage *string          `json:"invoice_footer_message"`
	LogoURL              *string          `json:"logo_url"`
	Currency             *string          `json:"currency"`
	Timezone             *string          `json:"timezone"`
	DateFormat           *string          `json:"date_format"`
}

type WorkingHoursPatch struct {
	OpeningTime  *string `json:"opening_time"`
	ClosingTime  *string `json:"closing_time"`
	WeeklyOffDay *string `json:"weekly_off_day"`
}

type InventoryPatch struct {
	LowStockThreshold    *int  `json:"low_stock_threshold"`
	ExpiryAlertDays      *int  `json:"expiry_alert_days"`
	EnableExpiryTracking *bool `json:"enable_expiry_tracking"`
	// FIFOMode is accepted but always stored as true.
	FIFOMode           *bool `json:"fifo_mode"`
	AllowNegativeStock *bool `json:"allow_negative_stock"`
}

type ProcurementPatch struct {
	RequireAdminApproval *bool `json:"require_admin_approval"`
	AllowPartialReceive  *bool `json:"allow_partial_receive"`
	MaxReceiveQuantity   *int  `json:"max_receive_quantity"`
	InvoiceMandatory     *bool `json:"invoice_mandatory"`
}

type ChannelsPatch struct {
	Dashboard *bool `json:"dashboard"`
	Email     *bool `json:"email"`
}

type AlertsPatch struct {
	EnableLowStockAlerts       *bool          `json:"enable_low_stock_alerts"`
	EnableExpiryAlerts         *bool          `json:"enable_expiry_alerts"`
	EnableProcurementReminders *bool          `json:"enable_procurement_reminders"`
	EnableDailySummary         *bool          `json:"enable_daily_summary"`
	NotificationChannels       *ChannelsPatch `json:"notification_channels"`
	AlertFrequency             *string        `json:"alert_frequency"`
}

type PermissionsPatch struct {
	DefaultManagerPermissions *[]string `json:"default_manager_permissions"`
	DefaultStaffPermissions   *[]string `json:"default_staff_permissions"`
	MaxStaffCount             *int      `json:"max_staff_count"`
	MaxManagerCount           *int      `json:"max_manager_count"`
}

type UIPatch struct {
	Theme            *string `json:"theme"`
	AccentColor      *string `json:"accent_color"`
	LayoutDensity    *string `json:"layout_density"`
	EnableAnimations *bool   `json:"enable_animations"`
}

type SecurityPatch struct {
	AutoLogoutMinutes *int  `json:"auto_logout_minutes"`
	SessionTimeout    *int  `json:"session_timeout"`
	Enable2FA         *bool `json:"enable_2fa"`
}

type settingsService struct {
	repo  repository.SettingsRepository
	wsHub *ws.Hub
	log   zerolog.Logger
}

func NewSettingsService(repo repository.SettingsRepository, hub *ws.Hub, log zerolog.Logger) SettingsService {
	return &settingsService{repo: repo, wsHub: hub, log: log.With().Str("component", "settings").Logger()}
}

func (s *settingsService) GetSettings(ctx context.Context) (*model.Settings, error) {
	settings, err := s.repo.Get(ctx)
	if err != nil {
		return nil, storeError(err, "settings")
	}
	settings.Inventory.FIFOMode = true
	return settings, nil
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// UpdateSettings merges patch into the stored settings, last writer wins.
func (s *settingsService) UpdateSettings(ctx context.Context, actor Actor, patch SettingsPatch) (*model.Settings, error) {
	settings, err := s.repo.Get(ctx)
	if err != nil {
		return nil, storeError(err, "settings")
	}

	if p := patch.Business; p != nil {
		b := &settings.Business
		set(&b.ShopName, p.ShopName)
		set(&b.ContactNumber, p.ContactNumber)
		set(&b.Email, p.Email)
		set(&b.Address, p.Address)
		set(&b.BusinessType, p.BusinessType)
		set(&b.GSTNumber, p.GSTNumber)
		set(&b.DefaultTaxPercent, p.DefaultTaxPercent)
		set(&b.TaxType, p.TaxType)
		set(&b.InvoicePrefix, p.InvoicePrefix)
		set(&b.InvoiceFooterMessage, p.InvoiceFooterMessage)
		set(&b.LogoURL, p.LogoURL)
		set(&b.Currency, p.Currency)
		set(&b.Timezone, p.Timezone)
		set(&b.DateFormat, p.DateFormat)
	}
	if p := patch.WorkingHours; p != nil {
		set(&settings.WorkingHours.OpeningTime, p.OpeningTime)
		set(&settings.WorkingHours.ClosingTime, p.ClosingTime)
		set(&settings.WorkingHours.WeeklyOffDay, p.WeeklyOffDay)
	}
	if p := patch.Inventory; p != nil {
		set(&settings.Inventory.LowStockThreshold, p.LowStockThreshold)
		set(&settings.Inventory.ExpiryAlertDays, p.ExpiryAlertDays)
		set(&settings.Inventory.EnableExpiryTracking, p.EnableExpiryTracking)
		set(&settings.Inventory.AllowNegativeStock, p.AllowNegativeStock)
		if p.FIFOMode != nil && !*p.FIFOMode {
			s.log.Info().Str("actor", actor.ID).Msg("ignoring attempt to disable fifo mode")
		}
	}
	if p := patch.Procurement; p != nil {
		set(&settings.Procurement.RequireAdminApproval, p.RequireAdminApproval)
		set(&settings.Procurement.AllowPartialReceive, p.AllowPartialReceive)
		set(&settings.Procurement.MaxReceiveQuantity, p.MaxReceiveQuantity)
		set(&settings.Procurement.InvoiceMandatory, p.InvoiceMandatory)
	}
	if p := patch.Alerts; p != nil {
		a := &settings.Alerts
		set(&a.EnableLowStockAlerts, p.EnableLowStockAlerts)
		set(&a.EnableExpiryAlerts, p.EnableExpiryAlerts)
		set(&a.EnableProcurementReminders, p.EnableProcurementReminders)
		set(&a.EnableDailySummary, p.EnableDailySummary)
		set(&a.AlertFrequency, p.AlertFrequency)
		if c := p.NotificationChannels; c != nil {
			set(&a.NotificationChannels.Dashboard, c.Dashboard)
			set(&a.NotificationChannels.Email, c.Email)
		}
	}
	if p := patch.Permissions; p != nil {
		set(&settings.Permissions.DefaultManagerPermissions, p.DefaultManagerPermissions)
		set(&settings.Permissions.DefaultStaffPermissions, p.DefaultStaffPermissions)
		set(&settings.Permissions.MaxStaffCount, p.MaxStaffCount)
		set(&settings.Permissions.MaxManagerCount, p.MaxManagerCount)
	}
	if p := patch.UI; p != nil {
		set(&settings.UI.Theme, p.Theme)
		set(&settings.UI.AccentColor, p.AccentColor)
		set(&settings.UI.LayoutDensity, p.LayoutDensity)
		set(&settings.UI.EnableAnimations, p.EnableAnimations)
	}
	if p := patch.Security; p != nil {
		set(&settings.Security.AutoLogoutMinutes, p.AutoLogoutMinutes)
		set(&settings.Security.SessionTimeout, p.SessionTimeout)
		set(&settings.Security.Enable2FA, p.Enable2FA)
	}

	// FIFO is mandatory.
	settings.Inventory.FIFOMode = true
	settings.Business.DefaultTaxPercent = settings.Business.DefaultTaxPercent.Round(2)
	settings.UpdatedBy = actor.ID

	if err := validate(settings); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, settings); err != nil {
		return nil, storeError(err, "settings")
	}

	s.log.Info().Str("actor", actor.ID).Msg("settings updated")
	s.wsHub.Publish(map[string]interface{}{
		"type":    ws.EventSettingsUpdate,
		"action":  "settings_updated",
		"user":    actor.userInfo(),
		"message": fmt.Sprintf("%s updated settings", actor.Name),
	})
	return settings, nil
}
