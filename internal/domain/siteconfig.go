package domain

// SiteConfig is the singleton site configuration managed by admins.
type SiteConfig struct {
	SiteName        string `json:"site_name"`
	SiteDescription string `json:"site_description"`
	MaintenanceMode bool   `json:"maintenance_mode"`
	SupportEmail    string `json:"support_email"`
	SupportPhone    string `json:"support_phone"`
}
