package models

// MailConfigID is the fixed identity of the singleton mail configuration row.
const MailConfigID uint64 = 1

// DefaultSMTPPort is used when no port was configured.
const DefaultSMTPPort = 587

// MailConfig holds the outbound SMTP configuration. Absent until the first
// settings save; replaced wholesale on each save.
type MailConfig struct {
	// ID is always MailConfigID.
	ID       uint64 `gorm:"primaryKey" json:"-"`
	SMTPHost string `gorm:"column:smtp_host;size:255" json:"smtp_host"`
	SMTPPort int    `gorm:"column:smtp_port;default:587" json:"smtp_port"`
	// SMTPSecure selects implicit TLS instead of plain/STARTTLS.
	SMTPSecure bool   `gorm:"column:smtp_secure" json:"smtp_secure"`
	SMTPUser   string `gorm:"column:smtp_user;size:255" json:"smtp_user"`
	// SMTPPass is stored encrypted by the vault (legacy rows may hold it in clear).
	SMTPPass  string `gorm:"column:smtp_pass;size:512" json:"-"`
	FromEmail string `gorm:"column:from_email;size:255" json:"from_email"`
	FromName  string `gorm:"column:from_name;size:255" json:"from_name"`
}
