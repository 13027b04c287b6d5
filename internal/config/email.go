package config

// EmailConfig holds the SMTP account used to send password reset links.
// Username and Password fall back to the GMAIL_* variables so an existing
// Gmail app-password setup keeps working.
type EmailConfig struct {
    Host        string
    Port        int
    Username    string
    Password    string
    FromAddress string
    FromName    string
}

func LoadEmailConfig() EmailConfig {
    port := envInt("SMTP_PORT", 587)
    if port <= 0 {
        port = 587
    }
    user := envStr("SMTP_USERNAME", envStr("GMAIL_USER", ""))
    return EmailConfig{
        Host:        envStr("SMTP_HOST", "smtp.gmail.com"),
        Port:        port,
        Username:    user,
        Password:    envStr("SMTP_PASSWORD", envStr("GMAIL_APP_PASSWORD", "")),
        FromAddress: envStr("SMTP_FROM", user),
        FromName:    envStr("SMTP_FROM_NAME", "Document System"),
    }
}
