package config

import "net/url"

// RedactURL hides the password in a PostgreSQL connection URL so the target
// can be logged safely. URLs that cannot be parsed, or carry no password,
// are returned unchanged.
func RedactURL(raw string) string {
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}

	if _, hasPassword := u.User.Password(); !hasPassword {
		return raw
	}

	return u.Redacted()
}
