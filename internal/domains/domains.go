package domains

import "strings"

// ParseEmail splits an address into its local part and domain. The domain is
// empty when the address does not contain one.
func ParseEmail(email string) (local string, domain string) {
	email = strings.ToLower(strings.TrimSpace(email))
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email, ""
	}
	return email[:at], email[at+1:]
}

// SlugifyDomain removes the top-level suffix from a domain and slugifies the
// remaining labels, e.g. "getting-started.example.com" -> "getting-started-example".
func SlugifyDomain(domain string) string {
	labels := strings.Split(domain, ".")
	if len(labels) > 1 {
		labels = labels[:len(labels)-1]
	}
	return Slugify(strings.Join(labels, "-"))
}

// Slugify lowercases the input and collapses every run of characters outside
// [a-z0-9] into a single hyphen.
func Slugify(s string) string {
	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
