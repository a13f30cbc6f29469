// Package cookies implements RFC 6265bis cookie serialization and parsing
// with the constraints user agents actually enforce: name prefix rules,
// SameSite=None pairing, partitioned cookie requirements and the 400 day
// lifetime limit. Values are percent-encoded on the wire so arbitrary
// strings round-trip.
package cookies

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// SameSite is the cookie's cross-site sending policy. The zero value omits
// the attribute entirely.
type SameSite string

const (
	SameSiteDefault SameSite = ""
	SameSiteLax     SameSite = "Lax"
	SameSiteStrict  SameSite = "Strict"
	SameSiteNone    SameSite = "None"
)

// maxLifetime is the upper bound user agents apply to cookie lifetimes.
// Longer Expires and Max-Age values are a constraint violation.
const maxLifetime = 400 * 24 * time.Hour

// Attributes are the Set-Cookie attributes. MaxAge follows the convention of
// net/http: zero means unset, negative means "delete now" and serializes as
// Max-Age=0.
type Attributes struct {
	Expires     time.Time
	MaxAge      int
	Domain      string
	Path        string
	Secure      bool
	HttpOnly    bool
	SameSite    SameSite
	Partitioned bool
}

// Cookie is one cookie with its attributes.
type Cookie struct {
	Name  string
	Value string
	Attributes
}

// ConstraintKind identifies which serialization rule a cookie violates.
type ConstraintKind string

const (
	ConstraintInvalidName      ConstraintKind = "invalid_name"
	ConstraintInvalidAttribute ConstraintKind = "invalid_attribute"
	ConstraintSecurePrefix     ConstraintKind = "secure_prefix"
	ConstraintHostPrefix       ConstraintKind = "host_prefix"
	ConstraintSameSiteNone     ConstraintKind = "samesite_none"
	ConstraintPartitioned      ConstraintKind = "partitioned"
	ConstraintAgeLimit         ConstraintKind = "age_limit"
)

// ConstraintError reports a cookie that cannot be serialized because a user
// agent would reject or silently drop it.
type ConstraintError struct {
	Kind   ConstraintKind
	Name   string
	Reason string
}

func (e *ConstraintError) Error() string {
	return "cookie " + strconv.Quote(e.Name) + ": " + e.Reason
}

func constraintErr(kind ConstraintKind, name, reason string) error {
	return &ConstraintError{Kind: kind, Name: name, Reason: reason}
}

// Serialize renders the cookie as a Set-Cookie header value. It returns a
// [*ConstraintError] when the cookie violates a rule a user agent enforces,
// so misconfigured cookies fail at the server instead of disappearing in the
// browser.
func Serialize(c Cookie) (string, error) {
	if !validName(c.Name) {
		return "", constraintErr(ConstraintInvalidName, c.Name, "name is not a valid RFC 6265 token")
	}

	if err := checkPrefixes(c); err != nil {
		return "", err
	}

	if c.SameSite == SameSiteNone && !c.Secure {
		return "", constraintErr(ConstraintSameSiteNone, c.Name, "SameSite=None requires the Secure attribute")
	}

	if c.Partitioned {
		if !c.Secure {
			return "", constraintErr(ConstraintPartitioned, c.Name, "Partitioned requires the Secure attribute")
		}
		if c.SameSite != SameSiteNone {
			return "", constraintErr(ConstraintPartitioned, c.Name, "Partitioned requires SameSite=None")
		}
	}

	if c.Domain != "" && !validDomain(c.Domain) {
		return "", constraintErr(ConstraintInvalidAttribute, c.Name, "invalid Domain attribute")
	}

	if c.Path != "" && strings.ContainsAny(c.Path, ";,") {
		return "", constraintErr(ConstraintInvalidAttribute, c.Name, "invalid Path attribute")
	}

	if !c.Expires.IsZero() && time.Until(c.Expires) > maxLifetime {
		return "", constraintErr(ConstraintAgeLimit, c.Name, "Expires exceeds the 400 day lifetime limit")
	}
	if c.MaxAge > int(maxLifetime/time.Second) {
		return "", constraintErr(ConstraintAgeLimit, c.Name, "Max-Age exceeds the 400 day lifetime limit")
	}

	var b strings.Builder
	b.WriteString(c.Name)
	b.WriteByte('=')
	b.WriteString(encodeValue(c.Value))

	// Attribute order is fixed so serialization is deterministic.
	if !c.Expires.IsZero() {
		b.WriteString("; Expires=")
		b.WriteString(c.Expires.UTC().Format(http1123GMT))
	}
	if c.MaxAge != 0 {
		b.WriteString("; Max-Age=")
		b.WriteString(strconv.Itoa(max(c.MaxAge, 0)))
	}
	if c.Domain != "" {
		b.WriteString("; Domain=")
		b.WriteString(strings.TrimPrefix(c.Domain, "."))
	}
	if c.Path != "" {
		b.WriteString("; Path=")
		b.WriteString(c.Path)
	}
	if c.Secure {
		b.WriteString("; Secure")
	}
	if c.HttpOnly {
		b.WriteString("; HttpOnly")
	}
	if c.SameSite != SameSiteDefault {
		b.WriteString("; SameSite=")
		b.WriteString(string(c.SameSite))
	}
	if c.Partitioned {
		b.WriteString("; Partitioned")
	}

	return b.String(), nil
}

const http1123GMT = "Mon, 02 Jan 2006 15:04:05 GMT"

// checkPrefixes enforces the __Secure- and __Host- name prefix rules.
func checkPrefixes(c Cookie) error {
	if strings.HasPrefix(c.Name, "__Host-") {
		switch {
		case !c.Secure:
			return constraintErr(ConstraintHostPrefix, c.Name, "__Host- cookies require the Secure attribute")
		case c.Domain != "":
			return constraintErr(ConstraintHostPrefix, c.Name, "__Host- cookies must not set a Domain")
		case c.Path != "/":
			return constraintErr(ConstraintHostPrefix, c.Name, "__Host- cookies require Path=/")
		}

		return nil
	}

	if strings.HasPrefix(c.Name, "__Secure-") && !c.Secure {
		return constraintErr(ConstraintSecurePrefix, c.Name, "__Secure- cookies require the Secure attribute")
	}

	return nil
}

// Parse reads a request Cookie header into name/value pairs. Values that
// were percent-encoded are decoded; values that fail decoding are kept raw,
// since clients are not required to encode.
func Parse(header string) []Cookie {
	var out []Cookie
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		name, value, _ := strings.Cut(part, "=")
		if !validName(name) {
			continue
		}
		value = strings.Trim(value, `"`)

		// PathUnescape, not QueryUnescape: a literal + is a valid
		// cookie-octet and must not turn into a space.
		if decoded, err := url.PathUnescape(value); err == nil {
			value = decoded
		}

		out = append(out, Cookie{Name: name, Value: value})
	}

	return out
}

// Lookup finds the named cookie in a parsed header.
func Lookup(parsed []Cookie, name string) (Cookie, bool) {
	for _, c := range parsed {
		if c.Name == name {
			return c, true
		}
	}

	return Cookie{}, false
}

// encodeValue percent-encodes the characters RFC 6265 excludes from
// cookie-octet while leaving the common safe characters readable.
func encodeValue(v string) string {
	var b strings.Builder
	for i := 0; i < len(v); i++ {
		ch := v[i]
		if validValueByte(ch) {
			b.WriteByte(ch)
		} else {
			b.WriteByte('%')
			b.WriteByte(upperhex[ch>>4])
			b.WriteByte(upperhex[ch&0xf])
		}
	}

	return b.String()
}

func validValueByte(ch byte) bool {
	switch {
	case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
		return true
	case strings.IndexByte("!#$&'()*-./:<>?@[]^_`{|}~", ch) >= 0:
		// Deliberately excludes % and +, which the decoder interprets.
		return true
	}

	return false
}

const upperhex = "0123456789ABCDEF"

// validName reports whether the name is an RFC 6265 token.
func validName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		ch := name[i]
		if ch <= 0x20 || ch >= 0x7f || strings.IndexByte(`()<>@,;:\"/[]?={}`, ch) >= 0 {
			return false
		}
	}

	return true
}

func validDomain(domain string) bool {
	domain = strings.TrimPrefix(domain, ".")
	if domain == "" || len(domain) > 253 {
		return false
	}
	for _, label := range strings.Split(domain, ".") {
		if label == "" || len(label) > 63 {
			return false
		}
		for i := 0; i < len(label); i++ {
			ch := label[i]
			valid := ch == '-' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9')
			if !valid {
				return false
			}
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}
	}

	return true
}
