package topology

import "slices"

// Role of a DNS server.
type DNSRole string

// Supported DNS server roles.
const (
	DNSRoleRoot    DNSRole = "root"
	DNSRoleMaster  DNSRole = "master"
	DNSRoleCaching DNSRole = "caching"
)

// Default value of the allow-recursion clause of a caching server.
const DefaultAllowRecursion = "any"

// Resolver setting of an end system that does not use any DNS server.
const ResolverNone = "none"

// DNS server configuration.
type DNSConfig struct {
	Role DNSRole `yaml:"role" json:"role" xml:"role,attr" validate:"oneof=root master caching"`
	// Zone served by a master server.
	Domain string `yaml:"domain,omitempty" json:"domain,omitempty" xml:"domain,attr,omitempty" validate:"required_if=Role master"`
	// Devices having the address records in the master zone. Empty means
	// all devices.
	Scope []string `yaml:"scope,omitempty" json:"scope,omitempty" xml:"scope>device,omitempty"`
	// Networks allowed to send recursive queries to a caching server.
	AllowRecursion string `yaml:"allow-recursion,omitempty" json:"allow-recursion,omitempty" xml:"allow-recursion,attr,omitempty"`
	// Enables the DNSSEC validation of a caching server.
	DNSSECValidation bool `yaml:"dnssec-validation,omitempty" json:"dnssec-validation,omitempty" xml:"dnssec-validation,attr,omitempty"`
}

// Checks if the device belongs to the master zone scope.
func (c *DNSConfig) InScope(id string) bool {
	return len(c.Scope) == 0 || slices.Contains(c.Scope, id)
}

// Returns the allow-recursion value with the default applied.
func (c *DNSConfig) EffectiveAllowRecursion() string {
	if c.AllowRecursion == "" {
		return DefaultAllowRecursion
	}
	return c.AllowRecursion
}

// Returns a copy of the configuration.
func (c *DNSConfig) Clone() *DNSConfig {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Scope = slices.Clone(c.Scope)
	return &clone
}

// Web server content override.
type WebConfig struct {
	Content string `yaml:"content,omitempty" json:"content,omitempty" xml:",chardata"`
}

// Returns a copy of the configuration.
func (c *WebConfig) Clone() *WebConfig {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}
