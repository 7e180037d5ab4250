package servicecfg

// Default zone parameters.
const (
	DefaultTTL         uint32 = 60000
	DefaultSerial      uint32 = 1
	DefaultRefresh     uint32 = 28800
	DefaultRetry       uint32 = 14400
	DefaultExpire      uint32 = 3600000
	DefaultNegativeTTL uint32 = 0
)

// Parameters of the generated zones. The zero values are replaced with
// the defaults except for the negative caching TTL.
type Options struct {
	TTL         uint32
	Serial      uint32
	Refresh     uint32
	Retry       uint32
	Expire      uint32
	NegativeTTL uint32
}

// Returns the default zone parameters.
func DefaultOptions() Options {
	return Options{
		TTL:         DefaultTTL,
		Serial:      DefaultSerial,
		Refresh:     DefaultRefresh,
		Retry:       DefaultRetry,
		Expire:      DefaultExpire,
		NegativeTTL: DefaultNegativeTTL,
	}
}

// Returns the options with the unset values replaced with the defaults.
func (o Options) withDefaults() Options {
	defaults := DefaultOptions()
	if o.TTL == 0 {
		o.TTL = defaults.TTL
	}
	if o.Serial == 0 {
		o.Serial = defaults.Serial
	}
	if o.Refresh == 0 {
		o.Refresh = defaults.Refresh
	}
	if o.Retry == 0 {
		o.Retry = defaults.Retry
	}
	if o.Expire == 0 {
		o.Expire = defaults.Expire
	}
	return o
}
