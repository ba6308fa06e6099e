package constants

// API location
const (
	APIBasePath    = "/api/scm.config/1.0/"
	DefaultScheme  = "https://"
	ControllerTLD  = ".cc"
	DefaultTimeout = 30 // seconds
)

// Well-known WAN names every SCM organization carries
const (
	WANInternet = "Internet"
	WANRouteVPN = "RouteVPN"
)

// Uplink types
const (
	UplinkTypeStatic = "static"
	UplinkTypeDHCP   = "dhcpd"
	DHCPKeyword      = "dhcp"
)

// Default values
const (
	// SCM rejects uplink writes without this field
	DefaultBGPLearnedRoutes = "[]"
	// Name SCM gives to the default network of a zone
	DefaultNetworkName = "Net"
	MinVLAN            = 1
	MaxVLAN            = 4094
)

// Resource kinds, used in error messages and cache keys
const (
	ResourceOrg     = "organization"
	ResourceSite    = "site"
	ResourceZone    = "zone"
	ResourceWAN     = "wan"
	ResourceUplink  = "uplink"
	ResourceNetwork = "network"
)

// Exit codes
const (
	ExitOK         = 0
	ExitRowsFailed = 1
	ExitFatal      = 2
)

// Tag separators accepted inside the tags column
var TagSeparators = []rune{';', '|'}

// CSV columns, all required in the header
var RequiredColumns = []string{
	"name",
	"longname",
	"tags",
	"street_address",
	"city",
	"country",
	"timezone",
	"zone_name",
	"zone_ip",
	"vlan",
	"internet_ip",
	"internet_gw",
	"wan_name",
	"wan_ip",
	"wan_gw",
}
