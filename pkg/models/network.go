package models

// Zone is a site zone together with the network SCM attaches to it
type Zone struct {
	ID        string `yaml:"id" json:"id"`
	Site      string `yaml:"site" json:"site"`
	Name      string `yaml:"name" json:"name"`
	VLAN      int    `yaml:"vlan" json:"tag"`
	NetworkID string `yaml:"network_id,omitempty" json:"network_id,omitempty"`
	Subnet    string `yaml:"subnet,omitempty" json:"netv4,omitempty"`
}

// WAN is an organization-wide WAN definition
type WAN struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

// Uplink binds a site to a WAN
type Uplink struct {
	ID      string `yaml:"id" json:"id"`
	Site    string `yaml:"site" json:"site"`
	WAN     string `yaml:"wan" json:"wan"`
	Type    string `yaml:"type" json:"type"`
	Address string `yaml:"address,omitempty" json:"static_ip_v4,omitempty"`
	Gateway string `yaml:"gateway,omitempty" json:"static_gw_v4,omitempty"`
}

// UplinkRequest carries everything needed to bind a site to its WANs
type UplinkRequest struct {
	SiteID     string
	WAN        WAN
	InternetIP string
	InternetGW string
	WANIP      string
	WANGW      string
	// Zone whose network gets the WAN attached; may be nil
	Zone *Zone
}
