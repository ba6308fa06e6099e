package models

import (
	"fmt"
	"strings"
)

// SiteRecord is one row of the import CSV
type SiteRecord struct {
	Line          int      `yaml:"line" json:"line"`
	Name          string   `yaml:"name" json:"name" validate:"required"`
	LongName      string   `yaml:"longname" json:"longname"`
	Tags          []string `yaml:"tags,omitempty" json:"tags,omitempty"`
	StreetAddress string   `yaml:"street_address" json:"street_address"`
	City          string   `yaml:"city" json:"city"`
	Country       string   `yaml:"country" json:"country"`
	TimeZone      string   `yaml:"timezone" json:"timezone"`
	ZoneName      string   `yaml:"zone_name" json:"zone_name" validate:"required"`
	ZoneIP        string   `yaml:"zone_ip" json:"zone_ip" validate:"required"`
	VLAN          int      `yaml:"vlan" json:"vlan" validate:"required,min=1,max=4094"`
	InternetIP    string   `yaml:"internet_ip" json:"internet_ip"`
	InternetGW    string   `yaml:"internet_gw" json:"internet_gw"`
	WANName       string   `yaml:"wan_name" json:"wan_name" validate:"required"`
	WANIP         string   `yaml:"wan_ip" json:"wan_ip"`
	WANGW         string   `yaml:"wan_gw" json:"wan_gw"`
}

// Label returns "name (line N)" for log output
func (r *SiteRecord) Label() string {
	if r.Name == "" {
		return fmt.Sprintf("line %d", r.Line)
	}
	return fmt.Sprintf("%s (line %d)", r.Name, r.Line)
}

// Location returns "city (country)" or whichever part is set
func (r *SiteRecord) Location() string {
	switch {
	case r.City != "" && r.Country != "":
		return fmt.Sprintf("%s (%s)", r.City, r.Country)
	default:
		return strings.TrimSpace(r.City + r.Country)
	}
}

// Organization is an SCM organization
type Organization struct {
	ID       string `yaml:"id" json:"id"`
	Name     string `yaml:"name" json:"name"`
	LongName string `yaml:"longname,omitempty" json:"longname,omitempty"`
}

// Site is a site as stored in SCM
type Site struct {
	ID       string   `yaml:"id" json:"id"`
	Org      string   `yaml:"org" json:"org"`
	Name     string   `yaml:"name" json:"name"`
	LongName string   `yaml:"longname,omitempty" json:"longname,omitempty"`
	Tags     []string `yaml:"tags,omitempty" json:"tags,omitempty"`
}

// HasTag reports whether the site carries the given tag
func (s *Site) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
