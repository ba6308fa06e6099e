package loader

import (
	"net/netip"
	"strconv"
	"strings"

	"github.com/braunma/steelconnect-import/internal/constants"
	"github.com/braunma/steelconnect-import/pkg/models"
	"github.com/braunma/steelconnect-import/pkg/utils"
)

// buildRecord maps a CSV row onto a SiteRecord and validates it
func buildRecord(row []string, index map[string]int, line int) (*models.SiteRecord, error) {
	get := func(col string) string {
		pos, ok := index[col]
		if !ok || pos >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[pos])
	}

	rec := &models.SiteRecord{
		Line:          line,
		Name:          get("name"),
		LongName:      get("longname"),
		Tags:          utils.SplitTags(get("tags")),
		StreetAddress: get("street_address"),
		City:          get("city"),
		Country:       get("country"),
		TimeZone:      get("timezone"),
		ZoneName:      get("zone_name"),
		ZoneIP:        get("zone_ip"),
		InternetIP:    get("internet_ip"),
		InternetGW:    get("internet_gw"),
		WANName:       get("wan_name"),
		WANIP:         get("wan_ip"),
		WANGW:         get("wan_gw"),
	}

	for _, col := range []string{"name", "zone_name", "zone_ip", "vlan", "wan_name"} {
		if get(col) == "" {
			return nil, &ValidationError{Line: line, Field: col, Message: "required field is empty"}
		}
	}

	vlan, err := parseVLAN(get("vlan"))
	if err != nil {
		err.Line = line
		return nil, err
	}
	rec.VLAN = vlan

	if !isIPv4OrPrefix(rec.ZoneIP) {
		return nil, &ValidationError{Line: line, Field: "zone_ip", Value: rec.ZoneIP, Message: "not an IPv4 address or prefix"}
	}

	if err := validateUplink(line, "internet", rec.InternetIP, rec.InternetGW); err != nil {
		return nil, err
	}
	if err := validateUplink(line, "wan", rec.WANIP, rec.WANGW); err != nil {
		return nil, err
	}

	// an empty address means dhcp; the keyword itself is case-insensitive
	if rec.InternetIP == "" || utils.IsDHCP(rec.InternetIP) {
		rec.InternetIP = constants.DHCPKeyword
	}
	if rec.WANIP == "" || utils.IsDHCP(rec.WANIP) {
		rec.WANIP = constants.DHCPKeyword
	}

	return rec, nil
}

// parseVLAN parses the vlan column; the returned error has no line set
func parseVLAN(raw string) (int, *ValidationError) {
	vlan, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &ValidationError{Field: "vlan", Value: raw, Message: "not a number"}
	}
	if vlan < constants.MinVLAN || vlan > constants.MaxVLAN {
		return 0, &ValidationError{Field: "vlan", Value: raw, Message: "must be between 1 and 4094"}
	}
	return vlan, nil
}

// validateUplink checks an ip/gateway column pair. An empty ip means dhcp.
func validateUplink(line int, prefix, ip, gw string) *ValidationError {
	if ip == "" || utils.IsDHCP(ip) {
		return nil
	}
	if !isIPv4OrPrefix(ip) {
		return &ValidationError{Line: line, Field: prefix + "_ip", Value: ip, Message: "not an IPv4 address or \"dhcp\""}
	}
	if gw == "" {
		return &ValidationError{Line: line, Field: prefix + "_gw", Message: "required when " + prefix + "_ip is static"}
	}
	if addr, err := netip.ParseAddr(gw); err != nil || !addr.Is4() {
		return &ValidationError{Line: line, Field: prefix + "_gw", Value: gw, Message: "not an IPv4 address"}
	}
	return nil
}

func isIPv4OrPrefix(value string) bool {
	if strings.Contains(value, "/") {
		p, err := netip.ParsePrefix(value)
		return err == nil && p.Addr().Is4()
	}
	addr, err := netip.ParseAddr(value)
	return err == nil && addr.Is4()
}
